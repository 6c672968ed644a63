// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command planner runs the CEGAR pattern collection generator on a task
// file and prints the resulting collection, or the concrete plan when one
// is discovered during refinement.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/services/planner/cegar"
)

// Process exit codes for the two sentinel outcomes; everything else exits
// 0 (success, including budget exhaustion) or 1 (usage errors).
const (
	exitCodeUnsolvable = 11
	exitCodeInputError = 33
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Pattern database tooling for finite-domain planning tasks",
	Long: "planner grows pattern collections for finite-domain planning tasks " +
		"by counterexample-guided abstraction refinement and reports them " +
		"as admissible heuristic material.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		switch {
		case errors.Is(err, cegar.ErrTaskUnsolvable):
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCodeUnsolvable)
		case errors.Is(err, cegar.ErrInvalidGoalVariable):
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCodeInputError)
		default:
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
