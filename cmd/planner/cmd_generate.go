// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/AleutianAI/AleutianPlan/pkg/logging"
	"github.com/AleutianAI/AleutianPlan/services/planner/cegar"
	"github.com/AleutianAI/AleutianPlan/services/planner/task"
)

// generateFlags carries the raw flag values; they are resolved into a
// cegar.Config by buildConfig.
type generateFlags struct {
	taskFile             string
	maxRefinements       int
	maxPDBSize           int
	maxCollectionSize    int
	wildcardPlans        bool
	ignoreGoalViolations bool
	globalBlacklistSize  int
	blacklistAll         bool
	initial              string
	givenGoal            int
	maxTime              time.Duration
	verbosity            string
	seed                 int64
	dumpMetrics          bool
	logDir               string
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Grow a pattern collection for a task by CEGAR refinement",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context())
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.taskFile, "task", "", "path to the YAML task file (required)")
	f.IntVar(&genFlags.maxRefinements, "max-refinements", -1,
		"maximum number of refinements, -1 for unlimited")
	f.IntVar(&genFlags.maxPDBSize, "max-pdb-size", 1000000,
		"maximum number of abstract states per PDB (not applied to the initial goal patterns)")
	f.IntVar(&genFlags.maxCollectionSize, "max-collection-size", -1,
		"limit on the summed PDB sizes, -1 for unlimited (not applied to the initial goal patterns)")
	f.BoolVar(&genFlags.wildcardPlans, "wildcard-plans", true,
		"extract wildcard rather than regular plans")
	f.BoolVar(&genFlags.ignoreGoalViolations, "ignore-goal-violations", false,
		"ignore goal violations; with GIVEN_GOAL or RANDOM_GOAL this yields a single pattern")
	f.IntVar(&genFlags.globalBlacklistSize, "global-blacklist-size", 0,
		"number of randomly drawn non-goal variables to blacklist up front")
	f.BoolVar(&genFlags.blacklistAll, "blacklist-all-nongoals", false,
		"blacklist every non-goal variable")
	f.StringVar(&genFlags.initial, "initial", "ALL_GOALS",
		"initial collection mode: GIVEN_GOAL, RANDOM_GOAL, or ALL_GOALS")
	f.IntVar(&genFlags.givenGoal, "given-goal", -1,
		"goal variable seeded under GIVEN_GOAL")
	f.DurationVar(&genFlags.maxTime, "max-time", 0,
		"wall-clock budget for the generation, 0 for unlimited")
	f.StringVar(&genFlags.verbosity, "verbosity", "NORMAL",
		"reporting level: SILENT, NORMAL, or VERBOSE")
	f.Int64Var(&genFlags.seed, "seed", 0,
		"RNG seed, 0 for a wall-clock seed; identical nonzero seeds reproduce identical collections")
	f.BoolVar(&genFlags.dumpMetrics, "metrics", false,
		"dump collected metrics to stdout when the run finishes")
	f.StringVar(&genFlags.logDir, "log-dir", "",
		"also write JSON logs into this directory")
	_ = generateCmd.MarkFlagRequired("task")

	rootCmd.AddCommand(generateCmd)
}

// buildConfig resolves flag values into a generator configuration.
func buildConfig(fl generateFlags) (cegar.Config, error) {
	cfg := cegar.DefaultConfig()

	if fl.maxRefinements >= 0 {
		cfg.MaxRefinements = fl.maxRefinements
	}
	cfg.MaxPDBSize = fl.maxPDBSize
	if fl.maxCollectionSize >= 0 {
		cfg.MaxCollectionSize = fl.maxCollectionSize
	}
	cfg.WildcardPlans = fl.wildcardPlans
	cfg.IgnoreGoalViolations = fl.ignoreGoalViolations
	cfg.GlobalBlacklistSize = fl.globalBlacklistSize
	if fl.blacklistAll {
		cfg.GlobalBlacklistSize = cegar.Unlimited
	}
	cfg.GivenGoal = fl.givenGoal
	if fl.maxTime > 0 {
		cfg.MaxTime = fl.maxTime
	}

	initial, err := cegar.ParseInitialCollection(fl.initial)
	if err != nil {
		return cfg, err
	}
	cfg.Initial = initial

	verbosity, err := cegar.ParseVerbosity(fl.verbosity)
	if err != nil {
		return cfg, err
	}
	cfg.Verbosity = verbosity

	return cfg, cfg.Validate()
}

// loggerLevel maps the generator verbosity onto a log level: VERBOSE runs
// need the Debug stream, SILENT runs only surface errors.
func loggerLevel(v cegar.Verbosity) logging.Level {
	switch v {
	case cegar.VerbositySilent:
		return logging.LevelError
	case cegar.VerbosityVerbose:
		return logging.LevelDebug
	default:
		return logging.LevelInfo
	}
}

func runGenerate(ctx context.Context) error {
	cfg, err := buildConfig(genFlags)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:   loggerLevel(cfg.Verbosity),
		LogDir:  genFlags.logDir,
		Service: "planner",
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	var shutdownMetrics func()
	if genFlags.dumpMetrics {
		shutdownMetrics, err = setupMetrics(ctx)
		if err != nil {
			return err
		}
		defer shutdownMetrics()
	}

	t, err := task.LoadFile(genFlags.taskFile)
	if err != nil {
		return err
	}

	seed := genFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		logger.Info("no seed given, using wall clock", "seed", seed)
	}

	gen, err := cegar.New(t, cfg,
		cegar.WithLogger(logger.Logger),
		cegar.WithRNG(rand.New(rand.NewSource(seed))))
	if err != nil {
		return err
	}

	result, err := gen.Generate(ctx)
	if err != nil {
		return err
	}

	printResult(t, result)
	return nil
}

// printResult writes the collection (and plan, if any) to stdout.
func printResult(t *task.Task, result *cegar.Result) {
	fmt.Printf("patterns: %d\n", len(result.Patterns))
	for i, p := range result.Patterns {
		names := make([]string, len(p))
		for j, v := range p {
			names[j] = t.Variables[v].Name
		}
		fmt.Printf("  %s  {%s}  %d states\n",
			p, strings.Join(names, ", "), result.Databases[i].Size())
	}
	if result.Plan != nil {
		fmt.Printf("concrete plan found, %d step(s), cost %d:\n",
			result.Plan.Length(), result.Plan.Cost)
		for i, step := range result.Plan.Steps {
			names := make([]string, len(step))
			for j, opID := range step {
				names[j] = t.Operators[opID].Name
			}
			fmt.Printf("  step %d: %s\n", i+1, strings.Join(names, " | "))
		}
	}
}

// setupMetrics installs a periodic stdout metric exporter as the global
// meter provider. The returned shutdown flushes the final collection.
func setupMetrics(ctx context.Context) (func(), error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(provider)
	return func() {
		if err := provider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "metrics shutdown:", err)
		}
	}, nil
}
