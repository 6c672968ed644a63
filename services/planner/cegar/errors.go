// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cegar

import "errors"

// Sentinel errors for the generator.
//
// Budget exhaustion (size limits, refinement cap, time) is not an error;
// the generator terminates gracefully with whatever collection it built.
var (
	// ErrTaskUnsolvable indicates a live pattern has no abstract plan, which
	// proves the concrete task unsolvable.
	ErrTaskUnsolvable = errors.New("task proven unsolvable")

	// ErrInvalidGoalVariable indicates the configured given goal is out of
	// range or not a goal variable of the task.
	ErrInvalidGoalVariable = errors.New("invalid given goal variable")
)
