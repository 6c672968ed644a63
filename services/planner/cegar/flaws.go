// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cegar

import (
	"fmt"

	"github.com/AleutianAI/AleutianPlan/services/planner/task"
)

// flaw names a variable whose concrete value blocked the plan of one slot:
// either an unsatisfied operator precondition or an unmet concrete goal.
// Flaws live for a single detection pass; slot indices are stable across
// it because merges only tombstone, never reindex.
type flaw struct {
	solutionIndex int
	variable      int
}

// getFlaws simulates the plan of every live, unsolved slot against the
// concrete initial state and aggregates the resulting flaws in ascending
// slot order.
//
// A live slot without any abstract plan proves the task unsolvable and
// aborts the whole run with ErrTaskUnsolvable. If some plan executes to a
// concrete goal under an empty blacklist, the pass returns no flaws so the
// driver terminates and reports that plan.
func (g *Generator) getFlaws() ([]flaw, error) {
	var flaws []flaw
	for index := range g.coll.solutions {
		sol := g.coll.solutions[index]
		if sol == nil || sol.IsSolved() {
			continue
		}

		if !sol.Solvable() {
			if g.cfg.Verbosity >= VerbosityNormal {
				g.logger.Info("problem unsolvable", "pattern", sol.Pattern().String())
			}
			return nil, fmt.Errorf("pattern %s: %w", sol.Pattern(), ErrTaskUnsolvable)
		}

		newFlaws := g.applyPlan(index, g.task.Init)
		if g.coll.concreteSolutionIndex != -1 {
			return nil, nil
		}
		flaws = append(flaws, newFlaws...)
	}
	return flaws, nil
}

// applyPlan walks the slot's abstract plan on the concrete state space,
// starting from init.
//
// Each step holds equivalent abstract operators; they are tried in order.
// An operator whose non-blacklisted preconditions all hold is applied and
// the accumulated flaws are discarded; otherwise one flaw per violated
// precondition is recorded and the next operator is tried. When no operator
// of a step applies, the walk stops and the flaws recorded across the
// step's failed operators are returned.
//
// A flawless walk ends in one of three ways: the concrete goal is reached
// (solved task if the blacklist is empty, otherwise the slot is marked
// solved); goal violations are raised for missing concrete goals still on
// the worklist; or, when none can be raised, the slot is marked solved
// since no refinement can improve it.
func (g *Generator) applyPlan(solutionIndex int, init task.State) []flaw {
	sol := g.coll.solutions[solutionIndex]
	verbose := g.cfg.Verbosity >= VerbosityVerbose

	var flaws []flaw
	current := init.Clone()
	for _, step := range sol.Plan() {
		stepFailed := true
		for _, absOp := range step {
			opID := sol.ConcreteOperator(absOp)
			op := &g.task.Operators[opID]

			flawDetected := false
			for _, pre := range op.Preconditions {
				if g.coll.isBlacklisted(pre.Var) {
					continue
				}
				if current[pre.Var] != pre.Value {
					flawDetected = true
					flaws = append(flaws, flaw{solutionIndex: solutionIndex, variable: pre.Var})
				}
			}

			if !flawDetected {
				stepFailed = false
				flaws = flaws[:0]
				current = g.task.Apply(op, current)
				break
			}
		}

		if stepFailed {
			break
		}
	}

	if len(flaws) > 0 {
		if verbose {
			g.logger.Debug("plan failed",
				"pattern", sol.Pattern().String(), "flaws", len(flaws))
		}
		return flaws
	}

	if g.task.IsGoalState(current) {
		// A flawless walk still only proves the plan concretely valid when
		// no precondition was skipped via the blacklist.
		if len(g.coll.blacklist) == 0 {
			if verbose {
				g.logger.Debug("plan executed to a concrete goal, task solved",
					"pattern", sol.Pattern().String())
			}
			g.coll.concreteSolutionIndex = solutionIndex
		} else {
			if verbose {
				g.logger.Debug("plan executed to a concrete goal under a blacklist, marking solved",
					"pattern", sol.Pattern().String())
			}
			sol.MarkSolved()
		}
		return nil
	}

	if g.cfg.IgnoreGoalViolations {
		if verbose {
			g.logger.Debug("plan missed concrete goals, ignoring goal violations, marking solved",
				"pattern", sol.Pattern().String())
		}
		sol.MarkSolved()
		return nil
	}

	for _, goal := range g.task.Goals {
		if current[goal.Var] != goal.Value &&
			!g.coll.isBlacklisted(goal.Var) &&
			g.coll.isRemainingGoal(goal.Var) {
			flaws = append(flaws, flaw{solutionIndex: solutionIndex, variable: goal.Var})
		}
	}
	if len(flaws) == 0 {
		// No goal left that could be added to the collection; the pattern
		// cannot be improved further.
		if verbose {
			g.logger.Debug("plan missed concrete goals but none can be added, marking solved",
				"pattern", sol.Pattern().String())
		}
		sol.MarkSolved()
	} else if verbose {
		g.logger.Debug("plan missed concrete goals, raising goal violation flaws",
			"pattern", sol.Pattern().String(), "flaws", len(flaws))
	}
	return flaws
}
