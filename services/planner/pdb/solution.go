// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pdb

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/AleutianAI/AleutianPlan/services/planner/task"
)

// Solution bundles a pattern's database with one extracted abstract plan.
//
// The plan is a sequence of steps; each step is a non-empty set of abstract
// operator IDs that are equally good at that point of the walk (applicable,
// reducing the goal distance by exactly their cost, and leading to the same
// abstract successor). In wildcard mode the whole set is stored; otherwise
// each step holds only the operator the extraction walk actually followed.
//
// Thread Safety: not safe for concurrent mutation; IsSolved/MarkSolved are
// driven from a single goroutine by the refinement loop.
type Solution struct {
	proj *Projection
	db   *Database

	steps  [][]int
	chosen []int

	solvable bool
	solved   bool
}

// NewSolution projects t onto pattern, computes the distance table, and
// extracts one plan. The result is deterministic given (t, pattern, the
// RNG state, wildcard).
func NewSolution(t *task.Task, pattern Pattern, rng *rand.Rand, wildcard bool) *Solution {
	proj := NewProjection(t, pattern)
	s := &Solution{
		proj: proj,
		db:   NewDatabase(proj),
	}
	s.extractPlan(t, rng, wildcard)
	return s
}

// extractPlan performs a steepest-descent walk from the abstract initial
// state. Ties between equally good operators are broken by the RNG; one
// sample is consumed per step regardless of the candidate count, keeping
// RNG consumption independent of wildcard mode.
func (s *Solution) extractPlan(t *task.Task, rng *rand.Rand, wildcard bool) {
	proj := s.proj
	values := make([]int, len(proj.pattern))
	for i, v := range proj.pattern {
		values[i] = t.Init[v]
	}
	dist := s.db.Distance(proj.Rank(values))
	if dist == Infinity {
		s.solvable = false
		return
	}
	s.solvable = true

	// Positive costs make the walk visit each abstract state at most once;
	// the cap guards against zero-cost cycles.
	for step := 0; dist > 0 && step < proj.Size(); step++ {
		var candidates []int
		var successors [][]int
		for opID := range proj.operators {
			op := &proj.operators[opID]
			if !proj.applicable(op, values) {
				continue
			}
			succ := proj.apply(op, values)
			if d := s.db.Distance(proj.Rank(succ)); d != Infinity && d+op.Cost == dist {
				candidates = append(candidates, opID)
				successors = append(successors, succ)
			}
		}
		if len(candidates) == 0 {
			break
		}
		pick := rng.Intn(len(candidates))
		if wildcard {
			// Keep only the operators that reach the same successor as the
			// picked one, so any member of the step realizes it.
			target := proj.Rank(successors[pick])
			var step []int
			for i, opID := range candidates {
				if proj.Rank(successors[i]) == target {
					step = append(step, opID)
				}
			}
			s.steps = append(s.steps, step)
		} else {
			s.steps = append(s.steps, []int{candidates[pick]})
		}
		s.chosen = append(s.chosen, candidates[pick])
		values = successors[pick]
		dist = s.db.Distance(proj.Rank(values))
	}
}

// Pattern returns the solution's pattern.
func (s *Solution) Pattern() Pattern { return s.proj.Pattern() }

// PDB returns the solution's pattern database.
func (s *Solution) PDB() *Database { return s.db }

// Plan returns the extracted plan as abstract operator IDs per step.
func (s *Solution) Plan() [][]int { return s.steps }

// Solvable reports whether an abstract plan to an abstract goal exists.
func (s *Solution) Solvable() bool { return s.solvable }

// IsSolved reports whether the refinement loop has marked this solution as
// done.
func (s *Solution) IsSolved() bool { return s.solved }

// MarkSolved flags the solution so flaw detection skips it from now on.
func (s *Solution) MarkSolved() { s.solved = true }

// ConcreteOperator maps an abstract operator ID from this solution's plan
// back to the task's operator table.
func (s *Solution) ConcreteOperator(absOp int) int {
	return s.proj.ConcreteOperator(absOp)
}

// PlanCost sums the costs of the operators the extraction walk followed.
func (s *Solution) PlanCost() int {
	cost := 0
	for _, opID := range s.chosen {
		cost += s.proj.operators[opID].Cost
	}
	return cost
}

// FormatPlan renders the plan with concrete operator names, one step per
// line. Wildcard steps list every member of the equivalence class.
func (s *Solution) FormatPlan(t *task.Task) string {
	var b strings.Builder
	for i, step := range s.steps {
		names := make([]string, len(step))
		for j, absOp := range step {
			names[j] = t.Operators[s.proj.ConcreteOperator(absOp)].Name
		}
		fmt.Fprintf(&b, "step %d: %s\n", i+1, strings.Join(names, " | "))
	}
	return b.String()
}
