// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cegar

import (
	"github.com/AleutianAI/AleutianPlan/services/planner/pdb"
)

// collection is the mutable bookkeeping of the refinement loop.
//
// Slots are stable identities: merging two patterns tombstones the absorbed
// slot (nil entry) and never reuses its index, so in-flight flaw references
// stay valid. lookup maps every variable that currently sits in some live
// pattern to its slot; a variable is in at most one pattern at a time.
type collection struct {
	solutions []*pdb.Solution

	// lookup maps variable ID to the index of the live slot whose pattern
	// contains it.
	lookup map[int]int

	// remainingGoals are goal variables not yet placed into any pattern, in
	// the shuffled order drawn at startup. Consumed back-to-front by the
	// RANDOM_GOAL and ALL_GOALS seeding modes.
	remainingGoals []int

	// blacklist holds variables excluded from every pattern. Their
	// preconditions and goal requirements are ignored by flaw detection.
	blacklist map[int]struct{}

	// collectionSize is the summed PDB size over live slots.
	collectionSize int

	// concreteSolutionIndex is the slot whose plan executed concretely to a
	// goal under an empty blacklist, or -1.
	concreteSolutionIndex int
}

func newCollection() *collection {
	return &collection{
		lookup:                make(map[int]int),
		blacklist:             make(map[int]struct{}),
		concreteSolutionIndex: -1,
	}
}

// live reports whether the slot holds a solution.
func (c *collection) live(index int) bool {
	return index >= 0 && index < len(c.solutions) && c.solutions[index] != nil
}

// addSolution appends a new slot for sol and indexes its variables.
// Returns the new slot index.
func (c *collection) addSolution(sol *pdb.Solution) int {
	c.solutions = append(c.solutions, sol)
	index := len(c.solutions) - 1
	for _, v := range sol.Pattern() {
		c.lookup[v] = index
	}
	c.collectionSize += sol.PDB().Size()
	return index
}

// replaceSolution swaps the slot's solution for a rebuilt one, adjusting
// the collection size and indexing any newly covered variables.
func (c *collection) replaceSolution(index int, sol *pdb.Solution) {
	c.collectionSize -= c.solutions[index].PDB().Size()
	c.collectionSize += sol.PDB().Size()
	for _, v := range sol.Pattern() {
		c.lookup[v] = index
	}
	c.solutions[index] = sol
}

// absorb installs merged at index1 and tombstones index2.
func (c *collection) absorb(index1, index2 int, merged *pdb.Solution) {
	c.collectionSize -= c.solutions[index1].PDB().Size()
	c.collectionSize -= c.solutions[index2].PDB().Size()
	c.collectionSize += merged.PDB().Size()
	for _, v := range merged.Pattern() {
		c.lookup[v] = index1
	}
	c.solutions[index1] = merged
	c.solutions[index2] = nil
}

// removeGoal drops v from the remaining-goals worklist if present.
func (c *collection) removeGoal(v int) {
	for i, g := range c.remainingGoals {
		if g == v {
			c.remainingGoals = append(c.remainingGoals[:i], c.remainingGoals[i+1:]...)
			return
		}
	}
}

// isRemainingGoal reports whether v is still on the worklist.
func (c *collection) isRemainingGoal(v int) bool {
	for _, g := range c.remainingGoals {
		if g == v {
			return true
		}
	}
	return false
}

// isBlacklisted reports whether v is excluded from patterns.
func (c *collection) isBlacklisted(v int) bool {
	_, ok := c.blacklist[v]
	return ok
}

// blacklistVar excludes v from every pattern from now on.
func (c *collection) blacklistVar(v int) {
	c.blacklist[v] = struct{}{}
}

// livePatterns returns the live patterns in slot order.
func (c *collection) livePatterns() []pdb.Pattern {
	var out []pdb.Pattern
	for _, sol := range c.solutions {
		if sol != nil {
			out = append(out, sol.Pattern())
		}
	}
	return out
}
