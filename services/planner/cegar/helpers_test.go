// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cegar

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/services/planner/task"
)

// oneStepTask solves with a single unconditional operator.
func oneStepTask() *task.Task {
	return &task.Task{
		Name:      "one-step",
		Variables: []task.Variable{{Name: "x", DomainSize: 2}},
		Operators: []task.Operator{
			{Name: "set-x", Cost: 1, Effects: []task.Fact{{Var: 0, Value: 1}}},
		},
		Init:  task.State{0},
		Goals: []task.Fact{{Var: 0, Value: 1}},
	}
}

// chainTask needs set-b before set-a can fire; both variables are goals.
func chainTask() *task.Task {
	return &task.Task{
		Name: "chain",
		Variables: []task.Variable{
			{Name: "a", DomainSize: 2},
			{Name: "b", DomainSize: 2},
		},
		Operators: []task.Operator{
			{
				Name:          "set-a",
				Cost:          1,
				Preconditions: []task.Fact{{Var: 1, Value: 1}},
				Effects:       []task.Fact{{Var: 0, Value: 1}},
			},
			{
				Name:    "set-b",
				Cost:    1,
				Effects: []task.Fact{{Var: 1, Value: 1}},
			},
		},
		Init:  task.State{0, 0},
		Goals: []task.Fact{{Var: 0, Value: 1}, {Var: 1, Value: 1}},
	}
}

// independentTask has two goals reachable independently.
func independentTask() *task.Task {
	return &task.Task{
		Name: "independent",
		Variables: []task.Variable{
			{Name: "a", DomainSize: 2},
			{Name: "b", DomainSize: 2},
		},
		Operators: []task.Operator{
			{Name: "set-a", Cost: 1, Effects: []task.Fact{{Var: 0, Value: 1}}},
			{Name: "set-b", Cost: 1, Effects: []task.Fact{{Var: 1, Value: 1}}},
		},
		Init:  task.State{0, 0},
		Goals: []task.Fact{{Var: 0, Value: 1}, {Var: 1, Value: 1}},
	}
}

// deadEndTask has a goal and no operators at all.
func deadEndTask() *task.Task {
	return &task.Task{
		Name:      "dead-end",
		Variables: []task.Variable{{Name: "x", DomainSize: 2}},
		Init:      task.State{0},
		Goals:     []task.Fact{{Var: 0, Value: 1}},
	}
}

// newTestGenerator builds a generator with a fixed seed and silent logs.
func newTestGenerator(t *testing.T, tk *task.Task, cfg Config, seed int64) *Generator {
	t.Helper()
	g, err := New(tk, cfg, WithRNG(rand.New(rand.NewSource(seed))))
	require.NoError(t, err)
	return g
}

// checkInvariants asserts the collection bookkeeping invariants that must
// hold after every handle-flaw call and at termination.
//
// A failed merge blacklists a variable without removing it from the
// pattern it already sits in, so blacklist/pattern disjointness is not
// asserted here; what does hold is that blacklisted variables are never
// added to a pattern afterwards.
func checkInvariants(t *testing.T, g *Generator) {
	t.Helper()
	c := g.coll

	sizeSum := 0
	for index, sol := range c.solutions {
		if sol == nil {
			continue
		}
		sizeSum += sol.PDB().Size()

		p := sol.Pattern()
		assert.True(t, sort.IntsAreSorted(p), "pattern %v not sorted", p)
		for i := 1; i < len(p); i++ {
			assert.NotEqual(t, p[i-1], p[i], "pattern %v has duplicates", p)
		}
		for _, v := range p {
			got, ok := c.lookup[v]
			require.True(t, ok, "variable %d of slot %d missing from lookup", v, index)
			assert.Equal(t, index, got, "lookup of variable %d", v)
		}
	}
	assert.Equal(t, sizeSum, c.collectionSize, "collection size out of sync")

	for v, index := range c.lookup {
		require.True(t, c.live(index), "lookup maps %d to tombstoned slot %d", v, index)
		assert.True(t, c.solutions[index].Pattern().Contains(v),
			"lookup maps %d to slot %d whose pattern lacks it", v, index)
	}

	if idx := c.concreteSolutionIndex; idx != -1 {
		require.True(t, c.live(idx), "concrete solution slot %d not live", idx)
		assert.Empty(t, c.blacklist, "concrete solution requires an empty blacklist")
	}
}
