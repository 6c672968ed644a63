// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoVarTask() *Task {
	return &Task{
		Name: "two-var",
		Variables: []Variable{
			{Name: "a", DomainSize: 2},
			{Name: "b", DomainSize: 2},
		},
		Operators: []Operator{
			{
				Name:          "set-a",
				Cost:          1,
				Preconditions: []Fact{{Var: 1, Value: 1}},
				Effects:       []Fact{{Var: 0, Value: 1}},
			},
			{
				Name:    "set-b",
				Cost:    1,
				Effects: []Fact{{Var: 1, Value: 1}},
			},
		},
		Init:  State{0, 0},
		Goals: []Fact{{Var: 0, Value: 1}, {Var: 1, Value: 1}},
	}
}

func TestApplicable(t *testing.T) {
	tk := twoVarTask()

	t.Run("unsatisfied precondition", func(t *testing.T) {
		assert.False(t, tk.Applicable(&tk.Operators[0], State{0, 0}))
	})

	t.Run("satisfied precondition", func(t *testing.T) {
		assert.True(t, tk.Applicable(&tk.Operators[0], State{0, 1}))
	})

	t.Run("empty precondition", func(t *testing.T) {
		assert.True(t, tk.Applicable(&tk.Operators[1], State{0, 0}))
	})
}

func TestApply(t *testing.T) {
	tk := twoVarTask()
	s := State{0, 0}
	succ := tk.Apply(&tk.Operators[1], s)

	assert.Equal(t, State{0, 1}, succ)
	assert.Equal(t, State{0, 0}, s, "Apply must not mutate its input")
}

func TestIsGoalState(t *testing.T) {
	tk := twoVarTask()

	assert.False(t, tk.IsGoalState(State{0, 0}))
	assert.False(t, tk.IsGoalState(State{1, 0}))
	assert.True(t, tk.IsGoalState(State{1, 1}))
}

func TestGoalValue(t *testing.T) {
	tk := twoVarTask()

	val, ok := tk.GoalValue(0)
	require.True(t, ok)
	assert.Equal(t, 1, val)

	_, ok = (&Task{
		Variables: tk.Variables,
		Goals:     []Fact{{Var: 0, Value: 1}},
	}).GoalValue(1)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	t.Run("valid task", func(t *testing.T) {
		assert.NoError(t, twoVarTask().Validate())
	})

	t.Run("init wrong length", func(t *testing.T) {
		tk := twoVarTask()
		tk.Init = State{0}
		assert.Error(t, tk.Validate())
	})

	t.Run("init out of domain", func(t *testing.T) {
		tk := twoVarTask()
		tk.Init = State{0, 5}
		assert.Error(t, tk.Validate())
	})

	t.Run("goal variable out of range", func(t *testing.T) {
		tk := twoVarTask()
		tk.Goals = append(tk.Goals, Fact{Var: 9, Value: 0})
		assert.Error(t, tk.Validate())
	})

	t.Run("duplicate goal variable", func(t *testing.T) {
		tk := twoVarTask()
		tk.Goals = append(tk.Goals, Fact{Var: 0, Value: 0})
		assert.Error(t, tk.Validate())
	})

	t.Run("operator fact out of domain", func(t *testing.T) {
		tk := twoVarTask()
		tk.Operators[0].Effects[0].Value = 7
		assert.Error(t, tk.Validate())
	})
}
