// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pdb

import (
	"github.com/AleutianAI/AleutianPlan/services/planner/task"
)

// AbstractOperator is a task operator restricted to a pattern.
//
// Precondition and effect facts use *positions into the pattern*, not task
// variable IDs. ConcreteID maps back into the original operator table.
type AbstractOperator struct {
	ConcreteID    int
	Cost          int
	Preconditions []task.Fact
	Effects       []task.Fact
}

// Projection is the abstraction of a task induced by a pattern.
//
// Abstract states are ranked into 0..Size()-1 by a mixed-radix encoding
// over the pattern variables, which makes the distance table a flat slice.
//
// Thread Safety: immutable after construction.
type Projection struct {
	task    *task.Task
	pattern Pattern

	// multipliers[i] is the stride of pattern position i in the ranking.
	multipliers []int
	// domains[i] caches the domain size of pattern[i].
	domains []int
	size    int

	operators []AbstractOperator

	// goals are the task's goal facts on pattern variables, expressed in
	// pattern positions. Empty means every abstract state is a goal.
	goals []task.Fact
}

// NewProjection projects t onto the given canonical pattern.
//
// Operators without any effect on a pattern variable are dropped; the
// surviving operators keep their concrete operator ID for translation back
// to the task.
func NewProjection(t *task.Task, pattern Pattern) *Projection {
	pos := make(map[int]int, len(pattern))
	for i, v := range pattern {
		pos[v] = i
	}

	p := &Projection{
		task:        t,
		pattern:     pattern,
		multipliers: make([]int, len(pattern)),
		domains:     make([]int, len(pattern)),
		size:        1,
	}
	for i, v := range pattern {
		p.multipliers[i] = p.size
		p.domains[i] = t.DomainSize(v)
		p.size *= t.DomainSize(v)
	}

	for opID := range t.Operators {
		op := &t.Operators[opID]
		var abs AbstractOperator
		for _, eff := range op.Effects {
			if i, ok := pos[eff.Var]; ok {
				abs.Effects = append(abs.Effects, task.Fact{Var: i, Value: eff.Value})
			}
		}
		if len(abs.Effects) == 0 {
			continue
		}
		for _, pre := range op.Preconditions {
			if i, ok := pos[pre.Var]; ok {
				abs.Preconditions = append(abs.Preconditions, task.Fact{Var: i, Value: pre.Value})
			}
		}
		abs.ConcreteID = opID
		abs.Cost = op.Cost
		p.operators = append(p.operators, abs)
	}

	for _, g := range t.Goals {
		if i, ok := pos[g.Var]; ok {
			p.goals = append(p.goals, task.Fact{Var: i, Value: g.Value})
		}
	}

	return p
}

// Pattern returns the projection's pattern.
func (p *Projection) Pattern() Pattern { return p.pattern }

// Size returns the number of abstract states: the product of the domain
// sizes of the pattern variables.
func (p *Projection) Size() int { return p.size }

// Operators returns the projected operator table. Indices into the returned
// slice are the abstract operator IDs used by plans.
func (p *Projection) Operators() []AbstractOperator { return p.operators }

// ConcreteOperator maps an abstract operator ID back to its concrete
// operator ID in the task.
func (p *Projection) ConcreteOperator(absOp int) int {
	return p.operators[absOp].ConcreteID
}

// RankState ranks the projection of a concrete state.
func (p *Projection) RankState(s task.State) int {
	r := 0
	for i, v := range p.pattern {
		r += p.multipliers[i] * s[v]
	}
	return r
}

// Rank ranks an abstract value assignment (indexed by pattern position).
func (p *Projection) Rank(values []int) int {
	r := 0
	for i, val := range values {
		r += p.multipliers[i] * val
	}
	return r
}

// Unrank decodes a rank into abstract values, one per pattern position.
func (p *Projection) Unrank(rank int) []int {
	values := make([]int, len(p.pattern))
	for i := range p.pattern {
		values[i] = (rank / p.multipliers[i]) % p.domains[i]
	}
	return values
}

// valueAt extracts the value of pattern position i from a rank without
// decoding the whole state.
func (p *Projection) valueAt(rank, i int) int {
	return (rank / p.multipliers[i]) % p.domains[i]
}

// isAbstractGoal reports whether the ranked state satisfies the projected
// goal facts.
func (p *Projection) isAbstractGoal(rank int) bool {
	for _, g := range p.goals {
		if p.valueAt(rank, g.Var) != g.Value {
			return false
		}
	}
	return true
}

// applicable reports whether the abstract operator's preconditions hold in
// the abstract assignment.
func (p *Projection) applicable(op *AbstractOperator, values []int) bool {
	for _, pre := range op.Preconditions {
		if values[pre.Var] != pre.Value {
			return false
		}
	}
	return true
}

// apply writes the abstract operator's effects onto a copy of values.
func (p *Projection) apply(op *AbstractOperator, values []int) []int {
	succ := make([]int, len(values))
	copy(succ, values)
	for _, eff := range op.Effects {
		succ[eff.Var] = eff.Value
	}
	return succ
}
