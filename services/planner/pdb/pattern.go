// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pdb implements pattern databases for finite-domain planning
// tasks: projections of a task onto a subset of its variables, complete
// abstract goal-distance tables computed by Dijkstra regression, and
// abstract solutions with optional wildcard plans.
package pdb

import (
	"fmt"
	"sort"
	"strings"
)

// Pattern is a set of task variables defining a projection.
//
// The canonical form is strictly ascending variable IDs. All constructors
// in this package return canonical patterns; canonicalizing a canonical
// pattern is a no-op.
type Pattern []int

// NewPattern returns the canonical pattern over the given variables.
// Duplicates are dropped.
func NewPattern(vars ...int) Pattern {
	p := make(Pattern, len(vars))
	copy(p, vars)
	sort.Ints(p)
	out := p[:0]
	for i, v := range p {
		if i == 0 || v != p[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// Union returns the canonical union of two patterns.
func Union(a, b Pattern) Pattern {
	merged := make([]int, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return NewPattern(merged...)
}

// Extend returns the canonical pattern p ∪ {v}.
func (p Pattern) Extend(v int) Pattern {
	return NewPattern(append(append([]int{}, p...), v)...)
}

// Contains reports whether v is in the pattern.
func (p Pattern) Contains(v int) bool {
	i := sort.SearchInts(p, v)
	return i < len(p) && p[i] == v
}

// Equal reports whether two patterns denote the same variable set.
// Both sides are assumed canonical.
func (p Pattern) Equal(q Pattern) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// String renders the pattern as "[v0 v3 v7]".
func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("v%d", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
