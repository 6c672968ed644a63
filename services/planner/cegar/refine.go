// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cegar

import (
	"context"

	"github.com/AleutianAI/AleutianPlan/services/planner/pdb"
)

// refine picks one flaw uniformly at random and repairs it; the remaining
// flaws of the pass are discarded. Exactly one RNG sample is consumed.
func (g *Generator) refine(ctx context.Context, flaws []flaw) {
	f := flaws[g.rng.Intn(len(flaws))]
	if g.cfg.Verbosity >= VerbosityVerbose {
		g.logger.Debug("chosen flaw",
			"pattern", g.coll.solutions[f.solutionIndex].Pattern().String(),
			"variable", g.task.Variables[f.variable].Name)
	}
	g.handleFlaw(ctx, f)
}

// handleFlaw repairs a single flaw.
//
// If the variable already sits in another pattern, the two patterns are
// merged when budgets allow. If it sits in no pattern, it is added to the
// flawed pattern when budgets allow; note that a goal variable is likewise
// added to the flawed pattern rather than opening a new singleton. When
// neither repair fits the budgets, the variable is blacklisted.
func (g *Generator) handleFlaw(ctx context.Context, f flaw) {
	index := f.solutionIndex
	v := f.variable
	verbose := g.cfg.Verbosity >= VerbosityVerbose

	if other, ok := g.coll.lookup[v]; ok {
		// Merging a slot with itself is meaningless, so a flaw on a
		// variable of the flawed pattern itself falls through to
		// blacklisting.
		if other != index && g.canMerge(index, other) {
			if verbose {
				g.logger.Debug("merging patterns",
					"into", g.coll.solutions[index].Pattern().String(),
					"absorbed", g.coll.solutions[other].Pattern().String())
			}
			g.mergePatterns(index, other)
			addCount(ctx, mergesTotal, 1)
			return
		}
	} else {
		if g.canAddVariable(index, v) {
			if verbose {
				g.logger.Debug("adding variable to pattern",
					"pattern", g.coll.solutions[index].Pattern().String(),
					"variable", g.task.Variables[v].Name)
			}
			g.addVariableToPattern(index, v)
			addCount(ctx, variableAddsTotal, 1)
			return
		}
	}

	if verbose {
		g.logger.Debug("size limits forbid growing, blacklisting",
			"variable", g.task.Variables[v].Name)
	}
	g.coll.blacklistVar(v)
	addCount(ctx, blacklistTotal, 1)
}

// mergePatterns absorbs the pattern at index2 into the one at index1,
// rebuilding a single solution over the canonical union and tombstoning
// index2.
func (g *Generator) mergePatterns(index1, index2 int) {
	union := pdb.Union(
		g.coll.solutions[index1].Pattern(),
		g.coll.solutions[index2].Pattern())
	merged := pdb.NewSolution(g.task, union, g.rng, g.cfg.WildcardPlans)
	g.coll.absorb(index1, index2, merged)
}

// addVariableToPattern rebuilds the slot's solution over pattern ∪ {v} and
// drops v from the goal worklist if present.
func (g *Generator) addVariableToPattern(index, v int) {
	extended := g.coll.solutions[index].Pattern().Extend(v)
	sol := pdb.NewSolution(g.task, extended, g.rng, g.cfg.WildcardPlans)
	g.coll.replaceSolution(index, sol)
	g.coll.removeGoal(v)
}

// addPatternForVar seeds a new singleton pattern. Used only during initial
// collection construction, which is exempt from the size budgets.
func (g *Generator) addPatternForVar(v int) {
	sol := pdb.NewSolution(g.task, pdb.NewPattern(v), g.rng, g.cfg.WildcardPlans)
	g.coll.addSolution(sol)
}
