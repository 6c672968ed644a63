// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cegar

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianPlan/services/planner/pdb"
	"github.com/AleutianAI/AleutianPlan/services/planner/task"
)

// Plan is a concrete plan discovered during refinement: per step, the
// concrete operator IDs of the step's equivalence class.
type Plan struct {
	Steps [][]int
	Cost  int
}

// Length returns the number of plan steps.
func (p *Plan) Length() int { return len(p.Steps) }

// Result is the outcome of a Generate call.
//
// Databases are shared with the caller; they stay valid after the
// generator is gone. When Plan is non-nil the concrete task was solved
// during refinement and the collection holds exactly the solving pattern.
type Result struct {
	Patterns  []pdb.Pattern
	Databases []*pdb.Database
	Plan      *Plan

	// Refinements is the number of refinement iterations performed.
	Refinements int

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Generator runs the CEGAR refinement loop for one task.
//
// Thread Safety: not safe for concurrent use. A Generate call consumes RNG
// samples in a fixed order (goal shuffle, blacklist shuffle, plan
// tie-breaks, flaw selections), so determinism requires the RNG not be
// shared with concurrent consumers during the call.
type Generator struct {
	task   *task.Task
	cfg    Config
	rng    *rand.Rand
	logger *slog.Logger

	coll *collection
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithRNG sets the random number generator. Defaults to a generator seeded
// from the current time; pass an explicitly seeded RNG for reproducible
// runs.
func WithRNG(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// New validates cfg and prepares a generator for t.
func New(t *task.Task, cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cegar config: %w", err)
	}
	g := &Generator{
		task:   t,
		cfg:    cfg,
		logger: slog.Default(),
		coll:   newCollection(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if err := initMetrics(); err != nil {
		g.logger.Warn("metrics disabled", "error", err)
	}
	return g, nil
}

// countdownTimer tracks the wall-clock budget of one run.
type countdownTimer struct {
	start    time.Time
	deadline time.Time
	infinite bool
}

func newCountdownTimer(budget time.Duration) *countdownTimer {
	t := &countdownTimer{start: time.Now()}
	if budget == UnlimitedTime {
		t.infinite = true
	} else {
		t.deadline = t.start.Add(budget)
	}
	return t
}

func (t *countdownTimer) expired() bool {
	return !t.infinite && !time.Now().Before(t.deadline)
}

func (t *countdownTimer) elapsed() time.Duration {
	return time.Since(t.start)
}

// Generate runs the refinement loop and returns the final collection.
//
// The two sentinel failures are ErrInvalidGoalVariable (before the loop
// starts) and ErrTaskUnsolvable (a live pattern has no abstract plan).
// Exhausting a budget (refinement cap, wall clock, ctx cancellation) is
// not an error; the collection built so far is returned.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "cegar.Generate")
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.String("task", g.task.Name),
	)
	defer span.End()

	logger := g.logger.With("run_id", runID)
	g.logger = logger

	timer := newCountdownTimer(g.cfg.MaxTime)
	defer func() {
		if generationDuration != nil {
			generationDuration.Record(ctx, timer.elapsed().Seconds())
		}
	}()

	if err := g.seedGoalsAndBlacklist(); err != nil {
		return nil, err
	}
	g.seedInitialCollection()

	refinementCounter := 0
	for !g.terminationConditionsMet(ctx, timer, refinementCounter) {
		if g.cfg.Verbosity >= VerbosityVerbose {
			logger.Debug("iteration", "n", refinementCounter+1)
		}

		flaws, err := g.getFlaws()
		if err != nil {
			return nil, err
		}
		addCount(ctx, flawsDetectedTotal, int64(len(flaws)))

		if len(flaws) == 0 {
			if g.coll.concreteSolutionIndex != -1 {
				g.reportConcreteSolution()
			} else if g.cfg.Verbosity >= VerbosityNormal {
				logger.Info("flaw list empty, no further refinements possible")
			}
			break
		}

		if g.timeLimitReached(timer) || ctx.Err() != nil {
			break
		}

		g.refine(ctx, flaws)
		refinementCounter++
		addCount(ctx, refinementsTotal, 1)

		if g.cfg.Verbosity >= VerbosityVerbose {
			logger.Debug("collection state",
				"size", g.coll.collectionSize,
				"patterns", patternsString(g.coll.livePatterns()))
		}
	}

	result := g.buildResult(refinementCounter, timer)

	if g.cfg.Verbosity >= VerbosityNormal {
		logger.Info("generation finished",
			"elapsed", result.Elapsed,
			"iterations", result.Refinements,
			"patterns", patternsString(result.Patterns),
			"num_patterns", len(result.Patterns),
			"summed_pdb_sizes", g.coll.collectionSize)
	}
	return result, nil
}

// seedGoalsAndBlacklist fills the goal worklist in shuffled order and draws
// the configured number of non-goal variables into the blacklist.
//
// RNG order is part of the determinism contract: the goal shuffle comes
// first, then the non-goal shuffle, both before any solution is built.
func (g *Generator) seedGoalsAndBlacklist() error {
	if g.cfg.GivenGoal >= g.task.NumVariables() {
		return fmt.Errorf("variable %d out of range of task's variables: %w",
			g.cfg.GivenGoal, ErrInvalidGoalVariable)
	}

	goalSet := make(map[int]struct{}, len(g.task.Goals))
	foundGivenGoal := false
	for _, goal := range g.task.Goals {
		g.coll.remainingGoals = append(g.coll.remainingGoals, goal.Var)
		goalSet[goal.Var] = struct{}{}
		if g.cfg.GivenGoal != -1 && goal.Var == g.cfg.GivenGoal {
			foundGivenGoal = true
		}
	}
	if g.cfg.GivenGoal != -1 && !foundGivenGoal {
		return fmt.Errorf("variable %d is not a goal variable: %w",
			g.cfg.GivenGoal, ErrInvalidGoalVariable)
	}

	g.rng.Shuffle(len(g.coll.remainingGoals), func(i, j int) {
		goals := g.coll.remainingGoals
		goals[i], goals[j] = goals[j], goals[i]
	})

	if g.cfg.GlobalBlacklistSize > 0 {
		var nongoals []int
		for v := 0; v < g.task.NumVariables(); v++ {
			if _, isGoal := goalSet[v]; !isGoal {
				nongoals = append(nongoals, v)
			}
		}
		g.rng.Shuffle(len(nongoals), func(i, j int) {
			nongoals[i], nongoals[j] = nongoals[j], nongoals[i]
		})
		n := g.cfg.GlobalBlacklistSize
		if n > len(nongoals) {
			n = len(nongoals)
		}
		for _, v := range nongoals[:n] {
			if g.cfg.Verbosity >= VerbosityVerbose {
				g.logger.Debug("blacklisting variable", "variable", g.task.Variables[v].Name)
			}
			g.coll.blacklistVar(v)
		}
	}
	return nil
}

// seedInitialCollection installs the trivial singleton patterns selected by
// the configured mode. Seeding bypasses the size budgets.
func (g *Generator) seedInitialCollection() {
	switch g.cfg.Initial {
	case InitialGivenGoal:
		g.coll.removeGoal(g.cfg.GivenGoal)
		g.addPatternForVar(g.cfg.GivenGoal)
	case InitialRandomGoal:
		last := len(g.coll.remainingGoals) - 1
		v := g.coll.remainingGoals[last]
		g.coll.remainingGoals = g.coll.remainingGoals[:last]
		g.addPatternForVar(v)
	case InitialAllGoals:
		for len(g.coll.remainingGoals) > 0 {
			last := len(g.coll.remainingGoals) - 1
			v := g.coll.remainingGoals[last]
			g.coll.remainingGoals = g.coll.remainingGoals[:last]
			g.addPatternForVar(v)
		}
	}

	if g.cfg.Verbosity >= VerbosityVerbose {
		g.logger.Debug("initial collection",
			"patterns", patternsString(g.coll.livePatterns()))
	}
}

func (g *Generator) timeLimitReached(timer *countdownTimer) bool {
	if timer.expired() {
		if g.cfg.Verbosity >= VerbosityNormal {
			g.logger.Info("time limit reached")
		}
		return true
	}
	return false
}

func (g *Generator) terminationConditionsMet(ctx context.Context, timer *countdownTimer, refinementCounter int) bool {
	if g.timeLimitReached(timer) {
		return true
	}
	if ctx.Err() != nil {
		if g.cfg.Verbosity >= VerbosityNormal {
			g.logger.Info("canceled", "reason", ctx.Err())
		}
		return true
	}
	if refinementCounter == g.cfg.MaxRefinements {
		if g.cfg.Verbosity >= VerbosityNormal {
			g.logger.Info("maximum allowed number of refinements reached")
		}
		return true
	}
	return false
}

// reportConcreteSolution logs the plan that solved the concrete task.
func (g *Generator) reportConcreteSolution() {
	if g.cfg.Verbosity < VerbosityNormal {
		return
	}
	sol := g.coll.solutions[g.coll.concreteSolutionIndex]
	g.logger.Info("task solved during computation of abstract solutions",
		"pattern", sol.Pattern().String(),
		"plan_length", len(sol.Plan()),
		"plan_cost", sol.PlanCost())
	if g.cfg.Verbosity >= VerbosityVerbose {
		g.logger.Debug("plan\n" + sol.FormatPlan(g.task))
	}
}

// buildResult assembles the returned collection. When a concrete solution
// was found, only its pattern and PDB are returned together with the plan
// translated to concrete operator IDs.
func (g *Generator) buildResult(refinements int, timer *countdownTimer) *Result {
	result := &Result{
		Refinements: refinements,
		Elapsed:     timer.elapsed(),
	}

	if idx := g.coll.concreteSolutionIndex; idx != -1 {
		sol := g.coll.solutions[idx]
		result.Patterns = append(result.Patterns, sol.Pattern())
		result.Databases = append(result.Databases, sol.PDB())
		plan := &Plan{Cost: sol.PlanCost()}
		for _, step := range sol.Plan() {
			concrete := make([]int, len(step))
			for i, absOp := range step {
				concrete[i] = sol.ConcreteOperator(absOp)
			}
			plan.Steps = append(plan.Steps, concrete)
		}
		result.Plan = plan
		return result
	}

	for _, sol := range g.coll.solutions {
		if sol != nil {
			result.Patterns = append(result.Patterns, sol.Pattern())
			result.Databases = append(result.Databases, sol.PDB())
		}
	}
	return result
}

func patternsString(patterns []pdb.Pattern) string {
	parts := make([]string, len(patterns))
	for i, p := range patterns {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
