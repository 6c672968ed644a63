// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cegar

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for the generator.
var (
	tracer = otel.Tracer("aleutian.planner.cegar")
	meter  = otel.Meter("aleutian.planner.cegar")
)

// Metrics for generator runs.
var (
	refinementsTotal   metric.Int64Counter
	flawsDetectedTotal metric.Int64Counter
	mergesTotal        metric.Int64Counter
	variableAddsTotal  metric.Int64Counter
	blacklistTotal     metric.Int64Counter
	generationDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		refinementsTotal, err = meter.Int64Counter(
			"planner_cegar_refinements_total",
			metric.WithDescription("Total refinement iterations across generator runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		flawsDetectedTotal, err = meter.Int64Counter(
			"planner_cegar_flaws_total",
			metric.WithDescription("Total flaws produced by detection passes"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		mergesTotal, err = meter.Int64Counter(
			"planner_cegar_merges_total",
			metric.WithDescription("Total pattern merges"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		variableAddsTotal, err = meter.Int64Counter(
			"planner_cegar_variable_adds_total",
			metric.WithDescription("Total variables added to existing patterns"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		blacklistTotal, err = meter.Int64Counter(
			"planner_cegar_blacklistings_total",
			metric.WithDescription("Total variables blacklisted after non-actionable flaws"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		generationDuration, err = meter.Float64Histogram(
			"planner_cegar_generation_duration_seconds",
			metric.WithDescription("Wall-clock duration of Generate calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// addCount records n on a counter, tolerating failed metric initialization.
func addCount(ctx context.Context, c metric.Int64Counter, n int64) {
	if c != nil {
		c.Add(ctx, n)
	}
}
