// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/pkg/logging"
	"github.com/AleutianAI/AleutianPlan/services/planner/cegar"
)

func defaultGenerateFlags() generateFlags {
	return generateFlags{
		taskFile:          "task.yaml",
		maxRefinements:    -1,
		maxPDBSize:        1000000,
		maxCollectionSize: -1,
		wildcardPlans:     true,
		initial:           "ALL_GOALS",
		givenGoal:         -1,
		verbosity:         "NORMAL",
	}
}

func TestBuildConfig(t *testing.T) {
	t.Run("defaults map to unlimited budgets", func(t *testing.T) {
		cfg, err := buildConfig(defaultGenerateFlags())
		require.NoError(t, err)

		assert.Equal(t, cegar.Unlimited, cfg.MaxRefinements)
		assert.Equal(t, cegar.Unlimited, cfg.MaxCollectionSize)
		assert.Equal(t, 1000000, cfg.MaxPDBSize)
		assert.Equal(t, cegar.UnlimitedTime, cfg.MaxTime)
		assert.Equal(t, cegar.InitialAllGoals, cfg.Initial)
		assert.Equal(t, cegar.VerbosityNormal, cfg.Verbosity)
		assert.True(t, cfg.WildcardPlans)
	})

	t.Run("explicit budgets pass through", func(t *testing.T) {
		fl := defaultGenerateFlags()
		fl.maxRefinements = 7
		fl.maxCollectionSize = 500
		fl.maxTime = 3 * time.Second
		cfg, err := buildConfig(fl)
		require.NoError(t, err)

		assert.Equal(t, 7, cfg.MaxRefinements)
		assert.Equal(t, 500, cfg.MaxCollectionSize)
		assert.Equal(t, 3*time.Second, cfg.MaxTime)
	})

	t.Run("blacklist all overrides the count", func(t *testing.T) {
		fl := defaultGenerateFlags()
		fl.globalBlacklistSize = 3
		fl.blacklistAll = true
		cfg, err := buildConfig(fl)
		require.NoError(t, err)

		assert.Equal(t, cegar.Unlimited, cfg.GlobalBlacklistSize)
	})

	t.Run("given goal mode", func(t *testing.T) {
		fl := defaultGenerateFlags()
		fl.initial = "GIVEN_GOAL"
		fl.givenGoal = 2
		cfg, err := buildConfig(fl)
		require.NoError(t, err)

		assert.Equal(t, cegar.InitialGivenGoal, cfg.Initial)
		assert.Equal(t, 2, cfg.GivenGoal)
	})

	t.Run("rejects unknown initial mode", func(t *testing.T) {
		fl := defaultGenerateFlags()
		fl.initial = "SOME_GOALS"
		_, err := buildConfig(fl)
		assert.Error(t, err)
	})

	t.Run("rejects unknown verbosity", func(t *testing.T) {
		fl := defaultGenerateFlags()
		fl.verbosity = "LOUD"
		_, err := buildConfig(fl)
		assert.Error(t, err)
	})

	t.Run("rejects GIVEN_GOAL without a goal", func(t *testing.T) {
		fl := defaultGenerateFlags()
		fl.initial = "GIVEN_GOAL"
		_, err := buildConfig(fl)
		assert.Error(t, err)
	})
}

func TestLoggerLevel(t *testing.T) {
	assert.Equal(t, logging.LevelError, loggerLevel(cegar.VerbositySilent))
	assert.Equal(t, logging.LevelInfo, loggerLevel(cegar.VerbosityNormal))
	assert.Equal(t, logging.LevelDebug, loggerLevel(cegar.VerbosityVerbose))
}
