// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPattern(t *testing.T) {
	t.Run("sorts ascending", func(t *testing.T) {
		assert.Equal(t, Pattern{1, 3, 7}, NewPattern(7, 1, 3))
	})

	t.Run("drops duplicates", func(t *testing.T) {
		assert.Equal(t, Pattern{2, 5}, NewPattern(5, 2, 5, 2))
	})

	t.Run("canonicalization is idempotent", func(t *testing.T) {
		p := NewPattern(4, 0, 9)
		assert.Equal(t, p, NewPattern(p...))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, NewPattern())
	})
}

func TestUnion(t *testing.T) {
	assert.Equal(t, Pattern{0, 1, 2, 4}, Union(NewPattern(2, 0), NewPattern(4, 1, 0)))
}

func TestExtend(t *testing.T) {
	p := NewPattern(1, 5)
	assert.Equal(t, Pattern{1, 3, 5}, p.Extend(3))
	assert.Equal(t, Pattern{1, 5}, p, "Extend must not mutate the receiver")
	assert.Equal(t, Pattern{1, 5}, p.Extend(5))
}

func TestContains(t *testing.T) {
	p := NewPattern(1, 4, 6)
	assert.True(t, p.Contains(4))
	assert.False(t, p.Contains(5))
}

func TestEqual(t *testing.T) {
	assert.True(t, NewPattern(3, 1).Equal(NewPattern(1, 3)))
	assert.False(t, NewPattern(1).Equal(NewPattern(1, 3)))
	assert.False(t, NewPattern(1, 2).Equal(NewPattern(1, 3)))
}

func TestPatternString(t *testing.T) {
	assert.Equal(t, "[v0 v2]", NewPattern(2, 0).String())
	assert.Equal(t, "[]", NewPattern().String())
}
