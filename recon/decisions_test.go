// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionsAccumulate(t *testing.T) {
	d := NewDecisions()
	require.Equal(t, 0, d.Count())

	d.ForceTemp(7)
	d.MarkComplex(3)
	d.MarkInlineContinue(3)
	assert.Equal(t, 3, d.Count())

	assert.True(t, d.IsForcedTemp(7))
	assert.False(t, d.IsForcedTemp(8))
	assert.True(t, d.IsComplex(3))
	assert.False(t, d.IsComplex(4))
	assert.True(t, d.IsInlineContinue(3))
}

func TestDecisionsIdempotent(t *testing.T) {
	d := NewDecisions()

	d.ForceTemp(7)
	d.ForceTemp(7)
	d.MarkComplex(3)
	d.MarkComplex(3)

	assert.Equal(t, 2, d.Count())
	assert.Len(t, d.Trail(), 2)
}

func TestDecisionsTrailOrder(t *testing.T) {
	d := NewDecisions()

	d.MarkComplex(2)
	d.ForceTemp(9)
	d.MarkInlineContinue(2)

	require.Len(t, d.Trail(), 3)
	assert.Equal(t, "complex loop header 2", d.Trail()[0])
	assert.Equal(t, "force-temp value 9", d.Trail()[1])
	assert.Equal(t, "inline continue for loop header 2", d.Trail()[2])
}
