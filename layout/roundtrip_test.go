// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// TestChainOffsetRoundTrip resolves static chains to byte offsets and
// maps the offsets back; both directions must agree on the index path.
func TestChainOffsetRoundTrip(t *testing.T) {
	fx := newChainFixture(t)
	r := fx.resolver(0)

	cases := []struct {
		name string
		path []int64
	}{
		{"scalar member", []int64{0}},
		{"vector member", []int64{1}},
		{"array first", []int64{4, 0}},
		{"array element", []int64{4, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			indices := make([]ir.ValueID, len(tc.path))
			for i, step := range tc.path {
				indices[i] = fx.idx[step]
			}

			chain, err := r.Resolve(fx.data, indices)
			require.NoError(t, err)
			require.Empty(t, chain.Dynamic)

			back, ok := ChainFromOffset(fx.module, fx.structType, chain.Offset, PackingStd430)
			require.True(t, ok, "offset %d has no path", chain.Offset)
			assert.Equal(t, tc.path, back)
		})
	}
}

// TestStrideConsistency pins the relation between a type's size and the
// stride it gets as an array element under each packing standard.
func TestStrideConsistency(t *testing.T) {
	b := ir.NewBuilder()
	scalar := ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	f32 := b.F32()
	vec3 := b.Type("", ir.VectorType{Size: ir.Vec3, Scalar: scalar})
	m := b.Finish()

	for _, p := range []Packing{PackingStd430, PackingStd140, PackingScalar, PackingCbuffer} {
		for _, h := range []ir.TypeHandle{f32, vec3} {
			stride := ArrayStride(m, h, p)
			require.NotZero(t, stride)
			assert.GreaterOrEqual(t, stride, Size(m, h, p), "packing %v", p)
			assert.Zero(t, stride%Alignment(m, h, p), "stride must be aligned under %v", p)
		}
	}
}
