// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"testing"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// chainFixture is a storage struct with a vector, both matrix storage
// orders, and a small array, plus one dynamic index value.
type chainFixture struct {
	module *ir.Module
	reg    *ir.Registry

	structType ir.TypeHandle
	data       ir.VarID
	dynamic    ir.ValueID

	idx [5]ir.ValueID // constants 0..4
}

func newChainFixture(t *testing.T) *chainFixture {
	t.Helper()

	b := ir.NewBuilder()
	f32 := b.F32()
	scalar := ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	vec4 := b.Type("", ir.VectorType{Size: ir.Vec4, Scalar: scalar})
	mat4 := b.Type("", ir.MatrixType{Columns: 4, Rows: 4, Scalar: scalar})
	four := uint32(4)
	arr := b.Type("", ir.ArrayType{Base: f32, Size: ir.ArraySize{Constant: &four}, Stride: 4})
	st := b.Type("Data", ir.StructType{
		Span: 176,
		Members: []ir.StructMember{
			{Name: "a", Type: f32, Offset: 0},
			{Name: "v", Type: vec4, Offset: 16},
			{Name: "m", Type: mat4, Offset: 32, MatrixStride: 16},
			{Name: "mr", Type: mat4, Offset: 96, MatrixStride: 16, RowMajor: true},
			{Name: "tail", Type: arr, Offset: 160},
		},
	})

	fx := &chainFixture{structType: st}
	fx.data = b.Variable("data", st, ir.SpaceStorage)

	fn := b.Function("main", nil)
	fx.dynamic = fn.Param("i", b.I32())
	for i := range fx.idx {
		fx.idx[i] = b.Int32(int32(i))
	}

	fx.module = b.Finish()
	fx.reg = ir.NewRegistry(fx.module)
	return fx
}

func (fx *chainFixture) resolver(minUnit uint32) *Resolver {
	return &Resolver{Registry: fx.reg, Packing: PackingStd430, MinUnit: minUnit}
}

func TestResolveColumnMajorMatrix(t *testing.T) {
	fx := newChainFixture(t)

	// data.m[1].z: 32 + 1*16 + 2*4.
	chain, err := fx.resolver(0).Resolve(fx.data, []ir.ValueID{fx.idx[2], fx.idx[1], fx.idx[2]})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if chain.Offset != 56 {
		t.Errorf("offset = %d, want 56", chain.Offset)
	}
	if chain.RowMajor {
		t.Error("column-major chain reported row-major")
	}
	if !chain.Terminal {
		t.Error("scalar-terminated chain not marked terminal")
	}
	if chain.MatrixStride != 16 {
		t.Errorf("matrix stride = %d, want 16", chain.MatrixStride)
	}
	if len(chain.Dynamic) != 0 {
		t.Errorf("unexpected dynamic terms: %v", chain.Dynamic)
	}
}

func TestResolveRowMajorMatrix(t *testing.T) {
	fx := newChainFixture(t)

	// data.mr[1].z under transposed storage: the column step advances by
	// the scalar width and the component step by the matrix stride.
	chain, err := fx.resolver(0).Resolve(fx.data, []ir.ValueID{fx.idx[3], fx.idx[1], fx.idx[2]})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if want := uint32(96 + 1*4 + 2*16); chain.Offset != want {
		t.Errorf("offset = %d, want %d", chain.Offset, want)
	}
	if !chain.RowMajor {
		t.Error("transposed-storage chain lost its row-major flag")
	}
}

func TestResolveDynamicArrayIndex(t *testing.T) {
	fx := newChainFixture(t)

	chain, err := fx.resolver(0).Resolve(fx.data, []ir.ValueID{fx.idx[4], fx.dynamic})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if chain.Offset != 160 {
		t.Errorf("offset = %d, want 160", chain.Offset)
	}
	if len(chain.Dynamic) != 1 || chain.Dynamic[0].Stride != 4 {
		t.Fatalf("dynamic terms = %v, want one term with stride 4", chain.Dynamic)
	}
	if chain.ArrayStride != 4 {
		t.Errorf("array stride = %d, want 4", chain.ArrayStride)
	}
	if len(chain.Path) != 2 || chain.Path[0] != 4 || chain.Path[1] != -1 {
		t.Errorf("path = %v, want [4 -1]", chain.Path)
	}
}

func TestResolveMinUnitRejectsNarrowStride(t *testing.T) {
	fx := newChainFixture(t)

	_, err := fx.resolver(16).Resolve(fx.data, []ir.ValueID{fx.idx[4], fx.dynamic})
	if err == nil {
		t.Fatal("expected unsupported-construct error for 4-byte dynamic stride under 16-byte unit")
	}
	if !ir.IsUnsupported(err) {
		t.Errorf("error kind = %v, want UnsupportedConstruct", err)
	}
}

func TestResolveConstantIndicesInBounds(t *testing.T) {
	fx := newChainFixture(t)

	tests := []struct {
		name    string
		indices []ir.ValueID
	}{
		{"array_index_past_end", []ir.ValueID{fx.idx[4], fx.idx[4]}},
		{"member_past_end", []ir.ValueID{fx.idx[1], fx.idx[4]}},
		{"scalar_subdivided", []ir.ValueID{fx.idx[0], fx.idx[0]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fx.resolver(0).Resolve(fx.data, tt.indices); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolveDynamicStructMemberRejected(t *testing.T) {
	fx := newChainFixture(t)

	_, err := fx.resolver(0).Resolve(fx.data, []ir.ValueID{fx.dynamic})
	if err == nil {
		t.Fatal("expected error for non-constant struct member index")
	}
	if !ir.IsUnsupported(err) {
		t.Errorf("error kind = %v, want UnsupportedConstruct", err)
	}
}

func TestChainFromOffset(t *testing.T) {
	fx := newChainFixture(t)

	tests := []struct {
		name   string
		offset uint32
		path   []int64
		ok     bool
	}{
		{"first_member", 0, []int64{0}, true},
		{"vector_member", 16, []int64{1}, true},
		{"array_element", 168, []int64{4, 2}, true},
		{"padding_hole", 4, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := ChainFromOffset(fx.module, fx.structType, tt.offset, PackingStd430)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if len(path) != len(tt.path) {
				t.Fatalf("path = %v, want %v", path, tt.path)
			}
			for i := range path {
				if path[i] != tt.path[i] {
					t.Fatalf("path = %v, want %v", path, tt.path)
				}
			}
		})
	}
}
