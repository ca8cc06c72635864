// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"strings"
	"testing"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

func structModule(members []ir.StructMember, extra ...ir.Type) (*ir.Module, ir.TypeHandle) {
	f32 := ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	types := []ir.Type{
		{Inner: f32},
		{Inner: ir.VectorType{Size: ir.Vec4, Scalar: f32}},
	}
	types = append(types, extra...)
	types = append(types, ir.Type{Inner: ir.StructType{Members: members}})
	return &ir.Module{Types: types}, ir.TypeHandle(len(types) - 1)
}

func TestIsLayoutCompliantOK(t *testing.T) {
	m, st := structModule([]ir.StructMember{
		{Name: "a", Type: 0, Offset: 0},
		{Name: "v", Type: 1, Offset: 16},
	})

	c := IsLayoutCompliant(m, st, PackingStd430)
	if !c.OK {
		t.Fatalf("compliant struct rejected: member %d, %s", c.Member, c.Reason)
	}
	if c.Member != -1 {
		t.Errorf("member = %d, want -1", c.Member)
	}
}

func TestIsLayoutCompliantMisaligned(t *testing.T) {
	m, st := structModule([]ir.StructMember{
		{Name: "a", Type: 0, Offset: 0},
		{Name: "v", Type: 1, Offset: 4},
	})

	c := IsLayoutCompliant(m, st, PackingStd430)
	if c.OK {
		t.Fatal("misaligned vec4 accepted")
	}
	if c.Member != 1 {
		t.Errorf("member = %d, want 1", c.Member)
	}
	if !strings.Contains(c.Reason, "below required") {
		t.Errorf("reason = %q, want offset-below-required", c.Reason)
	}
}

func TestIsLayoutCompliantPaddedOffsetAllowed(t *testing.T) {
	// Explicit padding beyond the minimum is legal as long as alignment
	// holds.
	m, st := structModule([]ir.StructMember{
		{Name: "a", Type: 0, Offset: 0},
		{Name: "v", Type: 1, Offset: 32},
	})

	if c := IsLayoutCompliant(m, st, PackingStd430); !c.OK {
		t.Fatalf("padded struct rejected: %s", c.Reason)
	}
}

func TestIsLayoutCompliantArrayStride(t *testing.T) {
	four := uint32(4)
	m, st := structModule(
		[]ir.StructMember{
			{Name: "arr", Type: 2, Offset: 0},
		},
		ir.Type{Inner: ir.ArrayType{Base: 0, Size: ir.ArraySize{Constant: &four}, Stride: 4}},
	)

	if c := IsLayoutCompliant(m, st, PackingStd430); !c.OK {
		t.Fatalf("std430 stride 4 rejected: %s", c.Reason)
	}

	c := IsLayoutCompliant(m, st, PackingStd140)
	if c.OK {
		t.Fatal("std140 accepted a 4-byte array stride, requires 16")
	}
	if !strings.Contains(c.Reason, "stride") {
		t.Errorf("reason = %q, want stride mismatch", c.Reason)
	}
}

func TestIsLayoutCompliantMatrixStride(t *testing.T) {
	m, st := structModule(
		[]ir.StructMember{
			{Name: "m", Type: 2, Offset: 0, MatrixStride: 8},
		},
		ir.Type{Inner: ir.MatrixType{Columns: 4, Rows: 4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}}},
	)

	c := IsLayoutCompliant(m, st, PackingStd430)
	if c.OK {
		t.Fatal("mat4 with declared stride 8 accepted, requires 16")
	}
	if c.Member != 0 || !strings.Contains(c.Reason, "matrix stride") {
		t.Errorf("member %d reason %q, want matrix stride mismatch on member 0", c.Member, c.Reason)
	}
}

func TestIsLayoutCompliantTrailingRuntimeArray(t *testing.T) {
	m, st := structModule(
		[]ir.StructMember{
			{Name: "n", Type: 0, Offset: 0},
			{Name: "tail", Type: 2, Offset: 4},
		},
		ir.Type{Inner: ir.ArrayType{Base: 0, Stride: 4}},
	)

	if c := IsLayoutCompliant(m, st, PackingStd430); !c.OK {
		t.Fatalf("trailing runtime array rejected: %s", c.Reason)
	}
}

func TestIsLayoutCompliantNotAStruct(t *testing.T) {
	m, _ := structModule(nil)
	if c := IsLayoutCompliant(m, 0, PackingStd430); c.OK {
		t.Fatal("scalar handle accepted as struct")
	}
}
