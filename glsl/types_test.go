// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"testing"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

func TestTypeName(t *testing.T) {
	b := ir.NewBuilder()

	f32 := ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	f64 := ir.ScalarType{Kind: ir.ScalarFloat, Width: 8}
	i32 := ir.ScalarType{Kind: ir.ScalarSint, Width: 4}
	u32 := ir.ScalarType{Kind: ir.ScalarUint, Width: 4}

	four := uint32(4)

	handles := map[string]ir.TypeHandle{
		"float":     b.F32(),
		"int":       b.I32(),
		"uint":      b.U32(),
		"bool":      b.BoolType(),
		"double":    b.Type("", f64),
		"float16_t": b.Type("", ir.ScalarType{Kind: ir.ScalarFloat, Width: 2}),
		"vec4":      b.Type("", ir.VectorType{Size: ir.Vec4, Scalar: f32}),
		"ivec3":     b.Type("", ir.VectorType{Size: ir.Vec3, Scalar: i32}),
		"uvec2":     b.Type("", ir.VectorType{Size: ir.Vec2, Scalar: u32}),
		"bvec2":     b.Type("", ir.VectorType{Size: ir.Vec2, Scalar: ir.ScalarType{Kind: ir.ScalarBool, Width: 1}}),
		"dvec3":     b.Type("", ir.VectorType{Size: ir.Vec3, Scalar: f64}),
		"mat4":      b.Type("", ir.MatrixType{Columns: ir.Vec4, Rows: ir.Vec4, Scalar: f32}),
		"mat3x2":    b.Type("", ir.MatrixType{Columns: ir.Vec3, Rows: ir.Vec2, Scalar: f32}),
		"dmat2":     b.Type("", ir.MatrixType{Columns: ir.Vec2, Rows: ir.Vec2, Scalar: f64}),
	}
	handles["float[4]"] = b.Type("", ir.ArrayType{Base: handles["float"], Size: ir.ArraySize{Constant: &four}, Stride: 4})
	handles["vec4[]"] = b.Type("", ir.ArrayType{Base: handles["vec4"], Stride: 16})
	handles["pointer"] = b.Type("", ir.PointerType{Base: handles["vec4"], Space: ir.SpaceFunction})

	w := NewWriter(ir.NewRegistry(b.Finish()), Options{})

	for want, h := range handles {
		name := want
		if want == "pointer" {
			name = "vec4" // pointers spell as their pointee
		}
		if got := w.TypeName(h); got != name {
			t.Errorf("TypeName(%s) = %q, want %q", want, got, name)
		}
	}
}

func TestTypeNameNamedStruct(t *testing.T) {
	b := ir.NewBuilder()
	st := b.Type("Vertex", ir.StructType{
		Members: []ir.StructMember{{Name: "x", Type: b.F32(), Offset: 0}},
		Span:    4,
	})

	w := NewWriter(ir.NewRegistry(b.Finish()), Options{})
	if got := w.TypeName(st); got != "Vertex" {
		t.Errorf("TypeName = %q, want Vertex", got)
	}
}
