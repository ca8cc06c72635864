// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"strings"
	"testing"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/layout"
)

// preambleModule declares one global per address space so the preamble
// exercises every declaration form.
func preambleModule() *ir.Registry {
	b := ir.NewBuilder()
	f32 := b.F32()
	vec4 := b.Type("", ir.VectorType{Size: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}})
	mat4 := b.Type("", ir.MatrixType{Columns: ir.Vec4, Rows: ir.Vec4, Scalar: ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}})

	ubo := b.Type("Params", ir.StructType{
		Members: []ir.StructMember{
			{Name: "mvp", Type: mat4, Offset: 0, MatrixStride: 16},
			{Name: "world", Type: mat4, Offset: 64, MatrixStride: 16, RowMajor: true},
			{Name: "scale", Type: f32, Offset: 128},
		},
		Span: 144,
	})
	ssbo := b.Type("Particles", ir.StructType{
		Members: []ir.StructMember{
			{Name: "positions", Type: b.Type("", ir.ArrayType{Base: vec4, Stride: 16}), Offset: 0},
		},
	})
	push := b.Type("Push", ir.StructType{
		Members: []ir.StructMember{
			{Name: "index", Type: b.I32(), Offset: 0},
		},
		Span: 4,
	})
	plain := b.Type("Light", ir.StructType{
		Members: []ir.StructMember{
			{Name: "dir", Type: vec4, Offset: 0},
			{Name: "color", Type: vec4, Offset: 16},
		},
		Span: 32,
	})

	b.Variable("params", ubo, ir.SpaceUniform)
	b.Variable("particles", ssbo, ir.SpaceStorage)
	b.Variable("pc", push, ir.SpacePushConstant)
	b.Variable("tile", f32, ir.SpaceWorkGroup)
	b.Variable("light", plain, ir.SpacePrivate)

	return ir.NewRegistry(b.Finish())
}

func TestPreambleVersion(t *testing.T) {
	w := NewWriter(preambleModule(), Options{})
	if !strings.HasPrefix(w.String(), "#version 450\n") {
		t.Errorf("missing default version directive:\n%s", w.String())
	}

	w = NewWriter(preambleModule(), Options{Version: 330})
	if !strings.HasPrefix(w.String(), "#version 330\n") {
		t.Errorf("missing configured version directive:\n%s", w.String())
	}
}

func TestPreambleBlocks(t *testing.T) {
	out := NewWriter(preambleModule(), Options{}).String()

	if !strings.Contains(out, "layout(std140) uniform Params {") {
		t.Errorf("no std140 uniform block:\n%s", out)
	}
	if !strings.Contains(out, "} params;") {
		t.Errorf("uniform block instance name missing:\n%s", out)
	}
	if !strings.Contains(out, "layout(std430) buffer Particles {") {
		t.Errorf("no std430 buffer block:\n%s", out)
	}
	if !strings.Contains(out, "vec4[] positions;") {
		t.Errorf("runtime array member missing:\n%s", out)
	}
	if !strings.Contains(out, "layout(push_constant) uniform Push {") {
		t.Errorf("no push constant block:\n%s", out)
	}
	if !strings.Contains(out, "layout(row_major) mat4 world;") {
		t.Errorf("row-major member qualifier missing:\n%s", out)
	}
	if !strings.Contains(out, "shared float tile;") {
		t.Errorf("workgroup global missing:\n%s", out)
	}
}

func TestPreambleScalarPacking(t *testing.T) {
	out := NewWriter(preambleModule(), Options{Packing: layout.PackingScalar}).String()

	if !strings.Contains(out, "layout(scalar) uniform Params {") {
		t.Errorf("uniform block not scalar-qualified:\n%s", out)
	}
	if !strings.Contains(out, "layout(scalar) buffer Particles {") {
		t.Errorf("buffer block not scalar-qualified:\n%s", out)
	}
	if !strings.Contains(out, "layout(push_constant) uniform Push {") {
		t.Errorf("push constant qualifier must not change:\n%s", out)
	}
}

func TestPreamblePlainStruct(t *testing.T) {
	out := NewWriter(preambleModule(), Options{}).String()

	// A struct not backing a buffer block gets a standalone definition.
	if !strings.Contains(out, "struct Light {") {
		t.Errorf("no standalone struct definition:\n%s", out)
	}
	if strings.Contains(out, "struct Params {") {
		t.Errorf("block-backing struct also defined standalone:\n%s", out)
	}
	if !strings.Contains(out, "Light light;") {
		t.Errorf("private global missing:\n%s", out)
	}
}

func TestGlobalNameStable(t *testing.T) {
	reg := preambleModule()
	w := NewWriter(reg, Options{})

	name := w.GlobalName(reg.Module().Variables[0].ID)
	if name != "params" {
		t.Errorf("GlobalName = %q, want params", name)
	}
	if w.GlobalName(reg.Module().Variables[0].ID) != name {
		t.Error("GlobalName not stable across calls")
	}
}

func TestFunctionFrame(t *testing.T) {
	b := ir.NewBuilder()
	i32 := b.I32()
	reg := ir.NewRegistry(b.Finish())

	w := NewWriter(reg, Options{})
	w.BeginFunction("helper", &i32, []ir.FunctionParam{{Name: "a", Type: i32}, {Name: "b", Type: i32}})
	w.DeclareLocal("int", "r", "(a + b)")
	w.EmitLine("return r;")
	w.EndFunction()

	out := w.String()
	if !strings.Contains(out, "int helper(int a, int b) {") {
		t.Errorf("bad signature:\n%s", out)
	}
	if !strings.Contains(out, "    int r = (a + b);") {
		t.Errorf("local not declared at depth 1:\n%s", out)
	}

	w = NewWriter(reg, Options{})
	w.BeginFunction("main", nil, nil)
	w.EmitKill()
	w.EndFunction()
	out = w.String()
	if !strings.Contains(out, "void main() {") {
		t.Errorf("void signature missing:\n%s", out)
	}
	if !strings.Contains(out, "    discard;") {
		t.Errorf("kill statement missing:\n%s", out)
	}
}

func TestScopeIndentation(t *testing.T) {
	reg := ir.NewRegistry(ir.NewBuilder().Finish())
	w := NewWriter(reg, Options{})

	w.BeginFunction("main", nil, nil)
	w.BeginScope("do {")
	w.EmitLine("x = 1;")
	w.EndScope("} while (cond);")
	w.EndFunction()

	out := w.String()
	if !strings.Contains(out, "    do {\n        x = 1;\n    } while (cond);") {
		t.Errorf("scope footer carries its text:\n%s", out)
	}
}

func TestLocalNameCollisions(t *testing.T) {
	reg := ir.NewRegistry(ir.NewBuilder().Finish())
	w := NewWriter(reg, Options{})

	if got := w.LocalName("x"); got != "x" {
		t.Errorf("first x = %q", got)
	}
	if got := w.LocalName("x"); got != "x_1" {
		t.Errorf("second x = %q", got)
	}
	if got := w.LocalName("while"); got != "_while" {
		t.Errorf("keyword = %q", got)
	}
	if got := w.LocalName("gl_Position"); got != "_gl_Position" {
		t.Errorf("reserved prefix = %q", got)
	}
	if got := w.LocalName(""); got != "_unnamed" {
		t.Errorf("empty = %q", got)
	}
}

func TestRecompileFlag(t *testing.T) {
	reg := ir.NewRegistry(ir.NewBuilder().Finish())
	w := NewWriter(reg, Options{})

	if w.RecompileRequested() {
		t.Fatal("fresh writer already wants a rerun")
	}
	w.RequestRecompile()
	if !w.RecompileRequested() {
		t.Fatal("request not recorded")
	}
}
