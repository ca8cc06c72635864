// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/layout"
)

// Options configures GLSL output.
type Options struct {
	// Version is the #version directive, 450 when zero.
	Version int

	// Packing selects the block layout qualifier for buffer-backed
	// globals.
	Packing layout.Packing
}

// Writer generates GLSL source. It implements recon.Sink; one Writer is
// one reconstruction pass.
type Writer struct {
	reg  *ir.Registry
	opts Options

	out    strings.Builder
	indent int

	namer       *namer
	structNames map[ir.TypeHandle]string
	globalNames map[ir.VarID]string

	recompile bool
}

// namer generates unique identifiers.
type namer struct {
	usedNames map[string]struct{}
	counter   uint32
}

func newNamer() *namer {
	return &namer{
		usedNames: make(map[string]struct{}),
	}
}

// call generates a unique name based on the given base.
func (n *namer) call(base string) string {
	escaped := escapeKeyword(base)

	if _, used := n.usedNames[escaped]; !used {
		n.usedNames[escaped] = struct{}{}
		return escaped
	}

	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		if _, used := n.usedNames[candidate]; !used {
			n.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}

// NewWriter creates a writer and emits the module preamble: version
// directive, struct definitions, and global variable declarations.
func NewWriter(reg *ir.Registry, opts Options) *Writer {
	if opts.Version == 0 {
		opts.Version = 450
	}
	w := &Writer{
		reg:         reg,
		opts:        opts,
		namer:       newNamer(),
		structNames: make(map[ir.TypeHandle]string),
		globalNames: make(map[ir.VarID]string),
	}
	w.writePreamble()
	return w
}

// String returns the generated GLSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

// writePreamble writes everything above the first function.
func (w *Writer) writePreamble() {
	w.writeLine("#version %d", w.opts.Version)
	w.writeLine("")

	module := w.reg.Module()

	// Struct types backing uniform and storage globals become interface
	// blocks; their definitions are inlined at the declaration.
	blockTypes := make(map[ir.TypeHandle]struct{})
	for i := range module.Variables {
		g := &module.Variables[i]
		if g.Space != ir.SpaceUniform && g.Space != ir.SpaceStorage && g.Space != ir.SpacePushConstant {
			continue
		}
		th := w.peelPointer(g.Type)
		if _, ok := module.Types[th].Inner.(ir.StructType); ok {
			blockTypes[th] = struct{}{}
		}
	}

	for h := range module.Types {
		th := ir.TypeHandle(h) //nolint:gosec // G115: arena index
		if _, isBlock := blockTypes[th]; isBlock {
			continue
		}
		st, ok := module.Types[h].Inner.(ir.StructType)
		if !ok {
			continue
		}
		w.writeLine("struct %s {", w.structName(th))
		w.pushIndent()
		w.writeMembers(st)
		w.popIndent()
		w.writeLine("};")
		w.writeLine("")
	}

	wrote := false
	for i := range module.Variables {
		g := &module.Variables[i]
		if g.Space == ir.SpaceFunction {
			continue
		}
		w.writeGlobal(g)
		wrote = true
	}
	if wrote {
		w.writeLine("")
	}
}

func (w *Writer) writeMembers(st ir.StructType) {
	for i := range st.Members {
		m := &st.Members[i]
		qual := ""
		if m.RowMajor {
			qual = "layout(row_major) "
		}
		w.writeLine("%s%s %s;", qual, w.TypeName(m.Type), m.Name)
	}
}

// writeGlobal declares one module-scope variable. Struct-typed uniform
// and storage globals become interface blocks with the packing layout
// qualifier.
func (w *Writer) writeGlobal(g *ir.Variable) {
	name := w.globalName(g.ID)
	th := w.peelPointer(g.Type)

	switch g.Space {
	case ir.SpaceUniform, ir.SpacePushConstant, ir.SpaceStorage:
		st, isStruct := w.reg.Module().Types[th].Inner.(ir.StructType)
		if !isStruct {
			w.writeLine("uniform %s %s;", w.TypeName(th), name)
			return
		}
		qual := "layout(" + w.blockLayout(g.Space) + ") "
		keyword := "uniform"
		if g.Space == ir.SpaceStorage {
			keyword = "buffer"
		}
		if g.Space == ir.SpacePushConstant {
			qual = "layout(push_constant) "
		}
		w.writeLine("%s%s %s {", qual, keyword, w.structName(th))
		w.pushIndent()
		w.writeMembers(st)
		w.popIndent()
		w.writeLine("} %s;", name)

	case ir.SpaceWorkGroup:
		w.writeLine("shared %s %s;", w.TypeName(th), name)

	default:
		w.writeLine("%s %s;", w.TypeName(th), name)
	}
}

// blockLayout maps a block's address space onto the layout qualifier,
// honoring the configured packing where the space allows a choice.
func (w *Writer) blockLayout(space ir.AddressSpace) string {
	switch space {
	case ir.SpaceStorage:
		if w.opts.Packing == layout.PackingScalar {
			return "scalar"
		}
		return "std430"
	default:
		if w.opts.Packing == layout.PackingScalar {
			return "scalar"
		}
		return "std140"
	}
}

func (w *Writer) globalName(id ir.VarID) string {
	if name, ok := w.globalNames[id]; ok {
		return name
	}
	base := fmt.Sprintf("_g%d", id)
	if v := w.reg.Variable(id); v != nil && v.Name != "" {
		base = v.Name
	}
	name := w.namer.call(base)
	w.globalNames[id] = name
	return name
}

func (w *Writer) structName(h ir.TypeHandle) string {
	if name, ok := w.structNames[h]; ok {
		return name
	}
	base := fmt.Sprintf("S_%d", h)
	if t := w.reg.Type(h); t != nil && t.Name != "" {
		base = t.Name
	}
	name := w.namer.call(base)
	w.structNames[h] = name
	return name
}

func (w *Writer) peelPointer(h ir.TypeHandle) ir.TypeHandle {
	for {
		t := w.reg.Type(h)
		if t == nil {
			return h
		}
		ptr, ok := t.Inner.(ir.PointerType)
		if !ok {
			return h
		}
		h = ptr.Base
	}
}

// BeginFunction opens a function definition.
func (w *Writer) BeginFunction(name string, result *ir.TypeHandle, params []ir.FunctionParam) {
	returnType := "void"
	if result != nil {
		returnType = w.TypeName(*result)
	}

	args := make([]string, 0, len(params))
	for _, p := range params {
		args = append(args, fmt.Sprintf("%s %s", w.TypeName(p.Type), p.Name))
	}

	w.writeLine("%s %s(%s) {", returnType, name, strings.Join(args, ", "))
	w.pushIndent()
}

// EndFunction closes the current function definition.
func (w *Writer) EndFunction() {
	w.popIndent()
	w.writeLine("}")
	w.writeLine("")
}

// DeclareLocal emits a local declaration.
func (w *Writer) DeclareLocal(typeName, name, init string) {
	if init == "" {
		w.writeLine("%s %s;", typeName, name)
		return
	}
	w.writeLine("%s %s = %s;", typeName, name, init)
}

// EmitLine emits one statement at the current depth.
func (w *Writer) EmitLine(line string) {
	w.writeLine(line)
}

// BeginScope opens a nested scope.
func (w *Writer) BeginScope(header string) {
	w.writeLine(header)
	w.pushIndent()
}

// EndScope closes the innermost scope.
func (w *Writer) EndScope(footer string) {
	w.popIndent()
	w.writeLine(footer)
}

// EmitKill renders a fragment discard.
func (w *Writer) EmitKill() {
	w.writeLine("discard;")
}

// LocalName reserves a unique, keyword-escaped identifier.
func (w *Writer) LocalName(base string) string {
	return w.namer.call(base)
}

// GlobalName returns the identifier a module-scope variable was declared
// under in the preamble.
func (w *Writer) GlobalName(id ir.VarID) string {
	return w.globalName(id)
}

// RequestRecompile marks the pass as needing a rerun.
func (w *Writer) RequestRecompile() {
	w.recompile = true
}

// RecompileRequested reports whether a rerun was requested.
func (w *Writer) RecompileRequested() bool {
	return w.recompile
}

// Output helpers

// writeLine writes a line with indentation and newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

// pushIndent increases indentation.
func (w *Writer) pushIndent() {
	w.indent++
}

// popIndent decreases indentation.
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}
