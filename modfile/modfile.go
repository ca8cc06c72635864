// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package modfile reads block-graph modules from their JSON interchange
// form. Every IR entity keeps its explicit id so graphs serialize and
// reload without renumbering; Parse rebuilds the arenas directly and
// leaves semantic checking to ir.Validate.
package modfile

import (
	"math"

	"github.com/segmentio/encoding/json"
	"tlog.app/go/errors"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// File is the top-level JSON document.
type File struct {
	Types      []TypeDef  `json:"types"`
	Constants  []ConstDef `json:"constants"`
	Variables  []VarDef   `json:"variables"`
	Values     []ValueDef `json:"values"`
	Blocks     []BlockDef `json:"blocks"`
	Functions  []FuncDef  `json:"functions"`
	EntryPoint uint32     `json:"entry_point"`
}

// TypeDef describes one entry of the type arena. Kind selects which of
// the remaining fields are meaningful.
type TypeDef struct {
	Name string `json:"name,omitempty"`
	Kind string `json:"kind"`

	// scalar, and the element of vector/matrix
	Scalar string `json:"scalar,omitempty"`

	// vector
	Size uint8 `json:"size,omitempty"`

	// matrix
	Columns uint8 `json:"columns,omitempty"`
	Rows    uint8 `json:"rows,omitempty"`

	// array and pointer
	Base   uint32  `json:"base,omitempty"`
	Count  *uint32 `json:"count,omitempty"` // nil = runtime-sized
	Stride uint32  `json:"stride,omitempty"`

	// struct
	Span    uint32      `json:"span,omitempty"`
	Members []MemberDef `json:"members,omitempty"`

	// pointer
	Space string `json:"space,omitempty"`
}

// MemberDef is one struct member with its layout decorations.
type MemberDef struct {
	Name         string `json:"name"`
	Type         uint32 `json:"type"`
	Offset       uint32 `json:"offset"`
	MatrixStride uint32 `json:"matrix_stride,omitempty"`
	RowMajor     bool   `json:"row_major,omitempty"`
}

// ConstDef is one module-scope constant. Exactly one of the value
// fields should be set; composite constants reference other constants
// by handle.
type ConstDef struct {
	Name string `json:"name,omitempty"`
	Type uint32 `json:"type"`

	Float      *float64 `json:"float,omitempty"`
	Int        *int64   `json:"int,omitempty"`
	Uint       *uint64  `json:"uint,omitempty"`
	Bool       *bool    `json:"bool,omitempty"`
	Components []uint32 `json:"components,omitempty"`

	// SpecDefault marks a specialization constant with its default.
	SpecDefault *uint64 `json:"spec_default,omitempty"`
	SpecKind    string  `json:"spec_kind,omitempty"`
}

// VarDef is one storage location.
type VarDef struct {
	ID       uint32  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Type     uint32  `json:"type"`
	Space    string  `json:"space"`
	Init     *uint32 `json:"init,omitempty"`
	Deferred bool    `json:"deferred,omitempty"`
	Loop     bool    `json:"loop,omitempty"`
	Builtin  bool    `json:"builtin,omitempty"`
}

// ValueDef is one SSA value.
type ValueDef struct {
	ID    uint32 `json:"id"`
	Type  uint32 `json:"type"`
	Block uint32 `json:"block,omitempty"`
	Op    OpDef  `json:"op"`
}

// OpDef describes a defining operation. Kind selects the fields.
type OpDef struct {
	Kind string `json:"kind"`

	Constant   uint32   `json:"constant,omitempty"`
	Index      uint32   `json:"index,omitempty"`
	Variable   uint32   `json:"variable,omitempty"`
	Value      uint32   `json:"value,omitempty"`
	Operator   string   `json:"operator,omitempty"`
	Left       uint32   `json:"left,omitempty"`
	Right      uint32   `json:"right,omitempty"`
	Operand    uint32   `json:"operand,omitempty"`
	Base       uint32   `json:"base,omitempty"`
	Indices    []uint32 `json:"indices,omitempty"`
	Components []uint32 `json:"components,omitempty"`
	Function   uint32   `json:"function,omitempty"`
	Arguments  []uint32 `json:"arguments,omitempty"`
	Condition  uint32   `json:"condition,omitempty"`
	True       uint32   `json:"true,omitempty"`
	False      uint32   `json:"false,omitempty"`
}

// BlockDef is one basic block.
type BlockDef struct {
	ID            uint32     `json:"id"`
	Instructions  []InstrDef `json:"instructions,omitempty"`
	Terminator    TermDef    `json:"terminator"`
	MergeKind     string     `json:"merge_kind,omitempty"`
	Merge         uint32     `json:"merge,omitempty"`
	Continue      uint32     `json:"continue,omitempty"`
	LoopDominator uint32     `json:"loop_dominator,omitempty"`
	Phis          []PhiDef   `json:"phis,omitempty"`
}

// InstrDef is one block instruction. Result is zero for stores.
type InstrDef struct {
	Result uint32 `json:"result,omitempty"`
	Op     OpDef  `json:"op"`
}

// TermDef is one block terminator.
type TermDef struct {
	Kind      string    `json:"kind"`
	Target    uint32    `json:"target,omitempty"`
	Condition uint32    `json:"condition,omitempty"`
	True      uint32    `json:"true,omitempty"`
	False     uint32    `json:"false,omitempty"`
	Selector  uint32    `json:"selector,omitempty"`
	Cases     []CaseDef `json:"cases,omitempty"`
	Default   uint32    `json:"default,omitempty"`
	Value     uint32    `json:"value,omitempty"`
}

// CaseDef is one switch arm label.
type CaseDef struct {
	Value  int64  `json:"value"`
	Target uint32 `json:"target"`
}

// PhiDef is one phi of a block.
type PhiDef struct {
	Variable uint32         `json:"variable"`
	Sources  []PhiSourceDef `json:"sources"`
}

// PhiSourceDef is one incoming phi edge.
type PhiSourceDef struct {
	Pred  uint32 `json:"pred"`
	Value uint32 `json:"value"`
}

// FuncDef is one function definition.
type FuncDef struct {
	Name      string     `json:"name"`
	Result    *uint32    `json:"result,omitempty"`
	Params    []ParamDef `json:"params,omitempty"`
	Entry     uint32     `json:"entry"`
	Blocks    []uint32   `json:"blocks"`
	Variables []uint32   `json:"variables,omitempty"`
}

// ParamDef is one function parameter.
type ParamDef struct {
	Name  string `json:"name"`
	Type  uint32 `json:"type"`
	Value uint32 `json:"value"`
}

// Parse decodes a JSON module and rebuilds the IR arenas. The result is
// structurally complete but not semantically checked; run ir.Validate
// before reconstruction.
func Parse(data []byte) (*ir.Module, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	return f.Build()
}

// Build converts the decoded document into an ir.Module.
func (f *File) Build() (*ir.Module, error) {
	m := &ir.Module{
		EntryPoint: ir.FunctionHandle(f.EntryPoint),
	}

	for i := range f.Types {
		inner, err := f.Types[i].inner()
		if err != nil {
			return nil, errors.Wrap(err, "type %d", i)
		}
		m.Types = append(m.Types, ir.Type{Name: f.Types[i].Name, Inner: inner})
	}

	for i := range f.Constants {
		c, err := f.Constants[i].constant()
		if err != nil {
			return nil, errors.Wrap(err, "constant %d", i)
		}
		m.Constants = append(m.Constants, c)
	}

	for i := range f.Variables {
		v, err := f.Variables[i].variable()
		if err != nil {
			return nil, errors.Wrap(err, "variable %d", i)
		}
		m.Variables = append(m.Variables, v)
	}

	for i := range f.Values {
		op, err := f.Values[i].Op.op()
		if err != nil {
			return nil, errors.Wrap(err, "value %d", i)
		}
		m.Values = append(m.Values, ir.Value{
			ID:    ir.ValueID(f.Values[i].ID),
			Type:  ir.TypeHandle(f.Values[i].Type),
			Block: ir.BlockID(f.Values[i].Block),
			Op:    op,
		})
	}

	for i := range f.Blocks {
		b, err := f.Blocks[i].block()
		if err != nil {
			return nil, errors.Wrap(err, "block %d", i)
		}
		m.Blocks = append(m.Blocks, b)
	}

	for i := range f.Functions {
		m.Functions = append(m.Functions, f.Functions[i].function())
	}

	return m, nil
}

func (t *TypeDef) inner() (ir.TypeInner, error) {
	switch t.Kind {
	case "scalar":
		s, err := scalar(t.Scalar)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "vector":
		s, err := scalar(t.Scalar)
		if err != nil {
			return nil, err
		}
		return ir.VectorType{Size: ir.VectorSize(t.Size), Scalar: s}, nil
	case "matrix":
		s, err := scalar(t.Scalar)
		if err != nil {
			return nil, err
		}
		return ir.MatrixType{
			Columns: ir.VectorSize(t.Columns),
			Rows:    ir.VectorSize(t.Rows),
			Scalar:  s,
		}, nil
	case "array":
		return ir.ArrayType{
			Base:   ir.TypeHandle(t.Base),
			Size:   ir.ArraySize{Constant: t.Count},
			Stride: t.Stride,
		}, nil
	case "struct":
		st := ir.StructType{Span: t.Span}
		for _, md := range t.Members {
			st.Members = append(st.Members, ir.StructMember{
				Name:         md.Name,
				Type:         ir.TypeHandle(md.Type),
				Offset:       md.Offset,
				MatrixStride: md.MatrixStride,
				RowMajor:     md.RowMajor,
			})
		}
		return st, nil
	case "pointer":
		space, err := space(t.Space)
		if err != nil {
			return nil, err
		}
		return ir.PointerType{Base: ir.TypeHandle(t.Base), Space: space}, nil
	default:
		return nil, errors.New("unknown type kind %q", t.Kind)
	}
}

func scalar(s string) (ir.ScalarType, error) {
	switch s {
	case "f32":
		return ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}, nil
	case "f64":
		return ir.ScalarType{Kind: ir.ScalarFloat, Width: 8}, nil
	case "f16":
		return ir.ScalarType{Kind: ir.ScalarFloat, Width: 2}, nil
	case "i32":
		return ir.ScalarType{Kind: ir.ScalarSint, Width: 4}, nil
	case "u32":
		return ir.ScalarType{Kind: ir.ScalarUint, Width: 4}, nil
	case "bool":
		return ir.ScalarType{Kind: ir.ScalarBool, Width: 1}, nil
	default:
		return ir.ScalarType{}, errors.New("unknown scalar %q", s)
	}
}

func space(s string) (ir.AddressSpace, error) {
	switch s {
	case "", "function":
		return ir.SpaceFunction, nil
	case "private":
		return ir.SpacePrivate, nil
	case "workgroup":
		return ir.SpaceWorkGroup, nil
	case "uniform":
		return ir.SpaceUniform, nil
	case "storage":
		return ir.SpaceStorage, nil
	case "push_constant":
		return ir.SpacePushConstant, nil
	default:
		return 0, errors.New("unknown address space %q", s)
	}
}

func (c *ConstDef) constant() (ir.Constant, error) {
	out := ir.Constant{Name: c.Name, Type: ir.TypeHandle(c.Type)}
	switch {
	case c.Float != nil:
		out.Value = ir.ScalarValue{Bits: math.Float64bits(*c.Float), Kind: ir.ScalarFloat}
	case c.Int != nil:
		out.Value = ir.ScalarValue{Bits: uint64(*c.Int), Kind: ir.ScalarSint}
	case c.Uint != nil:
		out.Value = ir.ScalarValue{Bits: *c.Uint, Kind: ir.ScalarUint}
	case c.Bool != nil:
		bits := uint64(0)
		if *c.Bool {
			bits = 1
		}
		out.Value = ir.ScalarValue{Bits: bits, Kind: ir.ScalarBool}
	case c.Components != nil:
		cv := ir.CompositeValue{}
		for _, h := range c.Components {
			cv.Components = append(cv.Components, ir.ConstantHandle(h))
		}
		out.Value = cv
	case c.SpecDefault != nil:
		kind := ir.ScalarSint
		if c.SpecKind == "u32" {
			kind = ir.ScalarUint
		}
		out.Value = ir.SpecValue{Default: *c.SpecDefault, Kind: kind}
	default:
		return out, errors.New("constant has no value")
	}
	return out, nil
}

func (v *VarDef) variable() (ir.Variable, error) {
	sp, err := space(v.Space)
	if err != nil {
		return ir.Variable{}, err
	}
	out := ir.Variable{
		ID:       ir.VarID(v.ID),
		Name:     v.Name,
		Type:     ir.TypeHandle(v.Type),
		Space:    sp,
		Deferred: v.Deferred,
		Loop:     v.Loop,
		Builtin:  v.Builtin,
	}
	if v.Init != nil {
		h := ir.ConstantHandle(*v.Init)
		out.Init = &h
	}
	return out, nil
}

func (o *OpDef) op() (ir.Op, error) {
	switch o.Kind {
	case "constant":
		return ir.OpConstant{Constant: ir.ConstantHandle(o.Constant)}, nil
	case "param":
		return ir.OpParam{Index: o.Index}, nil
	case "load":
		return ir.OpLoad{Variable: ir.VarID(o.Variable)}, nil
	case "store":
		return ir.OpStore{Variable: ir.VarID(o.Variable), Value: ir.ValueID(o.Value)}, nil
	case "binary":
		bop, err := binaryOperator(o.Operator)
		if err != nil {
			return nil, err
		}
		return ir.OpBinary{Operator: bop, Left: ir.ValueID(o.Left), Right: ir.ValueID(o.Right)}, nil
	case "unary":
		uop, err := unaryOperator(o.Operator)
		if err != nil {
			return nil, err
		}
		return ir.OpUnary{Operator: uop, Operand: ir.ValueID(o.Operand)}, nil
	case "access":
		op := ir.OpAccessChain{Base: ir.VarID(o.Base)}
		for _, idx := range o.Indices {
			op.Indices = append(op.Indices, ir.ValueID(idx))
		}
		return op, nil
	case "compose":
		op := ir.OpCompose{}
		for _, c := range o.Components {
			op.Components = append(op.Components, ir.ValueID(c))
		}
		return op, nil
	case "call":
		op := ir.OpCall{Function: ir.FunctionHandle(o.Function)}
		for _, a := range o.Arguments {
			op.Arguments = append(op.Arguments, ir.ValueID(a))
		}
		return op, nil
	case "select":
		return ir.OpSelect{
			Condition: ir.ValueID(o.Condition),
			True:      ir.ValueID(o.True),
			False:     ir.ValueID(o.False),
		}, nil
	case "transpose":
		return ir.OpTranspose{Operand: ir.ValueID(o.Operand)}, nil
	default:
		return nil, errors.New("unknown op kind %q", o.Kind)
	}
}

func binaryOperator(s string) (ir.BinaryOperator, error) {
	for op := ir.BinAdd; op <= ir.BinLogicalOr; op++ {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, errors.New("unknown binary operator %q", s)
}

func unaryOperator(s string) (ir.UnaryOperator, error) {
	switch s {
	case "-":
		return ir.UnNegate, nil
	case "!":
		return ir.UnNot, nil
	case "~":
		return ir.UnBitNot, nil
	default:
		return 0, errors.New("unknown unary operator %q", s)
	}
}

func (b *BlockDef) block() (ir.Block, error) {
	out := ir.Block{
		ID:            ir.BlockID(b.ID),
		Merge:         ir.BlockID(b.Merge),
		Continue:      ir.BlockID(b.Continue),
		LoopDominator: ir.BlockID(b.LoopDominator),
	}

	switch b.MergeKind {
	case "", "none":
		out.MergeKind = ir.MergeNone
	case "selection":
		out.MergeKind = ir.MergeSelection
	case "loop":
		out.MergeKind = ir.MergeLoop
	default:
		return out, errors.New("unknown merge kind %q", b.MergeKind)
	}

	for i := range b.Instructions {
		op, err := b.Instructions[i].Op.op()
		if err != nil {
			return out, errors.Wrap(err, "instruction %d", i)
		}
		out.Instructions = append(out.Instructions, ir.Instruction{
			Result: ir.ValueID(b.Instructions[i].Result),
			Op:     op,
		})
	}

	term, err := b.Terminator.terminator()
	if err != nil {
		return out, err
	}
	out.Terminator = term

	for _, p := range b.Phis {
		phi := ir.Phi{Variable: ir.VarID(p.Variable)}
		for _, src := range p.Sources {
			phi.Sources = append(phi.Sources, ir.PhiSource{
				Pred:  ir.BlockID(src.Pred),
				Value: ir.ValueID(src.Value),
			})
		}
		out.Phis = append(out.Phis, phi)
	}

	return out, nil
}

func (t *TermDef) terminator() (ir.Terminator, error) {
	switch t.Kind {
	case "branch":
		return ir.Branch{Target: ir.BlockID(t.Target)}, nil
	case "cond_branch":
		return ir.CondBranch{
			Condition: ir.ValueID(t.Condition),
			True:      ir.BlockID(t.True),
			False:     ir.BlockID(t.False),
		}, nil
	case "switch":
		term := ir.SwitchTerm{
			Selector: ir.ValueID(t.Selector),
			Default:  ir.BlockID(t.Default),
		}
		for _, c := range t.Cases {
			term.Cases = append(term.Cases, ir.SwitchCase{Value: c.Value, Target: ir.BlockID(c.Target)})
		}
		return term, nil
	case "return":
		return ir.Return{Value: ir.ValueID(t.Value)}, nil
	case "kill":
		return ir.Kill{}, nil
	case "unreachable":
		return ir.Unreachable{}, nil
	default:
		return nil, errors.New("unknown terminator kind %q", t.Kind)
	}
}

func (fd *FuncDef) function() ir.Function {
	fn := ir.Function{
		Name:  fd.Name,
		Entry: ir.BlockID(fd.Entry),
	}
	if fd.Result != nil {
		h := ir.TypeHandle(*fd.Result)
		fn.Result = &h
	}
	for _, p := range fd.Params {
		fn.Params = append(fn.Params, ir.FunctionParam{
			Name:  p.Name,
			Type:  ir.TypeHandle(p.Type),
			Value: ir.ValueID(p.Value),
		})
	}
	for _, b := range fd.Blocks {
		fn.Blocks = append(fn.Blocks, ir.BlockID(b))
	}
	for _, v := range fd.Variables {
		fn.Variables = append(fn.Variables, ir.VarID(v))
	}
	return fn
}
