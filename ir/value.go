// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ir

// Value represents an SSA result: a typed value produced by exactly one
// defining op inside one block (or by a constant / function parameter,
// in which case Block is zero).
//
// Mutable bookkeeping from the specification of a value (read count,
// forwarding eligibility, dependency invalidation) is not stored here:
// the IR stays read-only during reconstruction, and the recon package
// threads that state through its tracker explicitly.
type Value struct {
	ID    ValueID
	Type  TypeHandle
	Block BlockID
	Op    Op
}

// Instruction is one entry of a block's instruction list. Result is zero
// for side-effect-only ops (stores).
type Instruction struct {
	Result ValueID
	Op     Op
}

// Op represents the defining operation of a value (or a pure side
// effect, for OpStore).
type Op interface {
	op()
}

// OpConstant references a module-scope constant.
type OpConstant struct {
	Constant ConstantHandle
}

func (OpConstant) op() {}

// OpParam references a function parameter by index.
type OpParam struct {
	Index uint32
}

func (OpParam) op() {}

// OpLoad reads a variable. Loads from mutable storage are never
// compile-time-immutable; loads from Builtin variables are volatile.
type OpLoad struct {
	Variable VarID
}

func (OpLoad) op() {}

// OpStore writes Value into Variable. Produces no result.
type OpStore struct {
	Variable VarID
	Value    ValueID
}

func (OpStore) op() {}

// OpBinary applies a binary operator.
type OpBinary struct {
	Operator BinaryOperator
	Left     ValueID
	Right    ValueID
}

func (OpBinary) op() {}

// BinaryOperator enumerates binary operators.
type BinaryOperator uint8

const (
	BinAdd BinaryOperator = iota
	BinSub
	BinMul // component-wise, or matrix product when operands are matrices
	BinDiv
	BinMod
	BinAnd
	BinOr
	BinXor
	BinShiftLeft
	BinShiftRight
	BinEqual
	BinNotEqual
	BinLess
	BinLessEqual
	BinGreater
	BinGreaterEqual
	BinLogicalAnd
	BinLogicalOr
)

// String returns the C-family spelling of the operator.
func (op BinaryOperator) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinMod:
		return "%"
	case BinAnd:
		return "&"
	case BinOr:
		return "|"
	case BinXor:
		return "^"
	case BinShiftLeft:
		return "<<"
	case BinShiftRight:
		return ">>"
	case BinEqual:
		return "=="
	case BinNotEqual:
		return "!="
	case BinLess:
		return "<"
	case BinLessEqual:
		return "<="
	case BinGreater:
		return ">"
	case BinGreaterEqual:
		return ">="
	case BinLogicalAnd:
		return "&&"
	case BinLogicalOr:
		return "||"
	default:
		return "?"
	}
}

// OpUnary applies a unary operator.
type OpUnary struct {
	Operator UnaryOperator
	Operand  ValueID
}

func (OpUnary) op() {}

// UnaryOperator enumerates unary operators.
type UnaryOperator uint8

const (
	UnNegate UnaryOperator = iota
	UnNot
	UnBitNot
)

// String returns the C-family spelling of the operator.
func (op UnaryOperator) String() string {
	switch op {
	case UnNegate:
		return "-"
	case UnNot:
		return "!"
	case UnBitNot:
		return "~"
	default:
		return "?"
	}
}

// OpAccessChain walks member/element indices down from a variable. The
// layout package resolves the chain into offsets and strides; the
// expression printer renders it as subscripts and member selections.
type OpAccessChain struct {
	Base    VarID
	Indices []ValueID
}

func (OpAccessChain) op() {}

// OpCompose constructs a composite value from components.
type OpCompose struct {
	Components []ValueID
}

func (OpCompose) op() {}

// OpCall calls a function and yields its result.
type OpCall struct {
	Function  FunctionHandle
	Arguments []ValueID
}

func (OpCall) op() {}

// OpSelect is a component-wise conditional (ternary).
type OpSelect struct {
	Condition ValueID
	True      ValueID
	False     ValueID
}

func (OpSelect) op() {}

// OpTranspose transposes a matrix value. The access-chain engine cancels
// pairs of these where row-major storage flags compose.
type OpTranspose struct {
	Operand ValueID
}

func (OpTranspose) op() {}

// Operands returns the value ids an op's expression references, in
// operand order. This is the dependency set of the defining value.
func Operands(op Op) []ValueID {
	switch o := op.(type) {
	case OpBinary:
		return []ValueID{o.Left, o.Right}
	case OpUnary:
		return []ValueID{o.Operand}
	case OpStore:
		return []ValueID{o.Value}
	case OpAccessChain:
		return o.Indices
	case OpCompose:
		return o.Components
	case OpCall:
		return o.Arguments
	case OpSelect:
		return []ValueID{o.Condition, o.True, o.False}
	case OpTranspose:
		return []ValueID{o.Operand}
	default:
		return nil
	}
}

// LoadedVariable returns the variable an op reads, or zero.
func LoadedVariable(op Op) VarID {
	switch o := op.(type) {
	case OpLoad:
		return o.Variable
	case OpAccessChain:
		return o.Base
	default:
		return 0
	}
}
