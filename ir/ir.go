// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ir

// Module represents a complete shader program in block-graph form.
//
// Blocks, Values and Variables live in module-wide arenas and are
// addressed by ids starting at 1 (id 0 means "none"), matching the
// SPIR-V result-id convention. Functions reference their slices of the
// arenas by id.
type Module struct {
	// Types holds all type definitions
	Types []Type

	// Constants holds module-scope constants
	Constants []Constant

	// Variables holds all storage locations, module- and function-scope
	Variables []Variable

	// Values holds all SSA values
	Values []Value

	// Blocks holds all basic blocks
	Blocks []Block

	// Functions holds all function definitions
	Functions []Function

	// EntryPoint names the function the driver starts from
	EntryPoint FunctionHandle
}

// Handle types for referencing IR objects.
type (
	TypeHandle     uint32
	FunctionHandle uint32
	ConstantHandle uint32
)

// Id types for arena objects. Zero is reserved and means "none".
type (
	BlockID uint32
	ValueID uint32
	VarID   uint32
)

// Type represents a type in the IR.
type Type struct {
	Name  string
	Inner TypeInner
}

// TypeInner represents the inner type kind.
type TypeInner interface {
	typeInner()
}

// ScalarType represents scalar types.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (ScalarType) typeInner() {}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarSint  ScalarKind = iota // Signed integer
	ScalarUint                    // Unsigned integer
	ScalarFloat                   // Floating point
	ScalarBool                    // Boolean
)

// VectorType represents vector types.
type VectorType struct {
	Size   VectorSize
	Scalar ScalarType
}

func (VectorType) typeInner() {}

// VectorSize represents vector sizes.
type VectorSize uint8

const (
	Vec2 VectorSize = 2
	Vec3 VectorSize = 3
	Vec4 VectorSize = 4
)

// MatrixType represents matrix types. Storage order (column- versus
// row-major) is not a property of the type; it is declared per struct
// member and tracked by the access-chain engine.
type MatrixType struct {
	Columns VectorSize
	Rows    VectorSize
	Scalar  ScalarType
}

func (MatrixType) typeInner() {}

// ArrayType represents array types.
type ArrayType struct {
	Base   TypeHandle
	Size   ArraySize
	Stride uint32
}

func (ArrayType) typeInner() {}

// ArraySize represents array size.
type ArraySize struct {
	Constant *uint32 // nil for runtime-sized arrays
}

// StructType represents struct types.
type StructType struct {
	Members []StructMember
	Span    uint32 // Size in bytes
}

func (StructType) typeInner() {}

// StructMember represents a struct member together with its declared
// layout decorations. Declared offsets and strides are what the input
// claims; the layout package recomputes and checks them.
type StructMember struct {
	Name   string
	Type   TypeHandle
	Offset uint32

	// MatrixStride is the declared stride between columns (or rows,
	// when RowMajor) of a matrix member. Zero for non-matrix members.
	MatrixStride uint32

	// RowMajor marks a matrix member stored row-major ("transposed
	// storage"). A chain step through such a member flips the chain's
	// row-major flag.
	RowMajor bool
}

// PointerType represents pointer types.
type PointerType struct {
	Base  TypeHandle
	Space AddressSpace
}

func (PointerType) typeInner() {}

// AddressSpace represents memory address spaces.
type AddressSpace uint8

const (
	SpaceFunction AddressSpace = iota
	SpacePrivate
	SpaceWorkGroup
	SpaceUniform
	SpaceStorage
	SpacePushConstant
)

// Constant represents a constant value.
type Constant struct {
	Name  string
	Type  TypeHandle
	Value ConstantValue
}

// ConstantValue represents constant values.
type ConstantValue interface {
	constantValue()
}

// ScalarValue represents a scalar constant.
type ScalarValue struct {
	Bits uint64 // Bit representation
	Kind ScalarKind
}

func (ScalarValue) constantValue() {}

// CompositeValue represents a composite constant.
type CompositeValue struct {
	Components []ConstantHandle
}

func (CompositeValue) constantValue() {}

// SpecValue represents a specialization constant whose concrete value is
// unknown at compile time. Struct-member indexing through one of these
// stays symbolic; only trailing runtime arrays may be reached that way.
type SpecValue struct {
	Default uint64
	Kind    ScalarKind
}

func (SpecValue) constantValue() {}

// Function represents a function definition.
type Function struct {
	Name      string
	Params    []FunctionParam
	Result    *TypeHandle // nil for void
	Entry     BlockID
	Blocks    []BlockID
	Variables []VarID
}

// FunctionParam represents a function parameter. Value is the SSA value
// the parameter is visible as inside the function body.
type FunctionParam struct {
	Name  string
	Type  TypeHandle
	Value ValueID
}

// Variable represents a mutable storage location, distinct from SSA
// values. Function-local variables are created at scope entry; their
// declaration may be deferred until first write, and loop variables are
// scoped to their loop and must never leak a declaration outside it.
type Variable struct {
	ID    VarID
	Name  string
	Type  TypeHandle // pointee type
	Space AddressSpace
	Init  *ConstantHandle

	// Deferred delays the declaration until the first write.
	Deferred bool

	// Loop marks a loop induction variable owned by its loop scope.
	Loop bool

	// Builtin marks a volatile built-in backing variable. Loads from it
	// are never forwardable.
	Builtin bool
}
