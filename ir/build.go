// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ir

import "math"

// Builder assembles a Module by hand. It owns the id counters and the
// deduplicating type arena, so callers never deal with raw arena slots.
// Frontends and tests both build graphs through it.
type Builder struct {
	dedup     *TypeDedup
	constants []Constant
	variables []Variable
	values    []Value
	blocks    []Block
	functions []Function

	nextValue ValueID
	nextBlock BlockID
	nextVar   VarID

	// intCache deduplicates i32 constant values by literal.
	intCache map[int32]ValueID
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		dedup:    NewTypeDedup(),
		intCache: make(map[int32]ValueID),
	}
}

// Type interns a type and returns its handle.
func (b *Builder) Type(name string, inner TypeInner) TypeHandle {
	return b.dedup.GetOrCreate(name, inner)
}

// I32 returns the handle of the canonical 32-bit signed integer type.
func (b *Builder) I32() TypeHandle {
	return b.Type("int", ScalarType{Kind: ScalarSint, Width: 4})
}

// U32 returns the handle of the canonical 32-bit unsigned integer type.
func (b *Builder) U32() TypeHandle {
	return b.Type("uint", ScalarType{Kind: ScalarUint, Width: 4})
}

// F32 returns the handle of the canonical 32-bit float type.
func (b *Builder) F32() TypeHandle {
	return b.Type("float", ScalarType{Kind: ScalarFloat, Width: 4})
}

// BoolType returns the handle of the boolean type.
func (b *Builder) BoolType() TypeHandle {
	return b.Type("bool", ScalarType{Kind: ScalarBool, Width: 1})
}

// Constant appends a module-scope constant.
func (b *Builder) Constant(name string, t TypeHandle, value ConstantValue) ConstantHandle {
	h := ConstantHandle(len(b.constants)) //nolint:gosec // G115: arena index
	b.constants = append(b.constants, Constant{Name: name, Type: t, Value: value})
	return h
}

// Int32 returns a value holding an i32 literal, deduplicated per builder.
func (b *Builder) Int32(v int32) ValueID {
	if id, ok := b.intCache[v]; ok {
		return id
	}
	c := b.Constant("", b.I32(), ScalarValue{Bits: uint64(int64(v)), Kind: ScalarSint}) //nolint:gosec // G115: sign-extended bit pattern
	id := b.newValue(b.I32(), 0, OpConstant{Constant: c})
	b.intCache[v] = id
	return id
}

// Float32 returns a value holding an f32 literal. Float constants store
// the float64 bit pattern of the value regardless of width.
func (b *Builder) Float32(v float32) ValueID {
	c := b.Constant("", b.F32(), ScalarValue{Bits: math.Float64bits(float64(v)), Kind: ScalarFloat})
	return b.newValue(b.F32(), 0, OpConstant{Constant: c})
}

// Bool returns a value holding a boolean literal.
func (b *Builder) Bool(v bool) ValueID {
	var bits uint64
	if v {
		bits = 1
	}
	c := b.Constant("", b.BoolType(), ScalarValue{Bits: bits, Kind: ScalarBool})
	return b.newValue(b.BoolType(), 0, OpConstant{Constant: c})
}

// Variable appends a storage location.
func (b *Builder) Variable(name string, t TypeHandle, space AddressSpace) VarID {
	b.nextVar++
	b.variables = append(b.variables, Variable{ID: b.nextVar, Name: name, Type: t, Space: space})
	return b.nextVar
}

// SetLoopVar marks a variable as loop-scoped.
func (b *Builder) SetLoopVar(id VarID) {
	b.variables[id-1].Loop = true
}

// SetDeferred marks a variable's declaration as deferred to first write.
func (b *Builder) SetDeferred(id VarID) {
	b.variables[id-1].Deferred = true
}

// SetBuiltin marks a variable as a volatile built-in.
func (b *Builder) SetBuiltin(id VarID) {
	b.variables[id-1].Builtin = true
}

func (b *Builder) newValue(t TypeHandle, block BlockID, op Op) ValueID {
	b.nextValue++
	b.values = append(b.values, Value{ID: b.nextValue, Type: t, Block: block, Op: op})
	return b.nextValue
}

// Function opens a function definition. Blocks created afterwards belong
// to it until the next Function call.
func (b *Builder) Function(name string, result *TypeHandle) *FuncBuilder {
	b.functions = append(b.functions, Function{Name: name, Result: result})
	return &FuncBuilder{b: b, fh: FunctionHandle(len(b.functions) - 1)} //nolint:gosec // G115: arena index
}

// Finish produces the assembled module. The builder must not be used
// afterwards.
func (b *Builder) Finish() *Module {
	return &Module{
		Types:     b.dedup.Types(),
		Constants: b.constants,
		Variables: b.variables,
		Values:    b.values,
		Blocks:    b.blocks,
		Functions: b.functions,
	}
}

// FuncBuilder assembles one function.
type FuncBuilder struct {
	b  *Builder
	fh FunctionHandle
}

// Handle returns the function's handle.
func (f *FuncBuilder) Handle() FunctionHandle {
	return f.fh
}

// Param appends a parameter and returns its SSA value.
func (f *FuncBuilder) Param(name string, t TypeHandle) ValueID {
	fn := &f.b.functions[f.fh]
	idx := uint32(len(fn.Params)) //nolint:gosec // G115: param index
	id := f.b.newValue(t, 0, OpParam{Index: idx})
	fn.Params = append(fn.Params, FunctionParam{Name: name, Type: t, Value: id})
	return id
}

// Block opens a new basic block in the function. The first block becomes
// the entry block.
func (f *FuncBuilder) Block() *BlockBuilder {
	f.b.nextBlock++
	id := f.b.nextBlock
	f.b.blocks = append(f.b.blocks, Block{ID: id})
	fn := &f.b.functions[f.fh]
	fn.Blocks = append(fn.Blocks, id)
	if fn.Entry == 0 {
		fn.Entry = id
	}
	return &BlockBuilder{b: f.b, id: id}
}

// Var appends a function-local variable.
func (f *FuncBuilder) Var(name string, t TypeHandle) VarID {
	id := f.b.Variable(name, t, SpaceFunction)
	fn := &f.b.functions[f.fh]
	fn.Variables = append(fn.Variables, id)
	return id
}

// BlockBuilder assembles one basic block.
type BlockBuilder struct {
	b  *Builder
	id BlockID
}

// ID returns the block's id.
func (bb *BlockBuilder) ID() BlockID {
	return bb.id
}

// Block ids are dense and sequential in builder-made modules.
func (bb *BlockBuilder) block() *Block {
	return &bb.b.blocks[bb.id-1]
}

func (bb *BlockBuilder) push(result ValueID, op Op) {
	blk := bb.block()
	blk.Instructions = append(blk.Instructions, Instruction{Result: result, Op: op})
}

// Load reads a variable and yields its value.
func (bb *BlockBuilder) Load(t TypeHandle, v VarID) ValueID {
	id := bb.b.newValue(t, bb.id, OpLoad{Variable: v})
	bb.push(id, OpLoad{Variable: v})
	return id
}

// Store writes a value into a variable.
func (bb *BlockBuilder) Store(v VarID, value ValueID) {
	bb.push(0, OpStore{Variable: v, Value: value})
}

// Binary applies a binary operator.
func (bb *BlockBuilder) Binary(t TypeHandle, op BinaryOperator, left, right ValueID) ValueID {
	id := bb.b.newValue(t, bb.id, OpBinary{Operator: op, Left: left, Right: right})
	bb.push(id, OpBinary{Operator: op, Left: left, Right: right})
	return id
}

// Unary applies a unary operator.
func (bb *BlockBuilder) Unary(t TypeHandle, op UnaryOperator, operand ValueID) ValueID {
	id := bb.b.newValue(t, bb.id, OpUnary{Operator: op, Operand: operand})
	bb.push(id, OpUnary{Operator: op, Operand: operand})
	return id
}

// Access walks indices down from a variable.
func (bb *BlockBuilder) Access(t TypeHandle, base VarID, indices ...ValueID) ValueID {
	op := OpAccessChain{Base: base, Indices: indices}
	id := bb.b.newValue(t, bb.id, op)
	bb.push(id, op)
	return id
}

// Compose constructs a composite value.
func (bb *BlockBuilder) Compose(t TypeHandle, components ...ValueID) ValueID {
	op := OpCompose{Components: components}
	id := bb.b.newValue(t, bb.id, op)
	bb.push(id, op)
	return id
}

// Call invokes a function.
func (bb *BlockBuilder) Call(t TypeHandle, fn FunctionHandle, args ...ValueID) ValueID {
	op := OpCall{Function: fn, Arguments: args}
	id := bb.b.newValue(t, bb.id, op)
	bb.push(id, op)
	return id
}

// Select yields a component-wise conditional.
func (bb *BlockBuilder) Select(t TypeHandle, cond, tv, fv ValueID) ValueID {
	op := OpSelect{Condition: cond, True: tv, False: fv}
	id := bb.b.newValue(t, bb.id, op)
	bb.push(id, op)
	return id
}

// Transpose transposes a matrix value.
func (bb *BlockBuilder) Transpose(t TypeHandle, operand ValueID) ValueID {
	op := OpTranspose{Operand: operand}
	id := bb.b.newValue(t, bb.id, op)
	bb.push(id, op)
	return id
}

// Branch terminates the block with a direct branch.
func (bb *BlockBuilder) Branch(target BlockID) {
	bb.block().Terminator = Branch{Target: target}
}

// CondBranch terminates the block with a conditional branch.
func (bb *BlockBuilder) CondBranch(cond ValueID, trueTarget, falseTarget BlockID) {
	bb.block().Terminator = CondBranch{Condition: cond, True: trueTarget, False: falseTarget}
}

// Switch terminates the block with a multi-way dispatch.
func (bb *BlockBuilder) Switch(selector ValueID, def BlockID, cases ...SwitchCase) {
	bb.block().Terminator = SwitchTerm{Selector: selector, Cases: cases, Default: def}
}

// Return terminates the block with a return. Pass zero for void.
func (bb *BlockBuilder) Return(value ValueID) {
	bb.block().Terminator = Return{Value: value}
}

// Kill terminates the block abnormally.
func (bb *BlockBuilder) Kill() {
	bb.block().Terminator = Kill{}
}

// Unreachable marks the block as never executed.
func (bb *BlockBuilder) Unreachable() {
	bb.block().Terminator = Unreachable{}
}

// SelectionMerge annotates the block as heading a selection construct.
func (bb *BlockBuilder) SelectionMerge(merge BlockID) {
	blk := bb.block()
	blk.MergeKind = MergeSelection
	blk.Merge = merge
}

// LoopMerge annotates the block as a loop header.
func (bb *BlockBuilder) LoopMerge(merge, cont BlockID) {
	blk := bb.block()
	blk.MergeKind = MergeLoop
	blk.Merge = merge
	blk.Continue = cont
}

// LoopDominator records the innermost loop header containing the block.
func (bb *BlockBuilder) LoopDominator(header BlockID) {
	bb.block().LoopDominator = header
}

// AddPhi appends a phi to the block.
func (bb *BlockBuilder) AddPhi(variable VarID, sources ...PhiSource) {
	blk := bb.block()
	blk.Phis = append(blk.Phis, Phi{Variable: variable, Sources: sources})
}
