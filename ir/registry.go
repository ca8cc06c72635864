// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ir

import (
	"fmt"
	"math"
	"strconv"
)

// Registry is the read-only query surface over a Module. Reconstruction
// and tracking assume cheap repeated lookups, so every query here is
// O(1) against prebuilt maps.
type Registry struct {
	module *Module

	blocks map[BlockID]*Block
	values map[ValueID]*Value
	vars   map[VarID]*Variable

	// preds maps a block to its predecessors, in discovery order.
	preds map[BlockID][]BlockID

	// owner maps a block to the function that owns it.
	owner map[BlockID]FunctionHandle
}

// NewRegistry builds the query surface for a module.
func NewRegistry(module *Module) *Registry {
	r := &Registry{
		module: module,
		blocks: make(map[BlockID]*Block, len(module.Blocks)),
		values: make(map[ValueID]*Value, len(module.Values)),
		vars:   make(map[VarID]*Variable, len(module.Variables)),
		preds:  make(map[BlockID][]BlockID),
		owner:  make(map[BlockID]FunctionHandle),
	}

	for i := range module.Blocks {
		b := &module.Blocks[i]
		r.blocks[b.ID] = b
	}
	for i := range module.Values {
		v := &module.Values[i]
		r.values[v.ID] = v
	}
	for i := range module.Variables {
		v := &module.Variables[i]
		r.vars[v.ID] = v
	}

	for i := range module.Blocks {
		b := &module.Blocks[i]
		for _, succ := range Successors(b.Terminator) {
			r.preds[succ] = append(r.preds[succ], b.ID)
		}
	}

	for fh := range module.Functions {
		for _, id := range module.Functions[fh].Blocks {
			r.owner[id] = FunctionHandle(fh) //nolint:gosec // G115: fh is a valid slice index
		}
	}

	return r
}

// Module returns the underlying module.
func (r *Registry) Module() *Module {
	return r.module
}

// Block returns the block for an id, or nil.
func (r *Registry) Block(id BlockID) *Block {
	return r.blocks[id]
}

// Value returns the value for an id, or nil.
func (r *Registry) Value(id ValueID) *Value {
	return r.values[id]
}

// Variable returns the variable for an id, or nil.
func (r *Registry) Variable(id VarID) *Variable {
	return r.vars[id]
}

// Predecessors returns the blocks branching into id.
func (r *Registry) Predecessors(id BlockID) []BlockID {
	return r.preds[id]
}

// OwnerOf returns the function owning a block.
func (r *Registry) OwnerOf(id BlockID) FunctionHandle {
	return r.owner[id]
}

// Type returns the type for a handle.
func (r *Registry) Type(h TypeHandle) *Type {
	if int(h) >= len(r.module.Types) {
		return nil
	}
	return &r.module.Types[h]
}

// TypeOf returns the declared type of a value.
func (r *Registry) TypeOf(id ValueID) TypeHandle {
	if v := r.values[id]; v != nil {
		return v.Type
	}
	return 0
}

// Constant returns the constant for a handle, or nil.
func (r *Registry) Constant(h ConstantHandle) *Constant {
	if int(h) >= len(r.module.Constants) {
		return nil
	}
	return &r.module.Constants[h]
}

// ConstantIndex folds a value into a compile-time integer index. Returns
// false for anything that is not an integer-typed OpConstant with a
// known scalar value (specialization constants stay symbolic).
func (r *Registry) ConstantIndex(id ValueID) (int64, bool) {
	v := r.values[id]
	if v == nil {
		return 0, false
	}
	op, ok := v.Op.(OpConstant)
	if !ok {
		return 0, false
	}
	c := r.Constant(op.Constant)
	if c == nil {
		return 0, false
	}
	sv, ok := c.Value.(ScalarValue)
	if !ok {
		return 0, false
	}
	switch sv.Kind {
	case ScalarSint:
		return int64(sv.Bits), true //nolint:gosec // G115: sign reinterpretation is the point
	case ScalarUint:
		if sv.Bits > math.MaxInt64 {
			return 0, false
		}
		return int64(sv.Bits), true
	default:
		return 0, false
	}
}

// PhiFor returns the phis of a block that have a source on the edge from
// pred, paired with the value live on that edge.
func (r *Registry) PhiFor(block, pred BlockID) []PhiEdge {
	b := r.blocks[block]
	if b == nil || len(b.Phis) == 0 {
		return nil
	}
	var out []PhiEdge
	for i := range b.Phis {
		phi := &b.Phis[i]
		for _, src := range phi.Sources {
			if src.Pred == pred {
				out = append(out, PhiEdge{Variable: phi.Variable, Value: src.Value})
				break
			}
		}
	}
	return out
}

// PhiEdge is one pending phi copy on a specific edge.
type PhiEdge struct {
	Variable VarID
	Value    ValueID
}

// TypeDedup ensures each structurally unique type appears exactly once
// in a module's arena.
type TypeDedup struct {
	types   []Type
	typeMap map[string]TypeHandle
	keyBuf  []byte // reusable buffer for building type keys
}

// NewTypeDedup creates an empty deduplicating type arena.
func NewTypeDedup() *TypeDedup {
	return &TypeDedup{
		types:   make([]Type, 0, 16),
		typeMap: make(map[string]TypeHandle, 16),
		keyBuf:  make([]byte, 0, 64),
	}
}

// GetOrCreate returns an existing handle for the type if it exists, or
// creates a new one if it is unique.
func (d *TypeDedup) GetOrCreate(name string, inner TypeInner) TypeHandle {
	key := d.normalizeType(inner)

	if handle, exists := d.typeMap[key]; exists {
		return handle
	}

	handle := TypeHandle(len(d.types)) //nolint:gosec // G115: arena index
	d.types = append(d.types, Type{Name: name, Inner: inner})
	d.typeMap[key] = handle

	return handle
}

// Types returns the deduplicated arena.
func (d *TypeDedup) Types() []Type {
	return d.types
}

// normalizeType creates a unique key for a type based on its structure.
// Two structurally identical types produce the same key. Uses a reusable
// byte buffer to avoid fmt.Sprintf allocations for common shapes.
func (d *TypeDedup) normalizeType(inner TypeInner) string {
	b := d.keyBuf[:0]

	switch t := inner.(type) {
	case ScalarType:
		b = append(b, "scalar:"...)
		b = strconv.AppendInt(b, int64(t.Kind), 10)
		b = append(b, ':')
		b = strconv.AppendUint(b, uint64(t.Width), 10)
		d.keyBuf = b
		return string(b)

	case VectorType:
		// Recursive call clobbers keyBuf, so build with string concat.
		scalarKey := d.normalizeType(t.Scalar)
		return "vec:" + strconv.FormatUint(uint64(t.Size), 10) + ":" + scalarKey

	case MatrixType:
		scalarKey := d.normalizeType(t.Scalar)
		return "mat:" + strconv.FormatUint(uint64(t.Columns), 10) + "x" + strconv.FormatUint(uint64(t.Rows), 10) + ":" + scalarKey

	case ArrayType:
		var sizeKey string
		if t.Size.Constant != nil {
			sizeKey = strconv.FormatUint(uint64(*t.Size.Constant), 10)
		} else {
			sizeKey = "runtime"
		}
		return "array:" + strconv.FormatInt(int64(t.Base), 10) + ":" + sizeKey + ":" + strconv.FormatUint(uint64(t.Stride), 10)

	case StructType:
		// Structs use fmt.Sprintf since they're less frequent and more complex.
		key := fmt.Sprintf("struct:%d:%d", len(t.Members), t.Span)
		for _, member := range t.Members {
			key += fmt.Sprintf(":m(%s,%d,%d,%d,%t)", member.Name, member.Type, member.Offset, member.MatrixStride, member.RowMajor)
		}
		return key

	case PointerType:
		return "ptr:" + strconv.FormatInt(int64(t.Base), 10) + ":" + strconv.FormatInt(int64(t.Space), 10)

	default:
		return fmt.Sprintf("unknown:%T", inner)
	}
}
