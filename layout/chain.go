// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"tlog.app/go/errors"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// Chain is the resolved form of an access chain: the sequence of
// struct/array/matrix/vector steps from a base variable reduced to an
// accumulated byte offset plus stride and transposition bookkeeping.
type Chain struct {
	// Base is the variable the chain starts from.
	Base ir.VarID

	// Type is the type reached after consuming all indices.
	Type ir.TypeHandle

	// Offset is the accumulated constant byte offset.
	Offset uint32

	// Dynamic holds the symbolic index terms that could not be folded:
	// the final address is Offset plus the sum of index*stride terms.
	Dynamic []DynamicTerm

	// ArrayStride is the stride of the innermost array step, zero if
	// no array was traversed.
	ArrayStride uint32

	// MatrixStride is the stride between stored matrix vectors, zero
	// if no matrix was traversed.
	MatrixStride uint32

	// RowMajor is flipped by every step through a transposed-storage
	// matrix member. It is resolved into an actual transpose only when
	// the chain is converted into a final read or write expression.
	RowMajor bool

	// Terminal is set once a scalar has been reached. No further steps
	// are legal.
	Terminal bool

	// Path records the folded selections (member indices, constant
	// element indices) in walk order. Dynamic steps record -1.
	Path []int64
}

// DynamicTerm is one unresolved index contribution to a chain address.
type DynamicTerm struct {
	Index  ir.ValueID
	Stride uint32
}

// Resolver walks access chains against one module under one packing
// standard.
type Resolver struct {
	Registry *ir.Registry
	Packing  Packing

	// MinUnit is the target's minimum addressable granularity in bytes.
	// A dynamic term whose stride is not a multiple of it cannot be
	// expressed and is reported as unsupported. Zero disables the check.
	MinUnit uint32
}

// Resolve consumes one index per step from the base variable's pointee
// type, producing the chain descriptor.
func (r *Resolver) Resolve(base ir.VarID, indices []ir.ValueID) (*Chain, error) {
	v := r.Registry.Variable(base)
	if v == nil {
		return nil, ir.NewInternal("access chain base variable %d undefined", base)
	}

	module := r.Registry.Module()
	chain := &Chain{Base: base, Type: v.Type}

	for stepIdx, index := range indices {
		if chain.Terminal {
			return nil, ir.NewInternal("access chain step %d subdivides a scalar", stepIdx)
		}

		// A pointer is transparent: indexing applies to the pointee.
		t := r.Registry.Type(chain.Type)
		for t != nil {
			p, ok := t.Inner.(ir.PointerType)
			if !ok {
				break
			}
			chain.Type = p.Base
			t = r.Registry.Type(chain.Type)
		}
		if t == nil {
			return nil, ir.NewInternal("access chain reached unresolvable type %d", chain.Type)
		}

		var err error
		switch inner := t.Inner.(type) {
		case ir.StructType:
			err = r.stepStruct(chain, inner, index)
		case ir.ArrayType:
			err = r.stepArray(chain, inner, index)
		case ir.MatrixType:
			err = r.stepMatrix(chain, inner, index, module)
		case ir.VectorType:
			err = r.stepVector(chain, inner, index)
		case ir.ScalarType:
			return nil, ir.NewInternal("access chain step %d subdivides a scalar", stepIdx)
		default:
			err = ir.NewUnsupported(index, "access chain cannot step through %T", t.Inner)
		}
		if err != nil {
			return nil, errors.Wrap(err, "step %d", stepIdx)
		}
	}

	return chain, nil
}

// stepStruct consumes a member index. Struct indices must constant-fold:
// only trailing runtime arrays may be reached symbolically, and those are
// array steps, not struct steps.
func (r *Resolver) stepStruct(chain *Chain, st ir.StructType, index ir.ValueID) error {
	idx, ok := r.Registry.ConstantIndex(index)
	if !ok {
		return ir.NewUnsupported(index, "struct member index does not constant-fold")
	}
	if idx < 0 || int(idx) >= len(st.Members) {
		return ir.NewInternal("struct member index %d out of range", idx)
	}

	m := &st.Members[idx]
	chain.Offset += m.Offset
	chain.Type = m.Type
	chain.Path = append(chain.Path, idx)

	if _, isMat := r.matrixInner(m.Type); isMat {
		stride := m.MatrixStride
		if stride == 0 {
			stride = MatrixStride(r.Registry.Module(), m.Type, r.Packing, m.RowMajor)
		}
		chain.MatrixStride = stride
		if m.RowMajor {
			// Transposed storage flips the chain flag; two flips
			// cancel, so this is a toggle rather than an assignment.
			chain.RowMajor = !chain.RowMajor
		}
	}
	return nil
}

func (r *Resolver) matrixInner(h ir.TypeHandle) (ir.MatrixType, bool) {
	t := r.Registry.Type(h)
	if t == nil {
		return ir.MatrixType{}, false
	}
	m, ok := t.Inner.(ir.MatrixType)
	return m, ok
}

// stepArray consumes an element index; nested arrays recurse naturally
// on the next step.
func (r *Resolver) stepArray(chain *Chain, arr ir.ArrayType, index ir.ValueID) error {
	stride := arr.Stride
	if stride == 0 {
		stride = ArrayStride(r.Registry.Module(), chain.Type, r.Packing)
	}
	chain.ArrayStride = stride
	chain.Type = arr.Base

	if idx, ok := r.Registry.ConstantIndex(index); ok {
		if idx < 0 {
			return ir.NewInternal("negative array index %d", idx)
		}
		if arr.Size.Constant != nil && uint32(idx) >= *arr.Size.Constant { //nolint:gosec // G115: idx checked non-negative
			return ir.NewInternal("array index %d out of bounds %d", idx, *arr.Size.Constant)
		}
		chain.Offset += uint32(idx) * stride //nolint:gosec // G115: idx checked non-negative
		chain.Path = append(chain.Path, idx)
		return nil
	}

	// Symbolic index: legal, the term stays unresolved until runtime.
	if r.MinUnit != 0 && stride%r.MinUnit != 0 {
		return ir.NewUnsupported(index,
			"dynamic stride %d below the target's %d-byte addressable unit", stride, r.MinUnit)
	}
	chain.Dynamic = append(chain.Dynamic, DynamicTerm{Index: index, Stride: stride})
	chain.Path = append(chain.Path, -1)
	return nil
}

// stepMatrix consumes a column index (a row index, when the chain is in
// row-major storage).
func (r *Resolver) stepMatrix(chain *Chain, mat ir.MatrixType, index ir.ValueID, module *ir.Module) error {
	stride := chain.MatrixStride
	if stride == 0 {
		stride = MatrixStride(module, chain.Type, r.Packing, chain.RowMajor)
		chain.MatrixStride = stride
	}

	// Selecting a stored vector advances by the matrix stride; under
	// transposed storage the selected column is scattered, so the step
	// advances by the scalar width instead and the following vector
	// step picks up the matrix stride.
	unit := stride
	if chain.RowMajor {
		unit = uint32(mat.Scalar.Width)
	}

	if idx, ok := r.Registry.ConstantIndex(index); ok {
		if idx < 0 || ir.VectorSize(idx) >= mat.Columns {
			return ir.NewInternal("matrix column index %d out of range", idx)
		}
		chain.Offset += uint32(idx) * unit //nolint:gosec // G115: idx checked non-negative
		chain.Path = append(chain.Path, idx)
	} else {
		if r.MinUnit != 0 && unit%r.MinUnit != 0 {
			return ir.NewUnsupported(index,
				"dynamic stride %d below the target's %d-byte addressable unit", unit, r.MinUnit)
		}
		chain.Dynamic = append(chain.Dynamic, DynamicTerm{Index: index, Stride: unit})
		chain.Path = append(chain.Path, -1)
	}

	chain.Type = r.vectorHandle(mat)
	return nil
}

// vectorHandle finds the handle of the matrix's stored-vector type.
func (r *Resolver) vectorHandle(mat ir.MatrixType) ir.TypeHandle {
	want := ir.VectorType{Size: mat.Rows, Scalar: mat.Scalar}
	module := r.Registry.Module()
	for h := range module.Types {
		if inner, ok := module.Types[h].Inner.(ir.VectorType); ok && inner == want {
			return ir.TypeHandle(h) //nolint:gosec // G115: arena index
		}
	}
	return 0
}

// stepVector consumes a component index. The step is terminal: selecting
// a single scalar, illegal to subdivide further.
func (r *Resolver) stepVector(chain *Chain, vec ir.VectorType, index ir.ValueID) error {
	unit := uint32(vec.Scalar.Width)
	if chain.RowMajor && chain.MatrixStride != 0 {
		// Components of a transposed-storage column stride by rows.
		unit = chain.MatrixStride
	}

	if idx, ok := r.Registry.ConstantIndex(index); ok {
		if idx < 0 || ir.VectorSize(idx) >= vec.Size {
			return ir.NewInternal("vector component index %d out of range", idx)
		}
		chain.Offset += uint32(idx) * unit //nolint:gosec // G115: idx checked non-negative
		chain.Path = append(chain.Path, idx)
	} else {
		if r.MinUnit != 0 && unit%r.MinUnit != 0 {
			return ir.NewUnsupported(index,
				"dynamic stride %d below the target's %d-byte addressable unit", unit, r.MinUnit)
		}
		chain.Dynamic = append(chain.Dynamic, DynamicTerm{Index: index, Stride: unit})
		chain.Path = append(chain.Path, -1)
	}

	chain.Terminal = true
	chain.Type = r.scalarHandle(vec.Scalar)
	return nil
}

// scalarHandle finds the handle of a scalar type in the module arena.
func (r *Resolver) scalarHandle(s ir.ScalarType) ir.TypeHandle {
	module := r.Registry.Module()
	for h := range module.Types {
		if inner, ok := module.Types[h].Inner.(ir.ScalarType); ok && inner == s {
			return ir.TypeHandle(h) //nolint:gosec // G115: arena index
		}
	}
	return 0
}

// ChainFromOffset maps a byte offset inside a struct back to the member
// selection path that produced it under the same packing standard. It is
// the inverse of the constant part of Resolve for struct/array nesting.
func ChainFromOffset(module *ir.Module, handle ir.TypeHandle, offset uint32, packing Packing) ([]int64, bool) {
	var path []int64
	for {
		if int(handle) >= len(module.Types) {
			return nil, false
		}
		switch inner := module.Types[handle].Inner.(type) {
		case ir.StructType:
			found := false
			for i := len(inner.Members) - 1; i >= 0; i-- {
				m := &inner.Members[i]
				if offset >= m.Offset {
					path = append(path, int64(i))
					offset -= m.Offset
					handle = m.Type
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}

		case ir.ArrayType:
			stride := inner.Stride
			if stride == 0 {
				stride = ArrayStride(module, handle, packing)
			}
			idx := offset / stride
			if inner.Size.Constant != nil && idx >= *inner.Size.Constant {
				return nil, false
			}
			path = append(path, int64(idx))
			offset -= idx * stride
			handle = inner.Base

		default:
			return path, offset == 0
		}
	}
}
