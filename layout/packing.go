// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package layout computes and verifies memory layouts for buffer-backed
// types: alignment and stride rules per packing standard, access-chain
// resolution into byte offsets, and whole-struct compliance checks.
package layout

import (
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// Packing identifies a packing standard: a named set of alignment and
// stride rules governing how struct members are laid out in a buffer.
type Packing uint8

const (
	// PackingStd430 is the tightly-packed storage-buffer standard.
	PackingStd430 Packing = iota

	// PackingStd140 is the padded uniform-buffer standard: array strides
	// and struct alignments round up to 16 bytes.
	PackingStd140

	// PackingScalar aligns everything to its scalar component.
	PackingScalar

	// PackingCbuffer is the target-native constant-buffer standard. Its
	// register rules coincide with std140 here: the 2N/4N vector
	// alignments already keep every vector inside one 16-byte register.
	PackingCbuffer
)

// String returns the packing standard's conventional name.
func (p Packing) String() string {
	switch p {
	case PackingStd430:
		return "std430"
	case PackingStd140:
		return "std140"
	case PackingScalar:
		return "scalar"
	case PackingCbuffer:
		return "cbuffer"
	default:
		return "unknown"
	}
}

// vec4Alignment is the register size padded standards round up to.
const vec4Alignment = 16

// alignedOffset returns offset rounded up to alignment (a power of two).
func alignedOffset(offset, alignment uint32) uint32 {
	if alignment == 0 {
		return offset
	}
	return (offset + alignment - 1) &^ (alignment - 1)
}

// Alignment returns the required alignment in bytes of a type under a
// packing standard.
func Alignment(module *ir.Module, handle ir.TypeHandle, packing Packing) uint32 {
	if int(handle) >= len(module.Types) {
		return 4
	}

	switch inner := module.Types[handle].Inner.(type) {
	case ir.ScalarType:
		return uint32(inner.Width)

	case ir.VectorType:
		if packing == PackingScalar {
			return uint32(inner.Scalar.Width)
		}
		// vec2 aligns to 2N, vec3 and vec4 to 4N.
		switch inner.Size {
		case ir.Vec2:
			return 2 * uint32(inner.Scalar.Width)
		default:
			return 4 * uint32(inner.Scalar.Width)
		}

	case ir.MatrixType:
		// A matrix aligns like an array of its column vectors.
		col := ir.VectorType{Size: inner.Rows, Scalar: inner.Scalar}
		align := vectorAlignment(col, packing)
		if packing == PackingStd140 || packing == PackingCbuffer {
			align = alignedOffset(align, vec4Alignment)
		}
		return align

	case ir.ArrayType:
		align := Alignment(module, inner.Base, packing)
		if packing == PackingStd140 || packing == PackingCbuffer {
			align = alignedOffset(align, vec4Alignment)
		}
		return align

	case ir.StructType:
		align := uint32(1)
		for i := range inner.Members {
			if a := Alignment(module, inner.Members[i].Type, packing); a > align {
				align = a
			}
		}
		if packing == PackingStd140 || packing == PackingCbuffer {
			align = alignedOffset(align, vec4Alignment)
		}
		return align

	case ir.PointerType:
		return Alignment(module, inner.Base, packing)

	default:
		return 4
	}
}

func vectorAlignment(v ir.VectorType, packing Packing) uint32 {
	if packing == PackingScalar {
		return uint32(v.Scalar.Width)
	}
	if v.Size == ir.Vec2 {
		return 2 * uint32(v.Scalar.Width)
	}
	return 4 * uint32(v.Scalar.Width)
}

// Size returns the size in bytes of a type under a packing standard.
// Runtime-sized arrays report zero.
func Size(module *ir.Module, handle ir.TypeHandle, packing Packing) uint32 {
	if int(handle) >= len(module.Types) {
		return 4
	}

	switch inner := module.Types[handle].Inner.(type) {
	case ir.ScalarType:
		return uint32(inner.Width)

	case ir.VectorType:
		return uint32(inner.Size) * uint32(inner.Scalar.Width)

	case ir.MatrixType:
		return uint32(inner.Columns) * MatrixStride(module, handle, packing, false)

	case ir.ArrayType:
		if inner.Size.Constant == nil {
			return 0
		}
		return ArrayStride(module, handle, packing) * (*inner.Size.Constant)

	case ir.StructType:
		size := uint32(0)
		for i := range inner.Members {
			m := &inner.Members[i]
			end := m.Offset + Size(module, m.Type, packing)
			if end > size {
				size = end
			}
		}
		return alignedOffset(size, Alignment(module, handle, packing))

	case ir.PointerType:
		return Size(module, inner.Base, packing)

	default:
		return 4
	}
}

// ArrayStride returns the element stride an array type should use under
// a packing standard. For non-array handles it returns the padded
// element size an array of that type would use.
func ArrayStride(module *ir.Module, handle ir.TypeHandle, packing Packing) uint32 {
	if int(handle) >= len(module.Types) {
		return 4
	}

	elem := handle
	if arr, ok := module.Types[handle].Inner.(ir.ArrayType); ok {
		elem = arr.Base
	}

	stride := alignedOffset(Size(module, elem, packing), Alignment(module, elem, packing))
	if packing == PackingStd140 || packing == PackingCbuffer {
		stride = alignedOffset(stride, vec4Alignment)
	}
	return stride
}

// MatrixStride returns the stride between columns (or rows, when stored
// row-major) of a matrix type under a packing standard.
func MatrixStride(module *ir.Module, handle ir.TypeHandle, packing Packing, rowMajor bool) uint32 {
	if int(handle) >= len(module.Types) {
		return vec4Alignment
	}
	mat, ok := module.Types[handle].Inner.(ir.MatrixType)
	if !ok {
		return vec4Alignment
	}

	// The stored vector is a column normally, a row when transposed.
	n := mat.Rows
	if rowMajor {
		n = mat.Columns
	}
	stride := vectorAlignment(ir.VectorType{Size: n, Scalar: mat.Scalar}, packing)
	// The stored vector occupies at least its own size.
	if s := uint32(n) * uint32(mat.Scalar.Width); s > stride {
		stride = s
	}
	if packing == PackingStd140 || packing == PackingCbuffer {
		stride = alignedOffset(stride, vec4Alignment)
	}
	return stride
}
