// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// TypeName returns the GLSL spelling of a type. Pointers spell as their
// pointee; GLSL has no pointer types.
func (w *Writer) TypeName(h ir.TypeHandle) string {
	t := w.reg.Type(h)
	if t == nil {
		return "void"
	}

	switch inner := t.Inner.(type) {
	case ir.ScalarType:
		return scalarToGLSL(inner)
	case ir.VectorType:
		return vectorToGLSL(inner)
	case ir.MatrixType:
		return matrixToGLSL(inner)
	case ir.ArrayType:
		return w.arrayToGLSL(inner)
	case ir.StructType:
		return w.structName(h)
	case ir.PointerType:
		return w.TypeName(inner.Base)
	default:
		return "unknown_type"
	}
}

// scalarToGLSL returns the GLSL name for a scalar type.
func scalarToGLSL(t ir.ScalarType) string {
	switch t.Kind {
	case ir.ScalarBool:
		return "bool"
	case ir.ScalarSint:
		if t.Width == 8 {
			return "int64_t" // Requires extension
		}
		return "int"
	case ir.ScalarUint:
		if t.Width == 8 {
			return "uint64_t" // Requires extension
		}
		return "uint"
	case ir.ScalarFloat:
		switch t.Width {
		case 2:
			return "float16_t" // Requires extension
		case 8:
			return "double"
		default:
			return "float"
		}
	}
	return "int" // Default fallback
}

// vectorToGLSL returns the GLSL name for a vector type.
func vectorToGLSL(t ir.VectorType) string {
	prefix := ""
	switch t.Scalar.Kind {
	case ir.ScalarSint:
		prefix = "i"
	case ir.ScalarUint:
		prefix = "u"
	case ir.ScalarBool:
		prefix = "b"
	case ir.ScalarFloat:
		if t.Scalar.Width == 8 {
			prefix = "d"
		}
	}
	return fmt.Sprintf("%svec%d", prefix, t.Size)
}

// matrixToGLSL returns the GLSL name for a matrix type. GLSL spells a
// matrix columns-by-rows; square matrices use the short form.
func matrixToGLSL(t ir.MatrixType) string {
	prefix := ""
	if t.Scalar.Kind == ir.ScalarFloat && t.Scalar.Width == 8 {
		prefix = "d"
	}
	if t.Columns == t.Rows {
		return fmt.Sprintf("%smat%d", prefix, t.Columns)
	}
	return fmt.Sprintf("%smat%dx%d", prefix, t.Columns, t.Rows)
}

// arrayToGLSL returns the GLSL name for an array type, sized or runtime.
func (w *Writer) arrayToGLSL(t ir.ArrayType) string {
	base := w.TypeName(t.Base)
	if t.Size.Constant != nil {
		return fmt.Sprintf("%s[%d]", base, *t.Size.Constant)
	}
	return base + "[]"
}
