// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"strconv"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// Compliance reports the result of checking a struct's declared layout
// against a packing standard.
type Compliance struct {
	// OK is true when every member matches.
	OK bool

	// Member is the index of the first mismatching member, -1 when OK.
	Member int

	// Reason describes the first mismatch, empty when OK.
	Reason string
}

// IsLayoutCompliant recomputes each member's expected offset, alignment
// and array stride from the type alone and compares against the declared
// offsets. The first mismatching member index is reported. A struct
// whose final member is a runtime-sized trailing array is exempted from
// strict size checks on that member only.
func IsLayoutCompliant(module *ir.Module, handle ir.TypeHandle, packing Packing) Compliance {
	if int(handle) >= len(module.Types) {
		return Compliance{Member: -1, Reason: "type handle out of range"}
	}
	st, ok := module.Types[handle].Inner.(ir.StructType)
	if !ok {
		return Compliance{Member: -1, Reason: "not a struct type"}
	}

	offset := uint32(0)
	for i := range st.Members {
		m := &st.Members[i]

		align := Alignment(module, m.Type, packing)
		expected := alignedOffset(offset, align)

		if m.Offset < expected {
			return Compliance{
				Member: i,
				Reason: "declared offset " + itoa(m.Offset) + " below required " + itoa(expected),
			}
		}
		if m.Offset%align != 0 {
			return Compliance{
				Member: i,
				Reason: "declared offset " + itoa(m.Offset) + " not aligned to " + itoa(align),
			}
		}

		if c := checkMemberStrides(module, m, packing); c.Reason != "" {
			c.Member = i
			return c
		}

		trailing := i == len(st.Members)-1 && isRuntimeArray(module, m.Type)
		if trailing {
			// Size of a runtime array is unknowable; offset and stride
			// checks above still apply.
			continue
		}
		offset = m.Offset + Size(module, m.Type, packing)
	}

	return Compliance{OK: true, Member: -1}
}

// checkMemberStrides verifies declared array and matrix strides against
// the standard's computed values.
func checkMemberStrides(module *ir.Module, m *ir.StructMember, packing Packing) Compliance {
	if int(m.Type) >= len(module.Types) {
		return Compliance{Reason: "member type handle out of range"}
	}

	switch inner := module.Types[m.Type].Inner.(type) {
	case ir.ArrayType:
		if inner.Stride != 0 {
			if want := ArrayStride(module, m.Type, packing); inner.Stride != want {
				return Compliance{Reason: "declared array stride " + itoa(inner.Stride) + ", standard requires " + itoa(want)}
			}
		}
	case ir.MatrixType:
		if m.MatrixStride != 0 {
			if want := MatrixStride(module, m.Type, packing, m.RowMajor); m.MatrixStride != want {
				return Compliance{Reason: "declared matrix stride " + itoa(m.MatrixStride) + ", standard requires " + itoa(want)}
			}
		}
	}
	return Compliance{}
}

func isRuntimeArray(module *ir.Module, handle ir.TypeHandle) bool {
	if int(handle) >= len(module.Types) {
		return false
	}
	arr, ok := module.Types[handle].Inner.(ir.ArrayType)
	return ok && arr.Size.Constant == nil
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
