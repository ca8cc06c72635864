// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"math"
	"strconv"
	"strings"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// expr renders a value as a target expression string, expanding
// forwarded definitions inline and substituting temporary names where
// values were materialized. Every inline expansion counts as a read.
func (e *funcEmitter) expr(id ir.ValueID) string {
	if name, ok := e.tr.TempName(id); ok {
		return name
	}
	e.tr.TrackRead(id)

	v := e.reg.Value(id)
	if v == nil {
		return "/* unknown */"
	}
	return e.render(v)
}

// render spells a value's defining expression, ignoring any bound
// temporary. Materialization sites use it to produce the initializer of
// the temporary itself.
func (e *funcEmitter) render(v *ir.Value) string {
	switch op := v.Op.(type) {
	case ir.OpConstant:
		return e.constantExpr(op.Constant)

	case ir.OpParam:
		return e.fn.Params[op.Index].Name

	case ir.OpLoad:
		return e.varName(op.Variable)

	case ir.OpAccessChain:
		return e.chainExpr(op)

	case ir.OpBinary:
		return e.binaryExpr(v, op)

	case ir.OpUnary:
		operand := e.expr(op.Operand)
		if op.Operator == ir.UnNegate || op.Operator == ir.UnNot || op.Operator == ir.UnBitNot {
			return op.Operator.String() + parenUnless(operand, isLeaf(operand))
		}
		return op.Operator.String() + "(" + operand + ")"

	case ir.OpCompose:
		parts := make([]string, len(op.Components))
		for i, c := range op.Components {
			parts[i] = e.expr(c)
		}
		return e.sink.TypeName(v.Type) + "(" + strings.Join(parts, ", ") + ")"

	case ir.OpSelect:
		return "(" + e.expr(op.Condition) + " ? " + e.expr(op.True) + " : " + e.expr(op.False) + ")"

	case ir.OpTranspose:
		return e.transposeExpr(op)

	case ir.OpCall:
		// Calls are never forwarded, so reaching here means the call's
		// temporary was not declared yet; render the call itself.
		return e.callExpr(op)

	default:
		return "/* unhandled op */"
	}
}

// callExpr renders a function call expression.
func (e *funcEmitter) callExpr(op ir.OpCall) string {
	callee := e.reg.Module().Functions[op.Function].Name
	args := make([]string, len(op.Arguments))
	for i, a := range op.Arguments {
		args[i] = e.expr(a)
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

// binaryExpr renders a binary op, handling matrix products over
// transposed storage: one row-major operand reverses the operand order,
// two wrap the reversed product in an explicit transpose.
func (e *funcEmitter) binaryExpr(v *ir.Value, op ir.OpBinary) string {
	if op.Operator == ir.BinMul {
		lRow := e.rowMajorMatrix(op.Left)
		rRow := e.rowMajorMatrix(op.Right)
		switch {
		case lRow && rRow:
			return "transpose((" + e.expr(op.Right) + " * " + e.expr(op.Left) + "))"
		case lRow != rRow:
			return "(" + e.expr(op.Right) + " * " + e.expr(op.Left) + ")"
		}
	}
	return "(" + e.expr(op.Left) + " " + op.Operator.String() + " " + e.expr(op.Right) + ")"
}

// transposeExpr renders a transpose, cancelling doubled transposes and
// transposes of matrices whose row-major storage already is the
// transposed form.
func (e *funcEmitter) transposeExpr(op ir.OpTranspose) string {
	if inner := e.reg.Value(op.Operand); inner != nil {
		if _, bound := e.tr.TempName(op.Operand); !bound {
			if t2, ok := inner.Op.(ir.OpTranspose); ok {
				return e.expr(t2.Operand)
			}
		}
	}
	if e.rowMajorMatrix(op.Operand) {
		return e.expr(op.Operand)
	}
	return "transpose(" + e.expr(op.Operand) + ")"
}

// rowMajorMatrix reports whether a value is an access chain (or a
// forwarded alias of one) landing on a matrix member declared with
// row-major storage.
func (e *funcEmitter) rowMajorMatrix(id ir.ValueID) bool {
	if _, bound := e.tr.TempName(id); bound {
		return false
	}
	v := e.reg.Value(id)
	if v == nil {
		return false
	}
	chain, ok := v.Op.(ir.OpAccessChain)
	if !ok {
		return false
	}
	variable := e.reg.Variable(chain.Base)
	if variable == nil {
		return false
	}

	th := variable.Type
	rowMajor := false
	for _, idx := range chain.Indices {
		th = e.peelPointer(th)
		t := e.reg.Type(th)
		if t == nil {
			return false
		}
		switch inner := t.Inner.(type) {
		case ir.StructType:
			member, ok := e.reg.ConstantIndex(idx)
			if !ok || member < 0 || int(member) >= len(inner.Members) {
				return false
			}
			m := &inner.Members[member]
			if m.RowMajor {
				rowMajor = !rowMajor
			}
			th = m.Type
		case ir.ArrayType:
			th = inner.Base
		case ir.MatrixType, ir.VectorType:
			return false // indexed past the matrix level
		default:
			return false
		}
	}

	t := e.reg.Type(e.peelPointer(th))
	if t == nil {
		return false
	}
	_, isMatrix := t.Inner.(ir.MatrixType)
	return isMatrix && rowMajor
}

func (e *funcEmitter) peelPointer(th ir.TypeHandle) ir.TypeHandle {
	for {
		t := e.reg.Type(th)
		if t == nil {
			return th
		}
		ptr, ok := t.Inner.(ir.PointerType)
		if !ok {
			return th
		}
		th = ptr.Base
	}
}

// chainExpr renders an access chain as member selections and subscripts,
// following the indexed type at each step.
func (e *funcEmitter) chainExpr(op ir.OpAccessChain) string {
	variable := e.reg.Variable(op.Base)
	if variable == nil {
		return "/* bad chain */"
	}

	var sb strings.Builder
	sb.WriteString(e.varName(op.Base))

	th := variable.Type
	for _, idx := range op.Indices {
		th = e.peelPointer(th)
		t := e.reg.Type(th)
		if t == nil {
			sb.WriteString("[" + e.expr(idx) + "]")
			continue
		}
		switch inner := t.Inner.(type) {
		case ir.StructType:
			member, ok := e.reg.ConstantIndex(idx)
			if ok && member >= 0 && int(member) < len(inner.Members) {
				sb.WriteString("." + inner.Members[member].Name)
				th = inner.Members[member].Type
				continue
			}
			sb.WriteString("[" + e.expr(idx) + "]")
		case ir.ArrayType:
			sb.WriteString("[" + e.expr(idx) + "]")
			th = inner.Base
		case ir.MatrixType:
			sb.WriteString("[" + e.expr(idx) + "]")
			th = 0
		case ir.VectorType:
			sb.WriteString(vectorComponent(e, idx))
			th = 0
		default:
			sb.WriteString("[" + e.expr(idx) + "]")
		}
	}
	return sb.String()
}

// vectorComponent renders a vector index as a swizzle selection when the
// index is constant, a subscript otherwise.
func vectorComponent(e *funcEmitter, idx ir.ValueID) string {
	c, ok := e.reg.ConstantIndex(idx)
	if ok && c >= 0 && c < 4 {
		return "." + string("xyzw"[c])
	}
	return "[" + e.expr(idx) + "]"
}

// constantExpr renders a module constant as a literal.
func (e *funcEmitter) constantExpr(h ir.ConstantHandle) string {
	c := e.reg.Constant(h)
	if c == nil {
		return "/* bad constant */"
	}
	switch val := c.Value.(type) {
	case ir.ScalarValue:
		return scalarLiteral(val)
	case ir.CompositeValue:
		parts := make([]string, len(val.Components))
		for i, comp := range val.Components {
			parts[i] = e.constantExpr(comp)
		}
		return e.sink.TypeName(c.Type) + "(" + strings.Join(parts, ", ") + ")"
	case ir.SpecValue:
		if c.Name != "" {
			return c.Name
		}
		return scalarLiteral(ir.ScalarValue{Bits: val.Default, Kind: val.Kind})
	default:
		return "/* bad constant */"
	}
}

// scalarLiteral spells a scalar constant. Floats always carry a decimal
// point so the literal keeps its type.
func scalarLiteral(v ir.ScalarValue) string {
	switch v.Kind {
	case ir.ScalarSint:
		return strconv.FormatInt(int64(v.Bits), 10) //nolint:gosec // G115: sign reinterpretation is the point
	case ir.ScalarUint:
		return strconv.FormatUint(v.Bits, 10) + "u"
	case ir.ScalarFloat:
		return floatLiteral(math.Float64frombits(v.Bits))
	case ir.ScalarBool:
		if v.Bits != 0 {
			return "true"
		}
		return "false"
	default:
		return "/* bad scalar */"
	}
}

func floatLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 32)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// isLeaf reports whether a rendered expression needs no parentheses
// under a prefix operator.
func isLeaf(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '+', '-', '*', '/', '%', '<', '>', '=', '&', '|', '^', '?':
			return false
		}
	}
	return true
}

func parenUnless(s string, leaf bool) string {
	if leaf {
		return s
	}
	return "(" + s + ")"
}
