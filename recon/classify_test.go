// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"testing"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// forLoopModule encodes the glslang for shape: the header branches into
// a dedicated test block whose conditional exits to the merge.
func forLoopModule() (*ir.Module, ir.BlockID) {
	b := ir.NewBuilder()
	i32 := b.I32()

	fn := b.Function("main", nil)
	i := fn.Var("i", i32)
	b.SetLoopVar(i)

	entry := fn.Block()
	header := fn.Block()
	test := fn.Block()
	body := fn.Block()
	cont := fn.Block()
	merge := fn.Block()

	entry.Store(i, b.Int32(0))
	entry.Branch(header.ID())

	header.LoopMerge(merge.ID(), cont.ID())
	header.Branch(test.ID())

	cmp := test.Binary(b.BoolType(), ir.BinLess, test.Load(i32, i), b.Int32(10))
	test.CondBranch(cmp, body.ID(), merge.ID())
	test.LoopDominator(header.ID())

	body.Branch(cont.ID())
	body.LoopDominator(header.ID())

	cont.Store(i, cont.Binary(i32, ir.BinAdd, cont.Load(i32, i), b.Int32(1)))
	cont.Branch(header.ID())
	cont.LoopDominator(header.ID())

	merge.Return(0)
	return b.Finish(), header.ID()
}

func whileLoopModule() (*ir.Module, ir.BlockID) {
	b := ir.NewBuilder()
	i32 := b.I32()

	fn := b.Function("main", nil)
	n := fn.Var("n", i32)

	entry := fn.Block()
	header := fn.Block()
	body := fn.Block()
	cont := fn.Block()
	merge := fn.Block()

	entry.Store(n, b.Int32(10))
	entry.Branch(header.ID())

	header.LoopMerge(merge.ID(), cont.ID())
	cmp := header.Binary(b.BoolType(), ir.BinGreater, header.Load(i32, n), b.Int32(0))
	header.CondBranch(cmp, body.ID(), merge.ID())

	body.Store(n, body.Binary(i32, ir.BinSub, body.Load(i32, n), b.Int32(1)))
	body.Branch(cont.ID())
	body.LoopDominator(header.ID())

	cont.Branch(header.ID())
	cont.LoopDominator(header.ID())

	merge.Return(0)
	return b.Finish(), header.ID()
}

func doWhileModule() (*ir.Module, ir.BlockID) {
	b := ir.NewBuilder()
	i32 := b.I32()

	fn := b.Function("main", nil)
	i := fn.Var("i", i32)

	entry := fn.Block()
	header := fn.Block()
	body := fn.Block()
	cont := fn.Block()
	merge := fn.Block()

	entry.Store(i, b.Int32(0))
	entry.Branch(header.ID())

	header.LoopMerge(merge.ID(), cont.ID())
	header.Branch(body.ID())

	body.Store(i, body.Binary(i32, ir.BinAdd, body.Load(i32, i), b.Int32(1)))
	body.Branch(cont.ID())
	body.LoopDominator(header.ID())

	cmp := cont.Binary(b.BoolType(), ir.BinLess, cont.Load(i32, i), b.Int32(10))
	cont.CondBranch(cmp, header.ID(), merge.ID())
	cont.LoopDominator(header.ID())

	merge.Return(0)
	return b.Finish(), header.ID()
}

func TestClassifyForLoop(t *testing.T) {
	m, header := forLoopModule()
	reg := ir.NewRegistry(m)

	info := ClassifyLoop(reg, NewDecisions(), reg.Block(header))
	if info.Shape != LoopShapeFor {
		t.Fatalf("shape = %v, want ForLoop", info.Shape)
	}
	if info.Negate {
		t.Error("true edge enters the body, no negation expected")
	}
	if info.TestBlock == 0 || info.TestBlock == header {
		t.Errorf("test block = %d, want the dedicated successor", info.TestBlock)
	}
}

func TestClassifyForLoopNegated(t *testing.T) {
	m, header := forLoopModule()
	reg := ir.NewRegistry(m)

	// Swap the test's edges: the true edge now exits the loop.
	test := reg.Block(header).Terminator.(ir.Branch).Target
	cond := reg.Block(test).Terminator.(ir.CondBranch)
	reg.Block(test).Terminator = ir.CondBranch{Condition: cond.Condition, True: cond.False, False: cond.True}

	info := ClassifyLoop(reg, NewDecisions(), reg.Block(header))
	if info.Shape != LoopShapeFor {
		t.Fatalf("shape = %v, want ForLoop", info.Shape)
	}
	if !info.Negate {
		t.Error("true edge exits the loop, expected negation")
	}
	if info.Body != cond.True {
		t.Errorf("body = %d, want the false edge %d", info.Body, cond.True)
	}
}

func TestClassifyWhileLoop(t *testing.T) {
	m, header := whileLoopModule()
	reg := ir.NewRegistry(m)

	info := ClassifyLoop(reg, NewDecisions(), reg.Block(header))
	if info.Shape != LoopShapeWhile {
		t.Fatalf("shape = %v, want WhileLoop", info.Shape)
	}
	if info.TestBlock != header {
		t.Errorf("test block = %d, want the header %d", info.TestBlock, header)
	}
}

func TestClassifyDoWhile(t *testing.T) {
	m, header := doWhileModule()
	reg := ir.NewRegistry(m)

	info := ClassifyLoop(reg, NewDecisions(), reg.Block(header))
	if info.Shape != LoopShapeDoWhile {
		t.Fatalf("shape = %v, want DoWhileLoop", info.Shape)
	}
	if info.TestBlock == header {
		t.Error("bottom test should live in the continue block")
	}
}

func TestClassifySingleBlockDoWhile(t *testing.T) {
	b := ir.NewBuilder()
	i32 := b.I32()

	fn := b.Function("main", nil)
	i := fn.Var("i", i32)

	entry := fn.Block()
	header := fn.Block()
	merge := fn.Block()

	entry.Store(i, b.Int32(0))
	entry.Branch(header.ID())

	header.LoopMerge(merge.ID(), header.ID())
	v := header.Load(i32, i)
	next := header.Binary(i32, ir.BinAdd, v, b.Int32(1))
	header.Store(i, next)
	cmp := header.Binary(b.BoolType(), ir.BinLess, header.Load(i32, i), b.Int32(10))
	header.CondBranch(cmp, header.ID(), merge.ID())

	merge.Return(0)

	reg := ir.NewRegistry(b.Finish())
	info := ClassifyLoop(reg, NewDecisions(), reg.Block(header.ID()))
	if info.Shape != LoopShapeDoWhile {
		t.Fatalf("shape = %v, want DoWhileLoop", info.Shape)
	}
	if info.Body != header.ID() {
		t.Errorf("body = %d, want the header itself", info.Body)
	}
}

func TestClassifyDemotedHeaderStaysComplex(t *testing.T) {
	m, header := whileLoopModule()
	reg := ir.NewRegistry(m)

	dec := NewDecisions()
	dec.MarkComplex(header)

	info := ClassifyLoop(reg, dec, reg.Block(header))
	if info.Shape != LoopShapeComplex {
		t.Fatalf("shape = %v, want ComplexLoop for a demoted header", info.Shape)
	}
}

func TestClassifyNoisyContinueMarksInline(t *testing.T) {
	m, header := doWhileModule()
	reg := ir.NewRegistry(m)

	// Move the counter store into the continue block; the test can no
	// longer fold into a do-while.
	hdr := reg.Block(header)
	cont := reg.Block(hdr.Continue)
	body := reg.Block(reg.Block(header).Terminator.(ir.Branch).Target)
	cont.Instructions = append(body.Instructions, cont.Instructions...)
	body.Instructions = nil

	dec := NewDecisions()
	info := ClassifyLoop(reg, dec, hdr)
	if info.Shape != LoopShapeComplex {
		t.Fatalf("shape = %v, want ComplexLoop", info.Shape)
	}
	if !dec.IsInlineContinue(header) {
		t.Error("noisy continue block not marked for inlining")
	}
}

func TestClassifyInlineContinueSticky(t *testing.T) {
	m, header := doWhileModule()
	reg := ir.NewRegistry(m)

	hdr := reg.Block(header)
	cont := reg.Block(hdr.Continue)
	body := reg.Block(hdr.Terminator.(ir.Branch).Target)
	cont.Instructions = append(body.Instructions, cont.Instructions...)
	body.Instructions = nil

	dec := NewDecisions()
	ClassifyLoop(reg, dec, hdr)
	count := dec.Count()

	// Silence the continue block again; the recorded decision still
	// pins the generic form. Decisions are never retracted.
	cont.Instructions = nil

	info := ClassifyLoop(reg, dec, hdr)
	if info.Shape != LoopShapeComplex {
		t.Fatalf("shape = %v, want ComplexLoop from the recorded decision", info.Shape)
	}
	if dec.Count() != count {
		t.Errorf("re-classification grew the decision count: %d -> %d", count, dec.Count())
	}
}

func TestNoopPath(t *testing.T) {
	m, header := forLoopModule()
	reg := ir.NewRegistry(m)

	hdr := reg.Block(header)
	test := hdr.Terminator.(ir.Branch).Target

	if !noopPath(reg, hdr.Merge, hdr.Merge) {
		t.Error("identity path rejected")
	}
	if noopPath(reg, test, hdr.Merge) {
		t.Error("path through a conditional accepted")
	}
}
