// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// LoopShape names the structured form a loop header can take.
type LoopShape uint8

const (
	// LoopShapeFor has its test in a dedicated block the header
	// branches into unconditionally (the glslang encoding).
	LoopShapeFor LoopShape = iota

	// LoopShapeWhile has its test directly in the header's own
	// conditional branch.
	LoopShapeWhile

	// LoopShapeDoWhile has its test at the bottom, in the continue
	// block's conditional back-branch.
	LoopShapeDoWhile

	// LoopShapeComplex is the generic fallback: "for (;;)" wrapping
	// explicit break/continue control.
	LoopShapeComplex
)

// String returns a human-readable shape name.
func (s LoopShape) String() string {
	switch s {
	case LoopShapeFor:
		return "ForLoop"
	case LoopShapeWhile:
		return "WhileLoop"
	case LoopShapeDoWhile:
		return "DoWhileLoop"
	default:
		return "ComplexLoop"
	}
}

// LoopInfo is the classifier's verdict for one loop header.
type LoopInfo struct {
	Shape    LoopShape
	Header   ir.BlockID
	Merge    ir.BlockID
	Continue ir.BlockID

	// Body is the first block of the loop body.
	Body ir.BlockID

	// TestBlock holds the loop test: the header itself for while
	// shapes, the direct successor for for shapes, the continue block
	// for do-while shapes. Zero for complex loops without a single
	// test.
	TestBlock ir.BlockID

	// Condition is the test value. Zero for complex loops.
	Condition ir.ValueID

	// Negate is set when the condition's true edge exits the loop, so
	// the emitted test must invert it.
	Negate bool
}

// ClassifyLoop inspects a loop header once and names its shape. It tries
// the three specific strategies in order before falling back to the
// generic form; a header demoted by an earlier pass, or one whose
// continue block was marked for re-inlining, skips detection entirely.
// Speculative assumptions the classifier cannot check
// statically (header instructions staying silent once forced
// temporaries are applied) are verified by the emitter, which demotes
// the header and schedules another pass when they fail. The only
// decision recorded here is the do-while demotion for loops whose
// continue block is too complex to fold into the test.
func ClassifyLoop(reg *ir.Registry, decisions *Decisions, header *ir.Block) LoopInfo {
	info := LoopInfo{
		Shape:    LoopShapeComplex,
		Header:   header.ID,
		Merge:    header.Merge,
		Continue: header.Continue,
	}

	if decisions.IsComplex(header.ID) || decisions.IsInlineContinue(header.ID) {
		return info
	}

	if fl, ok := classifyDirectFor(reg, header); ok {
		return fl
	}
	if wl, ok := classifySelectWhile(reg, header); ok {
		return wl
	}
	if dw, ok := classifyDoWhile(reg, decisions, header); ok {
		return dw
	}

	return info
}

// classifyDirectFor recognizes the encoding where the header branches
// unconditionally into a block whose own conditional branch is the
// effective loop test.
func classifyDirectFor(reg *ir.Registry, header *ir.Block) (LoopInfo, bool) {
	br, ok := header.Terminator.(ir.Branch)
	if !ok {
		return LoopInfo{}, false
	}
	test := reg.Block(br.Target)
	if test == nil || test.ID == header.Continue || test.ID == header.Merge {
		return LoopInfo{}, false
	}
	// An annotated test block heads its own construct (an if or a
	// nested loop), not this loop's test.
	if test.MergeKind != ir.MergeNone {
		return LoopInfo{}, false
	}
	cond, ok := test.Terminator.(ir.CondBranch)
	if !ok {
		return LoopInfo{}, false
	}

	info := LoopInfo{
		Shape:     LoopShapeFor,
		Header:    header.ID,
		Merge:     header.Merge,
		Continue:  header.Continue,
		TestBlock: test.ID,
		Condition: cond.Condition,
	}
	switch {
	case noopPath(reg, cond.False, header.Merge):
		info.Body = cond.True
	case noopPath(reg, cond.True, header.Merge):
		info.Body = cond.False
		info.Negate = true
	default:
		return LoopInfo{}, false
	}
	// The test block's instructions must all be silently forwardable;
	// stores or calls there cannot move into a loop condition.
	if !silentBlock(test) || !silentBlock(header) {
		return LoopInfo{}, false
	}
	return info, true
}

// classifySelectWhile recognizes a header whose own conditional branch
// is directly usable as the loop test, with one branch target being a
// no-op path to the merge block.
func classifySelectWhile(reg *ir.Registry, header *ir.Block) (LoopInfo, bool) {
	cond, ok := header.Terminator.(ir.CondBranch)
	if !ok {
		return LoopInfo{}, false
	}

	info := LoopInfo{
		Shape:     LoopShapeWhile,
		Header:    header.ID,
		Merge:     header.Merge,
		Continue:  header.Continue,
		TestBlock: header.ID,
		Condition: cond.Condition,
	}
	switch {
	case noopPath(reg, cond.False, header.Merge) && cond.True != header.Merge:
		info.Body = cond.True
	case noopPath(reg, cond.True, header.Merge) && cond.False != header.Merge:
		info.Body = cond.False
		info.Negate = true
	default:
		return LoopInfo{}, false
	}
	if !silentBlock(header) {
		return LoopInfo{}, false
	}
	// A single-block do-while also matches this pattern when the
	// continue target is the header itself; prefer the more specific
	// bottom-test shape there.
	if header.Continue == header.ID {
		return LoopInfo{}, false
	}
	return info, true
}

// classifyDoWhile recognizes a bottom-test loop: the header enters the
// body unconditionally and the continue block's conditional branch
// decides between the back-edge and the merge.
func classifyDoWhile(reg *ir.Registry, decisions *Decisions, header *ir.Block) (LoopInfo, bool) {
	cont := reg.Block(header.Continue)
	if cont == nil {
		return LoopInfo{}, false
	}

	condTerm, ok := cont.Terminator.(ir.CondBranch)
	if !ok {
		return LoopInfo{}, false
	}

	info := LoopInfo{
		Shape:     LoopShapeDoWhile,
		Header:    header.ID,
		Merge:     header.Merge,
		Continue:  header.Continue,
		TestBlock: cont.ID,
		Condition: condTerm.Condition,
	}
	switch {
	case condTerm.True == header.ID && noopPath(reg, condTerm.False, header.Merge):
	case condTerm.False == header.ID && noopPath(reg, condTerm.True, header.Merge):
		info.Negate = true
	default:
		return LoopInfo{}, false
	}

	switch term := header.Terminator.(type) {
	case ir.Branch:
		info.Body = term.Target
	case ir.CondBranch:
		// Single-block loop: the header is its own continue block.
		if header.Continue != header.ID {
			return LoopInfo{}, false
		}
		info.Body = header.ID
	default:
		return LoopInfo{}, false
	}

	// A continue block with visible statements beyond the test cannot
	// fold into "while (cond)"; it must be re-inlined at every continue
	// site instead, which is the complex form.
	if cont.ID != header.ID && !silentBlock(cont) {
		decisions.MarkInlineContinue(header.ID)
		return LoopInfo{}, false
	}
	return info, true
}

// noopPath reports whether from reaches to without visible effects:
// either directly, or over empty blocks with direct branches.
func noopPath(reg *ir.Registry, from, to ir.BlockID) bool {
	for steps := 0; steps < 8; steps++ {
		if from == to {
			return true
		}
		b := reg.Block(from)
		if b == nil || len(b.Instructions) > 0 || len(b.Phis) > 0 {
			return false
		}
		br, ok := b.Terminator.(ir.Branch)
		if !ok {
			return false
		}
		from = br.Target
	}
	return false
}

// silentBlock reports whether a block's instructions can all vanish into
// forwarded expressions: no stores, no calls.
func silentBlock(b *ir.Block) bool {
	for i := range b.Instructions {
		switch b.Instructions[i].Op.(type) {
		case ir.OpStore, ir.OpCall:
			return false
		}
	}
	return true
}
