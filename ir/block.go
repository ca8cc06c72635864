// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ir

// Block represents a basic block: a straight-line instruction sequence
// with exactly one terminator. Structured-control annotations (merge and
// continue targets) are carried alongside the terminator and drive the
// reconstruction in the recon package.
type Block struct {
	ID BlockID

	// Instructions in execution order. Side-effect-only instructions
	// (stores) have Result zero.
	Instructions []Instruction

	// Terminator is the block's single terminating branch.
	Terminator Terminator

	// MergeKind says which structured construct this block heads.
	MergeKind MergeKind

	// Merge is the block where divergent paths reunite. Zero unless
	// MergeKind is MergeSelection or MergeLoop.
	Merge BlockID

	// Continue is the loop continue target. Zero unless MergeKind is
	// MergeLoop.
	Continue BlockID

	// LoopDominator points back at the header of the innermost loop
	// containing this block. Zero outside any loop.
	LoopDominator BlockID

	// Phis are resolved by copy-assignment on every incoming edge.
	Phis []Phi
}

// MergeKind classifies a block's structured-control annotation.
type MergeKind uint8

const (
	MergeNone MergeKind = iota
	MergeSelection
	MergeLoop
)

// String returns a human-readable merge kind name.
func (k MergeKind) String() string {
	switch k {
	case MergeNone:
		return "None"
	case MergeSelection:
		return "SelectionMerge"
	case MergeLoop:
		return "LoopMerge"
	default:
		return "Unknown"
	}
}

// Terminator represents the terminating branch of a basic block.
type Terminator interface {
	terminator()
}

// Branch transfers control to a single successor.
type Branch struct {
	Target BlockID
}

func (Branch) terminator() {}

// CondBranch transfers control to True or False depending on Condition.
// The true target is always visited first by the reconstructor so output
// stays deterministic.
type CondBranch struct {
	Condition ValueID
	True      BlockID
	False     BlockID
}

func (CondBranch) terminator() {}

// SwitchTerm dispatches on an integer selector. Default is mandatory.
type SwitchTerm struct {
	Selector ValueID
	Cases    []SwitchCase
	Default  BlockID
}

func (SwitchTerm) terminator() {}

// SwitchCase associates one case label with its target block. Several
// labels may share a target.
type SwitchCase struct {
	Value  int64
	Target BlockID
}

// Return terminates the function. Value is zero for void returns.
type Return struct {
	Value ValueID
}

func (Return) terminator() {}

// Kill aborts execution abnormally (fragment discard).
type Kill struct{}

func (Kill) terminator() {}

// Unreachable marks a block that valid executions never reach.
type Unreachable struct{}

func (Unreachable) terminator() {}

// Phi associates a variable with one value per predecessor block. When
// control transfers from Pred, Variable is copy-assigned from Value
// before the target block runs.
type Phi struct {
	Variable VarID
	Sources  []PhiSource
}

// PhiSource is one incoming edge of a Phi.
type PhiSource struct {
	Pred  BlockID
	Value ValueID
}

// Successors returns the blocks a terminator can transfer to, in the
// deterministic order the reconstructor visits them: true before false,
// cases in declaration order, default last.
func Successors(t Terminator) []BlockID {
	switch term := t.(type) {
	case Branch:
		return []BlockID{term.Target}
	case CondBranch:
		return []BlockID{term.True, term.False}
	case SwitchTerm:
		out := make([]BlockID, 0, len(term.Cases)+1)
		for _, c := range term.Cases {
			out = append(out, c.Target)
		}
		if term.Default != 0 {
			out = append(out, term.Default)
		}
		return out
	case Return, Kill, Unreachable:
		return nil
	default:
		return nil
	}
}
