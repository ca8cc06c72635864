// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ir

// Validate checks the invariants the reconstruction relies on and
// returns a MalformedInput error for the first violation found. A
// module that passes is safe to hand to the recon package: later
// violations are internal errors, not input errors.
func Validate(module *Module) error {
	v := &validator{module: module, registry: NewRegistry(module)}
	return v.run()
}

type validator struct {
	module   *Module
	registry *Registry
}

func (v *validator) run() error {
	if err := v.validateArenas(); err != nil {
		return err
	}
	for fh := range v.module.Functions {
		if err := v.validateFunction(FunctionHandle(fh)); err != nil { //nolint:gosec // G115: fh is a valid slice index
			return err
		}
	}
	return nil
}

// validateArenas checks id uniqueness and reference resolution.
func (v *validator) validateArenas() error {
	seenBlocks := make(map[BlockID]struct{}, len(v.module.Blocks))
	for i := range v.module.Blocks {
		b := &v.module.Blocks[i]
		if b.ID == 0 {
			return NewMalformed(0, "block with reserved id 0")
		}
		if _, dup := seenBlocks[b.ID]; dup {
			return NewMalformed(b.ID, "duplicate block id")
		}
		seenBlocks[b.ID] = struct{}{}
	}

	seenValues := make(map[ValueID]struct{}, len(v.module.Values))
	for i := range v.module.Values {
		val := &v.module.Values[i]
		if val.ID == 0 {
			return &Error{Kind: ErrMalformed, Message: "value with reserved id 0"}
		}
		if _, dup := seenValues[val.ID]; dup {
			return &Error{Kind: ErrMalformed, Value: val.ID, Message: "duplicate value id"}
		}
		seenValues[val.ID] = struct{}{}

		for _, dep := range Operands(val.Op) {
			if v.registry.Value(dep) == nil {
				return &Error{Kind: ErrMalformed, Value: val.ID, Message: "operand references undefined value"}
			}
		}
		if dep := LoadedVariable(val.Op); dep != 0 && v.registry.Variable(dep) == nil {
			return &Error{Kind: ErrMalformed, Value: val.ID, Message: "op references undefined variable"}
		}
		if int(val.Type) >= len(v.module.Types) {
			return &Error{Kind: ErrMalformed, Value: val.ID, Message: "value type handle out of range"}
		}
	}

	return nil
}

//nolint:gocognit // Block invariants are a flat checklist; splitting hides it
func (v *validator) validateFunction(fh FunctionHandle) error {
	fn := &v.module.Functions[fh]
	if v.registry.Block(fn.Entry) == nil {
		return NewMalformed(fn.Entry, "function %q entry block undefined", fn.Name)
	}

	inFunc := make(map[BlockID]struct{}, len(fn.Blocks))
	for _, id := range fn.Blocks {
		inFunc[id] = struct{}{}
	}

	for _, id := range fn.Blocks {
		b := v.registry.Block(id)
		if b == nil {
			return NewMalformed(id, "function %q references undefined block", fn.Name)
		}

		// Exactly one terminator.
		if b.Terminator == nil {
			return NewMalformed(id, "block has no terminator")
		}
		for _, succ := range Successors(b.Terminator) {
			if _, ok := inFunc[succ]; !ok {
				return NewMalformed(id, "terminator targets block %d outside function", succ)
			}
		}

		if err := v.validateMerge(b, inFunc); err != nil {
			return err
		}
		if err := v.validatePhis(b); err != nil {
			return err
		}
	}

	return nil
}

// validateMerge checks structured-control annotations.
func (v *validator) validateMerge(b *Block, inFunc map[BlockID]struct{}) error {
	switch b.MergeKind {
	case MergeNone:
		if b.Merge != 0 || b.Continue != 0 {
			return NewMalformed(b.ID, "merge metadata on a block with MergeNone")
		}

	case MergeSelection:
		if b.Merge == 0 {
			return NewMalformed(b.ID, "SelectionMerge without a merge target")
		}
		switch b.Terminator.(type) {
		case CondBranch, SwitchTerm:
		default:
			return NewMalformed(b.ID, "SelectionMerge on a block without a dispatching terminator")
		}

	case MergeLoop:
		if b.Merge == 0 || b.Continue == 0 {
			return NewMalformed(b.ID, "LoopMerge requires merge and continue targets")
		}
		if _, ok := inFunc[b.Continue]; !ok {
			return NewMalformed(b.ID, "loop continue target %d outside function", b.Continue)
		}
		// The continue target must be reachable only via back-edges
		// into the loop: every predecessor (other than the header
		// itself) must sit inside the loop headed by this block. A
		// self-continue header is also the loop entry, so its incoming
		// edges are exempt.
		if b.Continue != b.ID {
			for _, pred := range v.registry.Predecessors(b.Continue) {
				if pred == b.ID {
					continue
				}
				if !v.insideLoop(pred, b.ID) {
					return NewMalformed(b.ID, "continue target %d reachable from block %d outside the loop", b.Continue, pred)
				}
			}
		}
		// The continue block must branch back to the header.
		cont := v.registry.Block(b.Continue)
		if cont != nil {
			back := false
			for _, succ := range Successors(cont.Terminator) {
				if succ == b.ID {
					back = true
				}
			}
			if !back {
				return NewMalformed(b.ID, "continue block %d has no back-edge to the loop header", b.Continue)
			}
		}
	}
	return nil
}

// insideLoop reports whether block is dominated by the loop headed at
// header, following LoopDominator back-pointers.
func (v *validator) insideLoop(block, header BlockID) bool {
	if block == header {
		return true
	}
	for id := block; id != 0; {
		b := v.registry.Block(id)
		if b == nil {
			return false
		}
		if b.LoopDominator == header || b.ID == header {
			return true
		}
		if b.LoopDominator == id {
			return false // self-loop in metadata, treat as not inside
		}
		id = b.LoopDominator
	}
	return false
}

// validatePhis checks that each phi has exactly one source per
// predecessor edge.
func (v *validator) validatePhis(b *Block) error {
	preds := v.registry.Predecessors(b.ID)
	for i := range b.Phis {
		phi := &b.Phis[i]
		if v.registry.Variable(phi.Variable) == nil {
			return NewMalformed(b.ID, "phi writes undefined variable %d", phi.Variable)
		}
		seen := make(map[BlockID]struct{}, len(phi.Sources))
		for _, src := range phi.Sources {
			if _, dup := seen[src.Pred]; dup {
				return NewMalformed(b.ID, "phi has two sources for predecessor %d", src.Pred)
			}
			seen[src.Pred] = struct{}{}
			if v.registry.Value(src.Value) == nil {
				return NewMalformed(b.ID, "phi source references undefined value %d", src.Value)
			}
		}
		for _, pred := range preds {
			if _, ok := seen[pred]; !ok {
				return NewMalformed(b.ID, "phi missing a source for predecessor %d", pred)
			}
		}
	}
	return nil
}
