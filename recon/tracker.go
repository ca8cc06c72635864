// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"sort"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// Tracker holds the per-pass forwarding state: which values are inlined
// at use sites, how often each has been read, and which variables have
// been written since each forwarded value was defined. It is recreated
// for every pass; only the Decisions it feeds survive between passes.
type Tracker struct {
	reg       *ir.Registry
	decisions *Decisions
	maxDepth  int

	forwarded map[ir.ValueID]bool
	reads     map[ir.ValueID]int
	temps     map[ir.ValueID]string

	// totalUses is the static use count of each value in the module:
	// a forwarded value with remaining uses must be rescued into a
	// temporary when a variable it depends on is written.
	totalUses map[ir.ValueID]int

	// varDeps caches the transitive variable dependency set of each
	// value's expression.
	varDeps map[ir.ValueID]map[ir.VarID]struct{}

	// writeGen counts writes per variable; defGen snapshots the
	// generations a forwarded value was defined against.
	writeGen map[ir.VarID]int
	defGen   map[ir.ValueID]map[ir.VarID]int
}

// NewTracker creates the per-pass tracker.
func NewTracker(reg *ir.Registry, decisions *Decisions, maxDepth int) *Tracker {
	t := &Tracker{
		reg:       reg,
		decisions: decisions,
		maxDepth:  maxDepth,
		forwarded: make(map[ir.ValueID]bool),
		reads:     make(map[ir.ValueID]int),
		temps:     make(map[ir.ValueID]string),
		totalUses: make(map[ir.ValueID]int),
		varDeps:   make(map[ir.ValueID]map[ir.VarID]struct{}),
		writeGen:  make(map[ir.VarID]int),
		defGen:    make(map[ir.ValueID]map[ir.VarID]int),
	}
	t.countUses()
	return t
}

// countUses walks the module once, counting every read site of every
// value: op operands, phi sources, terminator conditions and selectors,
// and return values.
func (t *Tracker) countUses() {
	module := t.reg.Module()
	for i := range module.Values {
		for _, dep := range ir.Operands(module.Values[i].Op) {
			t.totalUses[dep]++
		}
	}
	for i := range module.Blocks {
		b := &module.Blocks[i]
		for j := range b.Phis {
			for _, src := range b.Phis[j].Sources {
				t.totalUses[src.Value]++
			}
		}
		switch term := b.Terminator.(type) {
		case ir.CondBranch:
			t.totalUses[term.Condition]++
		case ir.SwitchTerm:
			t.totalUses[term.Selector]++
		case ir.Return:
			if term.Value != 0 {
				t.totalUses[term.Value]++
			}
		}
	}
}

// ShouldForward reports whether a value's defining expression may be
// inlined at use sites: it must be a compile-time-immutable binding or a
// pure expression over forwardable inputs, stay within the bounded
// expression depth, not load a volatile built-in, and not have been
// forced to a temporary by an earlier pass.
func (t *Tracker) ShouldForward(id ir.ValueID) bool {
	if t.decisions.IsForcedTemp(id) {
		return false
	}
	v := t.reg.Value(id)
	if v == nil {
		return false
	}
	if !t.pureOp(v.Op) {
		return false
	}
	return t.depth(id, 0) <= t.maxDepth
}

// pureOp reports whether an op may be re-evaluated at its use site.
func (t *Tracker) pureOp(op ir.Op) bool {
	switch o := op.(type) {
	case ir.OpConstant, ir.OpParam, ir.OpAccessChain:
		return true
	case ir.OpLoad:
		v := t.reg.Variable(o.Variable)
		return v != nil && !v.Builtin
	case ir.OpBinary, ir.OpUnary, ir.OpCompose, ir.OpSelect, ir.OpTranspose:
		return true
	default:
		// Calls and stores are barriers, never forwarded.
		return false
	}
}

// depth measures nesting of the inlined expression. Temp-bound operands
// contribute nothing; they render as names.
func (t *Tracker) depth(id ir.ValueID, seen int) int {
	if seen > t.maxDepth {
		return seen
	}
	if _, bound := t.temps[id]; bound {
		return 0
	}
	v := t.reg.Value(id)
	if v == nil {
		return 0
	}
	switch v.Op.(type) {
	case ir.OpConstant, ir.OpParam, ir.OpLoad:
		return 0
	}
	deepest := 0
	for _, dep := range ir.Operands(v.Op) {
		if d := t.depth(dep, seen+1); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Define records the forwarding decision for a freshly defined value and
// snapshots the write generations of its variable dependencies. Returns
// true when the value is forwarded (no temporary needed now).
func (t *Tracker) Define(id ir.ValueID) bool {
	fwd := t.ShouldForward(id)
	t.forwarded[id] = fwd
	if fwd {
		gens := make(map[ir.VarID]int)
		for dep := range t.VarDeps(id) {
			gens[dep] = t.writeGen[dep]
		}
		t.defGen[id] = gens
	}
	return fwd
}

// Forwarded reports the pass's decision for a value.
func (t *Tracker) Forwarded(id ir.ValueID) bool {
	return t.forwarded[id]
}

// TrackRead counts a read. Reading a forwarded non-trivial expression a
// second time revokes forwarding for the next pass: re-evaluating a
// complex inlined expression twice is wasteful, and unsound when the
// expression embeds side-effecting reads.
func (t *Tracker) TrackRead(id ir.ValueID) {
	t.reads[id]++
	if t.reads[id] < 2 || !t.forwarded[id] {
		return
	}
	if _, bound := t.temps[id]; bound {
		return
	}
	if t.trivial(id) {
		return
	}
	t.decisions.ForceTemp(id)
}

// trivial reports expressions that cost nothing to repeat: literals,
// parameters and plain variable names.
func (t *Tracker) trivial(id ir.ValueID) bool {
	v := t.reg.Value(id)
	if v == nil {
		return true
	}
	switch v.Op.(type) {
	case ir.OpConstant, ir.OpParam, ir.OpLoad:
		return true
	default:
		return false
	}
}

// Reads returns the read count so far.
func (t *Tracker) Reads(id ir.ValueID) int {
	return t.reads[id]
}

// VarDeps returns the transitive set of variables a value's inlined
// expression reads.
func (t *Tracker) VarDeps(id ir.ValueID) map[ir.VarID]struct{} {
	if deps, ok := t.varDeps[id]; ok {
		return deps
	}
	deps := make(map[ir.VarID]struct{})
	t.collectVarDeps(id, deps, 0)
	t.varDeps[id] = deps
	return deps
}

func (t *Tracker) collectVarDeps(id ir.ValueID, out map[ir.VarID]struct{}, depth int) {
	if depth > 64 {
		return
	}
	v := t.reg.Value(id)
	if v == nil {
		return
	}
	if dep := ir.LoadedVariable(v.Op); dep != 0 {
		out[dep] = struct{}{}
	}
	if _, bound := t.temps[id]; bound {
		// A temporary froze its inputs; the variable link is cut.
		return
	}
	for _, dep := range ir.Operands(v.Op) {
		t.collectVarDeps(dep, out, depth+1)
	}
}

// PendingDependents returns the forwarded values that still have reads
// ahead of them and would go stale if the variable were written now.
func (t *Tracker) PendingDependents(variable ir.VarID) []ir.ValueID {
	var out []ir.ValueID
	for id, fwd := range t.forwarded {
		if !fwd {
			continue
		}
		if _, bound := t.temps[id]; bound {
			continue
		}
		if _, depends := t.VarDeps(id)[variable]; !depends {
			continue
		}
		if t.reads[id] >= t.totalUses[id] {
			continue // fully consumed, nothing ahead to go stale
		}
		out = append(out, id)
	}
	sortValueIDs(out)
	return out
}

// InvalidateOnWrite reports the forwarded values that become unusable
// when a variable is written and still have reads ahead of them. The
// caller must materialize each into a temporary before emitting the
// write; afterwards the values render as their temporary names.
func (t *Tracker) InvalidateOnWrite(variable ir.VarID) []ir.ValueID {
	rescue := t.PendingDependents(variable)
	t.writeGen[variable]++
	return rescue
}

// Stale reports whether a forwarded value's dependency set was written
// since its definition. The emitter materializes dependents at write
// sites, so a stale read indicates a tracker bug.
func (t *Tracker) Stale(id ir.ValueID) bool {
	gens, ok := t.defGen[id]
	if !ok {
		return false
	}
	if _, bound := t.temps[id]; bound {
		return false
	}
	for dep, gen := range gens {
		if t.writeGen[dep] != gen {
			return true
		}
	}
	return false
}

// BindTemp records that a value now renders as a named temporary.
func (t *Tracker) BindTemp(id ir.ValueID, name string) {
	t.temps[id] = name
	delete(t.varDeps, id) // dependency link is cut by the temporary
}

// TempName returns the bound temporary name, if any.
func (t *Tracker) TempName(id ir.ValueID) (string, bool) {
	name, ok := t.temps[id]
	return name, ok
}

// sortValueIDs keeps rescue order deterministic between runs.
func sortValueIDs(ids []ir.ValueID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
