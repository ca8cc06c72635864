// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"fmt"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// Decisions is the accumulated cross-pass decision state. It is owned by
// the driver, passed into each pass by reference, and mutated only by
// appending: a decision, once made, is never retracted. Convergence is
// therefore a simple count comparison between passes.
type Decisions struct {
	// forcedTemp holds values whose forwarding was revoked: they must
	// be materialized into named temporaries on subsequent passes.
	forcedTemp map[ir.ValueID]struct{}

	// complexBlocks holds loop headers whose speculative shape
	// detection failed; they take the generic loop form from now on.
	complexBlocks map[ir.BlockID]struct{}

	// inlineContinue holds loop headers whose continue block is too
	// complex for a do-while and must be re-inlined at continue sites.
	inlineContinue map[ir.BlockID]struct{}

	// trail records every decision in the order it was made, for
	// convergence-failure diagnostics and regression capture.
	trail []string
}

// NewDecisions creates an empty decision set.
func NewDecisions() *Decisions {
	return &Decisions{
		forcedTemp:     make(map[ir.ValueID]struct{}),
		complexBlocks:  make(map[ir.BlockID]struct{}),
		inlineContinue: make(map[ir.BlockID]struct{}),
	}
}

// Count returns the total number of decisions made so far.
func (d *Decisions) Count() int {
	return len(d.forcedTemp) + len(d.complexBlocks) + len(d.inlineContinue)
}

// Trail returns the ordered decision log.
func (d *Decisions) Trail() []string {
	return d.trail
}

// ForceTemp revokes forwarding of a value for subsequent passes.
func (d *Decisions) ForceTemp(v ir.ValueID) {
	if _, ok := d.forcedTemp[v]; ok {
		return
	}
	d.forcedTemp[v] = struct{}{}
	d.trail = append(d.trail, fmt.Sprintf("force-temp value %d", v))
}

// IsForcedTemp reports whether a value must be a temporary.
func (d *Decisions) IsForcedTemp(v ir.ValueID) bool {
	_, ok := d.forcedTemp[v]
	return ok
}

// MarkComplex demotes a loop header to the generic loop form.
func (d *Decisions) MarkComplex(b ir.BlockID) {
	if _, ok := d.complexBlocks[b]; ok {
		return
	}
	d.complexBlocks[b] = struct{}{}
	d.trail = append(d.trail, fmt.Sprintf("complex loop header %d", b))
}

// IsComplex reports whether a loop header was demoted.
func (d *Decisions) IsComplex(b ir.BlockID) bool {
	_, ok := d.complexBlocks[b]
	return ok
}

// MarkInlineContinue records that a loop's continue block must be
// re-inlined verbatim at every continue site.
func (d *Decisions) MarkInlineContinue(b ir.BlockID) {
	if _, ok := d.inlineContinue[b]; ok {
		return
	}
	d.inlineContinue[b] = struct{}{}
	d.trail = append(d.trail, fmt.Sprintf("inline continue for loop header %d", b))
}

// IsInlineContinue reports whether a loop's continue block is inlined at
// continue sites.
func (d *Decisions) IsInlineContinue(b ir.BlockID) bool {
	_, ok := d.inlineContinue[b]
	return ok
}
