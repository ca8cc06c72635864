// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// ComputeLadders is the read-only pre-pass that decides, before emission
// runs, which loops need a synthesized boolean ladder variable: a single
// break cannot target an outer loop through a switch body, so a break
// site inside a switch sets the flag and the loop tests it immediately
// after the switch closes.
//
// The result maps loop header ids to the switch heads that break out of
// them.
func ComputeLadders(reg *ir.Registry, fn *ir.Function) map[ir.BlockID][]ir.BlockID {
	need := make(map[ir.BlockID][]ir.BlockID)

	for _, id := range fn.Blocks {
		s := reg.Block(id)
		if s == nil {
			continue
		}
		if _, ok := s.Terminator.(ir.SwitchTerm); !ok {
			continue
		}

		loopHeader := innermostLoop(reg, s)
		if loopHeader == 0 {
			continue
		}
		loopMerge := reg.Block(loopHeader).Merge

		if switchBreaksTo(reg, s, loopMerge) {
			need[loopHeader] = append(need[loopHeader], s.ID)
		}
	}

	return need
}

// innermostLoop returns the header of the innermost loop containing a
// block, following the loop-dominator back-pointer.
func innermostLoop(reg *ir.Registry, b *ir.Block) ir.BlockID {
	if b.MergeKind == ir.MergeLoop {
		return b.ID
	}
	return b.LoopDominator
}

// switchBreaksTo walks the switch body and reports whether any block in
// it branches to the given loop merge block.
func switchBreaksTo(reg *ir.Registry, s *ir.Block, loopMerge ir.BlockID) bool {
	if loopMerge == 0 {
		return false
	}
	term := s.Terminator.(ir.SwitchTerm)

	seen := map[ir.BlockID]struct{}{s.Merge: {}, loopMerge: {}}
	queue := make([]ir.BlockID, 0, len(term.Cases)+1)
	for _, c := range term.Cases {
		queue = append(queue, c.Target)
	}
	if term.Default != 0 {
		queue = append(queue, term.Default)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, done := seen[id]; done {
			continue
		}
		seen[id] = struct{}{}

		b := reg.Block(id)
		if b == nil {
			continue
		}
		for _, succ := range ir.Successors(b.Terminator) {
			if succ == loopMerge {
				return true
			}
			if _, done := seen[succ]; !done {
				queue = append(queue, succ)
			}
		}
	}
	return false
}
