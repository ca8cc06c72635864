// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"sort"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// PhiCopy is one copy-assignment scheduled on a control-flow edge. When
// ViaTemp is set, the source expression must be snapshotted into a
// compiler-introduced temporary before any assignment of the batch runs,
// and the assignment reads the temporary instead of the live expression.
type PhiCopy struct {
	Variable ir.VarID
	Value    ir.ValueID
	ViaTemp  bool
}

// PlanPhiCopies orders the pending phi copies of one edge so that no
// assignment clobbers a variable a later assignment still reads. The
// copies are conceptually parallel; sequential emission needs an order.
//
// A copy i must run before a copy j when j overwrites a variable that
// i's source reads. Cycles (including a phi whose source chain reaches
// back to its own variable through another phi) cannot be ordered; the
// lowest-indexed member of each cycle is broken by snapshotting its
// source into a temporary, which cuts its read edges.
func PlanPhiCopies(tracker *Tracker, edges []ir.PhiEdge) []PhiCopy {
	n := len(edges)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []PhiCopy{{Variable: edges[0].Variable, Value: edges[0].Value}}
	}

	written := make(map[ir.VarID]int, n)
	for i, e := range edges {
		written[e.Variable] = i
	}

	// after[i] lists copies that must wait for i. A copy reading its
	// own variable alone needs no ordering; the read happens on the
	// right-hand side of its own assignment.
	after := make([][]int, n)
	waits := make([]int, n)
	for i, e := range edges {
		for dep := range tracker.VarDeps(e.Value) {
			j, clobbered := written[dep]
			if !clobbered || j == i {
				continue
			}
			after[i] = append(after[i], j)
			waits[j]++
		}
	}
	for i := range after {
		sort.Ints(after[i])
	}

	out := make([]PhiCopy, 0, n)
	done := make([]bool, n)
	viaTemp := make([]bool, n)

	for len(out) < n {
		progressed := false
		for i := 0; i < n; i++ {
			if done[i] || waits[i] > 0 {
				continue
			}
			out = append(out, PhiCopy{
				Variable: edges[i].Variable,
				Value:    edges[i].Value,
				ViaTemp:  viaTemp[i],
			})
			done[i] = true
			progressed = true
			for _, j := range after[i] {
				waits[j]--
			}
		}
		if progressed {
			continue
		}

		// Every remaining copy waits on another: a cycle. Snapshot
		// the lowest-indexed unbroken member; its reads no longer
		// constrain the order.
		for i := 0; i < n; i++ {
			if done[i] || viaTemp[i] {
				continue
			}
			viaTemp[i] = true
			for _, j := range after[i] {
				waits[j]--
			}
			after[i] = nil
			break
		}
	}

	return out
}
