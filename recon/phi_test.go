// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"testing"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// phiFixture provides two variables, loads of each, and a constant.
type phiFixture struct {
	reg     *ir.Registry
	a, b    ir.VarID
	loadA   ir.ValueID
	loadB   ir.ValueID
	five    ir.ValueID
	tracker func() *Tracker
}

func newPhiFixture(t *testing.T) *phiFixture {
	t.Helper()

	b := ir.NewBuilder()
	i32 := b.I32()

	fx := &phiFixture{}
	fx.five = b.Int32(5)

	fn := b.Function("main", nil)
	fx.a = fn.Var("a", i32)
	fx.b = fn.Var("b", i32)

	entry := fn.Block()
	fx.loadA = entry.Load(i32, fx.a)
	fx.loadB = entry.Load(i32, fx.b)
	entry.Return(0)

	reg := ir.NewRegistry(b.Finish())
	fx.reg = reg
	fx.tracker = func() *Tracker { return NewTracker(reg, NewDecisions(), 8) }
	return fx
}

func TestPlanPhiCopiesSingle(t *testing.T) {
	fx := newPhiFixture(t)

	plan := PlanPhiCopies(fx.tracker(), []ir.PhiEdge{{Variable: fx.a, Value: fx.five}})
	if len(plan) != 1 || plan[0].Variable != fx.a || plan[0].ViaTemp {
		t.Fatalf("plan = %v, want one direct copy", plan)
	}
}

func TestPlanPhiCopiesReorders(t *testing.T) {
	fx := newPhiFixture(t)

	// b's new value is written first in edge order, but a's copy reads
	// the old b and must run before it.
	plan := PlanPhiCopies(fx.tracker(), []ir.PhiEdge{
		{Variable: fx.b, Value: fx.five},
		{Variable: fx.a, Value: fx.loadB},
	})
	if len(plan) != 2 {
		t.Fatalf("plan length = %d, want 2", len(plan))
	}
	if plan[0].Variable != fx.a || plan[1].Variable != fx.b {
		t.Errorf("order = [%d %d], want a before b", plan[0].Variable, plan[1].Variable)
	}
	for _, c := range plan {
		if c.ViaTemp {
			t.Errorf("acyclic plan used a temporary: %v", plan)
		}
	}
}

func TestPlanPhiCopiesSwapCycle(t *testing.T) {
	fx := newPhiFixture(t)

	plan := PlanPhiCopies(fx.tracker(), []ir.PhiEdge{
		{Variable: fx.a, Value: fx.loadB},
		{Variable: fx.b, Value: fx.loadA},
	})
	if len(plan) != 2 {
		t.Fatalf("plan length = %d, want 2", len(plan))
	}
	temps := 0
	for _, c := range plan {
		if c.ViaTemp {
			temps++
		}
	}
	if temps != 1 {
		t.Fatalf("swap cycle broke with %d temporaries, want 1", temps)
	}
}

func TestPlanPhiCopiesSelfReadNeedsNoOrder(t *testing.T) {
	fx := newPhiFixture(t)

	// a = f(a) alone is fine; the right-hand side reads before the
	// assignment writes.
	plan := PlanPhiCopies(fx.tracker(), []ir.PhiEdge{
		{Variable: fx.a, Value: fx.loadA},
		{Variable: fx.b, Value: fx.five},
	})
	if len(plan) != 2 {
		t.Fatalf("plan length = %d, want 2", len(plan))
	}
	for _, c := range plan {
		if c.ViaTemp {
			t.Errorf("self-read plan used a temporary: %v", plan)
		}
	}
	if plan[0].Variable != fx.a {
		t.Errorf("declaration order not kept: %v", plan)
	}
}
