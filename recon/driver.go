// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// Options tunes the reconstruction driver.
type Options struct {
	// MaxPasses bounds the fixed-point loop. Zero means the default of
	// four, which in practice is two beyond what any input needs.
	MaxPasses int

	// MaxForwardDepth bounds the nesting of inlined expressions before
	// a value is materialized into a temporary. Zero means eight.
	MaxForwardDepth int
}

func (o Options) withDefaults() Options {
	if o.MaxPasses <= 0 {
		o.MaxPasses = 4
	}
	if o.MaxForwardDepth <= 0 {
		o.MaxForwardDepth = 8
	}
	return o
}

// Recompiler is implemented by sinks that can request another pass for
// reasons of their own (a target feature discovered mid-emission). The
// driver polls it after every pass.
type Recompiler interface {
	RecompileRequested() bool
}

// Run reconstructs every function of a module, driving a fresh sink per
// pass until the decision set stabilizes. The sink of the final pass is
// returned; earlier sinks and their partial output are discarded.
//
// Decisions only accumulate, so a pass making no new decisions proves
// the next would emit identical output; that pass is final. Exceeding
// MaxPasses without stabilizing returns a ConvergenceError.
func Run(ctx context.Context, module *ir.Module, newSink func() Sink, opts Options) (Sink, error) {
	opts = opts.withDefaults()

	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "reconstruct", "functions", len(module.Functions))
	defer tr.Finish()

	if err := ir.Validate(module); err != nil {
		return nil, errors.Wrap(err, "validate input")
	}

	reg := ir.NewRegistry(module)
	dec := NewDecisions()

	for pass := 1; pass <= opts.MaxPasses; pass++ {
		before := dec.Count()
		sink := newSink()
		tracker := NewTracker(reg, dec, opts.MaxForwardDepth)

		for i := range module.Functions {
			em := newFuncEmitter(reg, dec, tracker, sink, &module.Functions[i])
			em.EmitFunction()
		}

		recompile := false
		if r, ok := sink.(Recompiler); ok {
			recompile = r.RecompileRequested()
		}
		if dec.Count() == before && !recompile {
			tr.Printw("converged", "pass", pass, "decisions", dec.Count())
			return sink, nil
		}
		tr.Printw("pass scheduled rerun", "pass", pass, "new_decisions", dec.Count()-before, "sink_recompile", recompile)
	}

	return nil, &ConvergenceError{Passes: opts.MaxPasses, Trail: dec.Trail()}
}
