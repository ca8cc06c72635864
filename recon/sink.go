// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
)

// Sink receives the ordered sequence of reconstructed statements and
// renders target-language text. Calls arrive in a strict nested order
// mirroring the control-flow tree: every BeginScope is balanced by an
// EndScope before the enclosing construct closes.
//
// The core guarantees that every expression string handed to the sink
// references only temporaries that were declared through DeclareLocal
// earlier in the same scope chain.
type Sink interface {
	// BeginFunction opens a function definition. result is nil for void.
	BeginFunction(name string, result *ir.TypeHandle, params []ir.FunctionParam)

	// EndFunction closes the current function definition.
	EndFunction()

	// DeclareLocal emits a local declaration. init may be empty.
	DeclareLocal(typeName, name, init string)

	// EmitLine emits one rendered statement at the current depth.
	EmitLine(line string)

	// BeginScope opens a nested scope, e.g. "if (x) {".
	BeginScope(header string)

	// EndScope closes the innermost scope, e.g. "}" or "} while (x);".
	EndScope(footer string)

	// EmitKill renders the target's abnormal-termination statement.
	EmitKill()

	// TypeName spells a type in the target language.
	TypeName(t ir.TypeHandle) string

	// LocalName reserves a unique, keyword-escaped identifier.
	LocalName(base string) string

	// GlobalName returns the identifier a module-scope variable was
	// declared under in the sink's preamble.
	GlobalName(id ir.VarID) string

	// RequestRecompile asks the driver to schedule another pass. The
	// current pass keeps running; its output is discarded.
	RequestRecompile()
}
