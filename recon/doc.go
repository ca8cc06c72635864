// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package recon reconstructs structured control flow from a validated
// block graph and renders it through a statement sink.
//
// The work splits into three cooperating parts:
//
//   - The tracker decides, per SSA value, whether its defining
//     expression can be inlined at use sites (forwarded) or must be
//     materialized into a named temporary, and detects decisions that
//     turn out wrong.
//   - The classifier inspects each loop header once and names its shape
//     (for, while, do-while, complex) before any emission happens.
//   - The emitter walks the block graph depth-first, resolving phi
//     copies on every edge and emitting nested statements through the
//     Sink.
//
// Emission runs inside a bounded fixed-point loop: each pass is a
// complete, independent traversal that starts from the accumulated
// decision set and otherwise discards its own state at pass end. A pass
// that revokes a forwarding decision or demotes a speculative loop shape
// schedules another pass; a pass that makes no new decisions is final.
// Exceeding the pass bound without progress is a ConvergenceError, a bug
// in the decision logic rather than a property of valid input.
package recon
