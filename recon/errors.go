// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package recon

import (
	"fmt"
	"strings"
)

// ConvergenceError reports that the pass loop exceeded its bounded
// iteration count without reaching a fixed point. This indicates a bug
// in the forwarding/invalidation logic, never a property of valid input,
// so the error carries the full decision trail: the sequence that failed
// to stabilize is what a regression test needs to reproduce.
type ConvergenceError struct {
	// Passes is the number of passes executed before giving up.
	Passes int

	// Trail is the ordered sequence of decisions across all passes.
	Trail []string
}

// Error implements the error interface.
func (e *ConvergenceError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "recon InternalError: no fixed point after %d passes", e.Passes)
	if len(e.Trail) > 0 {
		sb.WriteString("; decisions: ")
		sb.WriteString(strings.Join(e.Trail, ", "))
	}
	return sb.String()
}
