// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl renders reconstructed statements as GLSL source.
//
// The Writer implements recon.Sink. It owns the output buffer, the
// indentation state and the identifier namer; one Writer corresponds to
// one reconstruction pass, and the driver discards all but the last.
// The module preamble (version directive, struct definitions, global
// declarations) is written eagerly at construction so the final pass's
// buffer is the complete translation unit.
package glsl
