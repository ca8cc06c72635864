// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package ir defines the block-graph intermediate representation consumed
// by the structured-control-flow reconstructor.
//
// The IR is designed to be:
//   - Target-agnostic: not tied to any specific shading language
//   - Validated: a Module is assumed well-formed once Validate passes
//   - Cheap to query: the Registry provides O(1) lookups for every id
//
// # Structure
//
// A Module contains:
//   - Types: a deduplicated type arena addressed by TypeHandle
//   - Constants: module-scope constant values
//   - Variables: mutable storage locations (distinct from SSA values)
//   - Values: SSA results, each with a defining op and block
//   - Blocks: basic blocks carrying one terminator plus merge/continue
//     annotations
//   - Functions: entry block plus the blocks and variables each owns
//
// Control flow is a graph of Blocks. Structure (if/else, loops, switch)
// is not represented here; it is recovered from the terminators and the
// SelectionMerge/LoopMerge annotations by the recon package.
//
// # References
//
//   - SPIR-V specification: https://www.khronos.org/registry/SPIR-V/
package ir
