// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package cross reconstructs high-level shader source from a structured
// basic-block graph.
//
// The pipeline is:
//
//  1. Validate the block graph (ir.Validate).
//  2. Check buffer-backed struct layouts against their packing standard
//     (layout.IsLayoutCompliant).
//  3. Reconstruct structured control flow and expressions, re-running
//     emission until the decision set stabilizes (recon.Run).
//
// Example usage:
//
//	module, err := modfile.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	src, err := cross.Decompile(ctx, module)
package cross

import (
	"context"

	"tlog.app/go/errors"

	"github.com/SergioRZMasson/SPIRV-Cross-sub000/glsl"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/layout"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/recon"
)

// Options configures decompilation.
type Options struct {
	// GLSLVersion is the #version directive of the output (default 450).
	GLSLVersion int

	// Packing overrides the packing standard for buffer blocks. The
	// default follows each block's address space: std140 for uniform
	// and push-constant blocks, std430 for storage blocks.
	Packing *layout.Packing

	// CheckLayouts verifies declared offsets and strides of every
	// buffer-backed struct before emission.
	CheckLayouts bool

	// MaxPasses bounds the reconstruction fixed-point loop.
	MaxPasses int

	// MaxForwardDepth bounds inlined expression nesting.
	MaxForwardDepth int
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		GLSLVersion:  450,
		CheckLayouts: true,
	}
}

// Decompile reconstructs GLSL source from a block-graph module using
// default options.
func Decompile(ctx context.Context, module *ir.Module) (string, error) {
	return DecompileWithOptions(ctx, module, DefaultOptions())
}

// DecompileWithOptions reconstructs GLSL source with custom options.
func DecompileWithOptions(ctx context.Context, module *ir.Module, opts Options) (string, error) {
	if opts.CheckLayouts {
		if err := checkLayouts(module, opts); err != nil {
			return "", err
		}
	}

	reg := ir.NewRegistry(module)
	glslOpts := glsl.Options{Version: opts.GLSLVersion}
	if opts.Packing != nil {
		glslOpts.Packing = *opts.Packing
	}

	sink, err := recon.Run(ctx, module, func() recon.Sink {
		return glsl.NewWriter(reg, glslOpts)
	}, recon.Options{
		MaxPasses:       opts.MaxPasses,
		MaxForwardDepth: opts.MaxForwardDepth,
	})
	if err != nil {
		return "", errors.Wrap(err, "reconstruct")
	}

	return sink.(*glsl.Writer).String(), nil
}

// checkLayouts verifies every uniform- and storage-backed struct global
// against the packing standard its address space implies.
func checkLayouts(module *ir.Module, opts Options) error {
	for i := range module.Variables {
		g := &module.Variables[i]

		var packing layout.Packing
		switch g.Space {
		case ir.SpaceUniform, ir.SpacePushConstant:
			packing = layout.PackingStd140
		case ir.SpaceStorage:
			packing = layout.PackingStd430
		default:
			continue
		}
		if opts.Packing != nil {
			packing = *opts.Packing
		}

		th := pointee(module, g.Type)
		if _, ok := module.Types[th].Inner.(ir.StructType); !ok {
			continue
		}
		if c := layout.IsLayoutCompliant(module, th, packing); !c.OK {
			return errors.New("variable %q: %v member %d: %v", g.Name, packing, c.Member, c.Reason)
		}
	}
	return nil
}

func pointee(module *ir.Module, h ir.TypeHandle) ir.TypeHandle {
	for {
		if int(h) >= len(module.Types) {
			return h
		}
		ptr, ok := module.Types[h].Inner.(ir.PointerType)
		if !ok {
			return h
		}
		h = ptr.Base
	}
}
