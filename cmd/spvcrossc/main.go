// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	cross "github.com/SergioRZMasson/SPIRV-Cross-sub000"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/layout"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/modfile"
)

// config mirrors the optional spvcrossc.toml next to the input file.
type config struct {
	GLSLVersion     int    `toml:"glsl_version"`
	Packing         string `toml:"packing"`
	CheckLayouts    *bool  `toml:"check_layouts"`
	MaxPasses       int    `toml:"max_passes"`
	MaxForwardDepth int    `toml:"max_forward_depth"`
}

func main() {
	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "decompile block-graph modules to GLSL",
		Action:      compileAct,
		Args:        cli.Args{},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "validate modules and their buffer layouts without emitting code",
		Action:      checkAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "spvcrossc",
		Description: "spvcrossc reconstructs structured GLSL from block-graph shader modules",
		Commands: []*cli.Command{
			compileCmd,
			checkCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	opts, err := loadOptions()
	if err != nil {
		return err
	}

	for _, a := range c.Args {
		m, err := loadModule(a)
		if err != nil {
			return err
		}

		src, err := cross.DecompileWithOptions(ctx, m, opts)
		if err != nil {
			return errors.Wrap(err, "decompile %v", a)
		}

		fmt.Printf("%s", src)
	}

	return nil
}

func checkAct(c *cli.Command) (err error) {
	for _, a := range c.Args {
		m, err := loadModule(a)
		if err != nil {
			return err
		}

		if err = ir.Validate(m); err != nil {
			return errors.Wrap(err, "validate %v", a)
		}

		fmt.Printf("%s: ok\n", a)
	}

	return nil
}

func loadModule(name string) (*ir.Module, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read %v", name)
	}

	m, err := modfile.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", name)
	}

	return m, nil
}

// loadOptions reads spvcrossc.toml from the working directory when
// present. A missing file means defaults.
func loadOptions() (cross.Options, error) {
	opts := cross.DefaultOptions()

	data, err := os.ReadFile("spvcrossc.toml")
	if os.IsNotExist(err) {
		return opts, nil
	} else if err != nil {
		return opts, errors.Wrap(err, "read config")
	}

	var cfg config
	if err = toml.Unmarshal(data, &cfg); err != nil {
		return opts, errors.Wrap(err, "parse config")
	}

	if cfg.GLSLVersion != 0 {
		opts.GLSLVersion = cfg.GLSLVersion
	}
	if cfg.Packing != "" {
		p, err := parsePacking(cfg.Packing)
		if err != nil {
			return opts, err
		}
		opts.Packing = &p
	}
	if cfg.CheckLayouts != nil {
		opts.CheckLayouts = *cfg.CheckLayouts
	}
	if cfg.MaxPasses != 0 {
		opts.MaxPasses = cfg.MaxPasses
	}
	if cfg.MaxForwardDepth != 0 {
		opts.MaxForwardDepth = cfg.MaxForwardDepth
	}

	return opts, nil
}

func parsePacking(s string) (layout.Packing, error) {
	switch s {
	case "std140":
		return layout.PackingStd140, nil
	case "std430":
		return layout.PackingStd430, nil
	case "scalar":
		return layout.PackingScalar, nil
	case "cbuffer":
		return layout.PackingCbuffer, nil
	default:
		return 0, errors.New("unknown packing %q", s)
	}
}
