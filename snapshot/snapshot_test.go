// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package snapshot_test provides golden snapshot tests for the
// decompiler. For each block-graph module in testdata/in/, the test
// reconstructs GLSL source and compares it to the golden file stored in
// testdata/golden/glsl/.
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	cross "github.com/SergioRZMasson/SPIRV-Cross-sub000"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/ir"
	"github.com/SergioRZMasson/SPIRV-Cross-sub000/modfile"
)

// moduleFile represents an input module loaded from disk.
type moduleFile struct {
	name string // base name without extension (e.g., "loop_for")
	data []byte // JSON module document
}

// TestSnapshots is the main golden snapshot test. It loads all module
// inputs, decompiles each, and compares with golden files.
func TestSnapshots(t *testing.T) {
	modules := loadInputModules(t, filepath.Join("testdata", "in"))
	if len(modules) == 0 {
		t.Fatal("no input modules found in testdata/in/")
	}

	for i := range modules {
		mf := &modules[i]
		t.Run(mf.name, func(t *testing.T) {
			module := parseModule(t, mf.name, mf.data)

			code, err := cross.Decompile(context.Background(), module)
			if err != nil {
				t.Fatalf("[%s] decompile failed: %v", mf.name, err)
			}
			compareGolden(t, filepath.Join("testdata", "golden", "glsl", mf.name+".glsl"), code)
		})
	}
}

// loadInputModules reads all .json files from the given directory.
func loadInputModules(t *testing.T, dir string) []moduleFile {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var modules []moduleFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if readErr != nil {
			t.Fatalf("read module %q: %v", entry.Name(), readErr)
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		modules = append(modules, moduleFile{name: name, data: data})
	}

	// Sort for deterministic test order
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].name < modules[j].name
	})

	return modules
}

// parseModule decodes a JSON document into the IR module and validates
// it before reconstruction.
func parseModule(t *testing.T, name string, data []byte) *ir.Module {
	t.Helper()

	module, err := modfile.Parse(data)
	if err != nil {
		t.Fatalf("[%s] parse failed: %v", name, err)
	}
	if err := ir.Validate(module); err != nil {
		t.Fatalf("[%s] validate failed: %v", name, err)
	}
	return module
}

// compareGolden compares actual output with the golden file, or rewrites
// the golden file when UPDATE_GOLDEN is set.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file missing: %s\nRun with UPDATE_GOLDEN=1 to create.\n\nActual output:\n%s", path, truncate(actual, 500))
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Normalize line endings for cross-platform comparison.
	// Git may convert \n to \r\n on Windows checkout.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")

	if expectedStr != actualStr {
		t.Errorf("output differs from golden %s:\n%s", path, diffStrings(expectedStr, actualStr))
	}
}

// diffStrings produces a simple line-by-line diff showing the first
// difference and surrounding context.
func diffStrings(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var sb strings.Builder
	maxLines := len(expectedLines)
	if len(actualLines) > maxLines {
		maxLines = len(actualLines)
	}
	for i := 0; i < maxLines; i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e == a {
			continue
		}
		fmt.Fprintf(&sb, "line %d:\n  golden: %q\n  actual: %q\n", i+1, e, a)
		if sb.Len() > 2000 {
			sb.WriteString("...\n")
			break
		}
	}
	return sb.String()
}

// truncate shortens a string for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n... (truncated)"
}
