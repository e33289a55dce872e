// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixtures for tests: temporary workspaces, dev
// environment documents and a fake nix binary.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nixenv/nixenv/internal/workspace"
)

// Var is one entry of a dev environment document.
type Var struct {
	Type  string
	Value any
}

// Exported returns an exported string variable.
func Exported(value string) Var { return Var{Type: "exported", Value: value} }

// Local returns a non-exported shell variable.
func Local(value string) Var { return Var{Type: "var", Value: value} }

// DevEnvJSON encodes vars as nix print-dev-env --json output.
func DevEnvJSON(t testing.TB, vars map[string]Var) string {
	t.Helper()
	doc := map[string]any{"bashFunctions": map[string]string{}}
	entries := make(map[string]any, len(vars))
	for name, v := range vars {
		entries[name] = map[string]any{"type": v.Type, "value": v.Value}
	}
	doc["variables"] = entries
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("encode dev environment: %v", err)
	}
	return string(data)
}

// MustWriteFile writes content to path, creating parent directories.
// The test fails immediately if the operation fails.
func MustWriteFile(t testing.TB, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Workspace creates a temporary workspace holding files (relative path to
// content).
func Workspace(t testing.TB, files map[string]string) *workspace.Folder {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		MustWriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content, 0o644)
	}
	ws := workspace.Open(root)
	if ws == nil {
		t.Fatalf("failed to open workspace %s", root)
	}
	return ws
}

// FakeNix writes an executable that prints stdout and exits with code,
// writing stderr first when non-empty. The test is skipped on Windows.
func FakeNix(t testing.TB, stdout, stderr string, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake nix needs a POSIX shell")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "stdout.json")
	MustWriteFile(t, out, stdout, 0o644)

	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	if stderr != "" {
		errPath := filepath.Join(dir, "stderr.txt")
		MustWriteFile(t, errPath, stderr, 0o644)
		fmt.Fprintf(&script, "cat '%s' >&2\n", errPath)
	}
	fmt.Fprintf(&script, "cat '%s'\nexit %d\n", out, code)

	bin := filepath.Join(dir, "nix")
	MustWriteFile(t, bin, script.String(), 0o755)
	return bin
}
