// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if f := Open(dir); f == nil || f.Root != filepath.Clean(dir) {
		t.Fatalf("Open(%q) = %+v", dir, f)
	}

	if f := Open(filepath.Join(dir, "missing")); f != nil {
		t.Errorf("Open(missing) = %+v, want nil", f)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if f := Open(file); f != nil {
		t.Errorf("Open(file) = %+v, want nil", f)
	}
}

func TestResolveFindsMetaDirAncestor(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, MetaDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	f := Resolve("", nested)
	if f == nil || f.Root != filepath.Clean(root) {
		t.Fatalf("Resolve() = %+v, want root %q", f, root)
	}
}

func TestResolveFallsBackToStart(t *testing.T) {
	t.Parallel()

	start := t.TempDir()
	f := Resolve("", start)
	if f == nil {
		t.Fatal("Resolve() = nil")
	}
	// A .nixenv directory may exist above the temp dir on a developer machine;
	// only assert that the result is start or one of its ancestors.
	if rel, err := filepath.Rel(f.Root, start); err != nil || rel == ".." {
		t.Errorf("Resolve() root %q is not an ancestor of %q", f.Root, start)
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	t.Parallel()

	if f := Resolve(filepath.Join(t.TempDir(), "nope"), "."); f != nil {
		t.Errorf("Resolve() = %+v, want nil", f)
	}
}

func TestRelAndAbs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	f := &Folder{Root: root}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"inside", filepath.Join(root, "shell.nix"), "shell.nix"},
		{"nested", filepath.Join(root, "nix", "dev.nix"), "nix/dev.nix"},
		{"outside", filepath.Join(filepath.Dir(root), "other.nix"), filepath.Join(filepath.Dir(root), "other.nix")},
		{"relative", "shell.nix", "shell.nix"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Rel(tt.in); got != tt.want {
				t.Errorf("Rel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := f.Abs("nix/dev.nix"); got != filepath.Join(root, "nix", "dev.nix") {
		t.Errorf("Abs() = %q", got)
	}

	var none *Folder
	if got := none.Rel("/x/shell.nix"); got != "/x/shell.nix" {
		t.Errorf("nil Rel() = %q", got)
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "shell.nix"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := &Folder{Root: root}

	if !f.Exists("shell.nix") {
		t.Error("Exists(shell.nix) = false")
	}
	if f.Exists("default.nix") {
		t.Error("Exists(default.nix) = true")
	}
	if f.Exists("") {
		t.Error("Exists(\"\") = true")
	}
	var none *Folder
	if none.Exists("shell.nix") {
		t.Error("nil Exists() = true")
	}
}
