// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePrefersGitRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, gitDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "pkg", "cmd")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	f := Resolve("", nested)
	if f == nil || f.Root != filepath.Clean(root) {
		t.Fatalf("Resolve() = %+v, want git root %q", f, root)
	}
}

func TestResolveMetaDirInsideGitTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	sub := filepath.Join(root, "services", "api")
	for _, dir := range []string{filepath.Join(root, gitDirName), filepath.Join(sub, MetaDirName)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	if err := os.Mkdir(filepath.Join(sub, "internal"), 0o755); err != nil {
		t.Fatal(err)
	}
	f := Resolve("", filepath.Join(sub, "internal"))
	if f == nil || f.Root != filepath.Clean(sub) {
		t.Fatalf("Resolve() = %+v, want %q", f, sub)
	}
}

func TestMetaDirIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		git       bool
		gitignore string
		want      bool
	}{
		{name: "not a git work tree", git: false, want: true},
		{name: "no gitignore", git: true, want: false},
		{name: "directory pattern", git: true, gitignore: "bin/\n.nixenv/\n", want: true},
		{name: "plain name", git: true, gitignore: ".nixenv\n", want: true},
		{name: "wildcard", git: true, gitignore: ".nix*\n", want: true},
		{name: "comment only", git: true, gitignore: "# .nixenv\n", want: false},
		{name: "negated", git: true, gitignore: ".*\n!.nixenv\n", want: false},
		{name: "other entries", git: true, gitignore: "result\n*.log\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			if tt.git {
				if err := os.Mkdir(filepath.Join(root, gitDirName), 0o755); err != nil {
					t.Fatal(err)
				}
			}
			if tt.gitignore != "" {
				if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(tt.gitignore), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			got, err := Open(root).MetaDirIgnored()
			if err != nil {
				t.Fatalf("MetaDirIgnored() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("MetaDirIgnored() = %v, want %v", got, tt.want)
			}
		})
	}
}
