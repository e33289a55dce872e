// SPDX-License-Identifier: MPL-2.0

// Package workspace resolves the workspace folder nixenv operates on.
//
// A workspace is a single directory. Its root holds the candidate *.nix
// environment files and the .nixenv metadata directory where per-workspace
// settings and the persistent variable collection are stored.
package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// MetaDirName is the per-workspace directory holding nixenv state.
const MetaDirName = ".nixenv"

// ErrNoWorkspace is returned by operations that need an open workspace.
var ErrNoWorkspace = errors.New("no workspace opened")

// Folder is an open workspace folder.
type Folder struct {
	// Root is the absolute, cleaned path of the workspace directory.
	Root string
}

// Open returns the folder rooted at dir. It returns nil when dir does not
// exist or is not a directory; callers treat nil as "no workspace opened".
func Open(dir string) *Folder {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil
	}
	return &Folder{Root: filepath.Clean(abs)}
}

// Resolve picks the workspace folder. An explicit directory wins. Otherwise
// the nearest ancestor of start holding a .nixenv directory is used, then
// the top of the enclosing git work tree, then start itself.
func Resolve(explicit, start string) *Folder {
	if explicit != "" {
		return Open(explicit)
	}
	if start == "" {
		return nil
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil
	}

	gitRoot := ""
	for dir := abs; ; {
		if info, err := os.Stat(filepath.Join(dir, MetaDirName)); err == nil && info.IsDir() {
			return Open(dir)
		}
		if gitRoot == "" {
			if _, err := os.Stat(filepath.Join(dir, gitDirName)); err == nil {
				gitRoot = dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if gitRoot != "" {
		return Open(gitRoot)
	}
	return Open(abs)
}

// MetaDir returns the path of the .nixenv directory. The directory is not
// created.
func (f *Folder) MetaDir() string {
	return filepath.Join(f.Root, MetaDirName)
}

// Rel returns path relative to the workspace root using forward slashes.
// Paths outside the workspace, and all paths when f is nil, are returned
// unchanged.
func (f *Folder) Rel(path string) string {
	if f == nil || path == "" {
		return path
	}
	abs := path
	if !filepath.IsAbs(abs) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(f.Root, filepath.Clean(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Abs joins a workspace-relative path onto the root. Absolute paths are
// returned cleaned.
func (f *Folder) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(f.Root, filepath.FromSlash(rel))
}

// Exists reports whether the workspace-relative path names an existing file.
func (f *Folder) Exists(rel string) bool {
	if f == nil || rel == "" {
		return false
	}
	info, err := os.Stat(f.Abs(rel))
	return err == nil && !info.IsDir()
}
