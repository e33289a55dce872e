// SPDX-License-Identifier: MPL-2.0

// Package candidate finds the *.nix environment files a workspace can use.
package candidate

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/nixenv/nixenv/internal/workspace"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// Pattern matches environment files directly under the workspace root.
const Pattern = "*.nix"

// Preferred basenames, most preferred first.
const (
	ShellNix   = "shell.nix"
	DefaultNix = "default.nix"
)

type (
	// Candidate is an environment file found in the workspace.
	Candidate struct {
		// Path is workspace-relative with forward slashes.
		Path string
		// Name is the basename of Path.
		Name string
	}

	// Lister lists workspace-relative paths matching Pattern in listing order.
	Lister interface {
		List(root string) ([]string, error)
	}

	// GlobLister lists with a single-level doublestar glob.
	GlobLister struct{}

	// Finder enumerates and ranks candidates.
	Finder struct {
		lister Lister
		logger *log.Logger
	}
)

// List implements Lister.
func (GlobLister) List(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", Pattern, root, err)
	}
	return matches, nil
}

// NewFinder returns a Finder. A nil lister uses GlobLister; a nil logger
// discards messages.
func NewFinder(lister Lister, logger *log.Logger) *Finder {
	if lister == nil {
		lister = GlobLister{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Finder{lister: lister, logger: logger}
}

// FindAll lists the candidates of ws. The bool is false when no workspace is
// open, which is distinct from an open workspace with no candidates.
func (f *Finder) FindAll(ws *workspace.Folder) ([]Candidate, bool) {
	if ws == nil {
		f.logger.Info("no workspaces opened")
		return nil, false
	}

	paths, err := f.lister.List(ws.Root)
	if err != nil {
		f.logger.Error("cannot list nix environment files", "root", ws.Root, "err", err)
		return []Candidate{}, true
	}

	cands := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		rel := ws.Rel(p)
		cands = append(cands, Candidate{Path: rel, Name: path.Base(rel)})
	}
	return cands, true
}

// FindBest returns the preferred candidate of ws.
func (f *Finder) FindBest(ws *workspace.Folder) (Candidate, bool) {
	cands, ok := f.FindAll(ws)
	if !ok {
		return Candidate{}, false
	}
	best, ok := Best(cands)
	if !ok {
		f.logger.Info("cannot find nix environment file candidates")
	}
	return best, ok
}

// Best picks shell.nix, then default.nix, then the first candidate.
func Best(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	for _, name := range []string{ShellNix, DefaultNix} {
		for _, c := range cands {
			if c.Name == name {
				return c, true
			}
		}
	}
	return cands[0], true
}
