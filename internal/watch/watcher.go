// SPDX-License-Identifier: MPL-2.0

// Package watch follows the environment file of a workspace and fires a
// debounced callback when it changes.
//
// Only the directories holding the watched files are registered, without
// recursion. Editors commonly replace a file by renaming a temporary one
// over it, so events are matched by path rather than by watch handle.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 500 * time.Millisecond

// editorNoise are basenames ignored even when a pattern matches them.
var editorNoise = []string{"*.swp", "*.swo", "*~", ".#*", "#*#"}

// ErrNoPatterns is returned by New when nothing would be watched.
var ErrNoPatterns = errors.New("watch: no file patterns")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the workspace root. Patterns are relative to it.
		Root string

		// Patterns are doublestar globs, relative to Root with forward
		// slashes, selecting the files that trigger OnChange. A plain path
		// such as "shell.nix" watches that file.
		Patterns []string

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero or negative values use DefaultDebounce.
		Debounce time.Duration

		// OnChange receives the changed paths, relative to Root and sorted.
		OnChange func(ctx context.Context, changed []string) error

		// Logger defaults to a discarding logger.
		Logger *log.Logger
	}

	// Watcher fires OnChange after matching files change. Run must be
	// called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		root     string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers the directories of its patterns.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Patterns) == 0 {
		return nil, ErrNoPatterns
	}
	if err := validatePatterns(cfg.Patterns); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{cfg: cfg, fsw: fsw, root: root, debounce: debounce, logger: logger}
	for _, dir := range w.directories() {
		if err := fsw.Add(filepath.Join(root, filepath.FromSlash(dir))); err != nil {
			fsw.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("watch: add directory %q: %w", dir, err)
		}
	}
	return w, nil
}

// Run blocks until ctx is cancelled. It returns nil on cancellation and an
// error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire skips while a previous callback is still running and retries
	// after another debounce period so pending changes are not lost.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("environment reload still running, postponing")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Warn("reload after change failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			rel, ok := w.match(evt.Name)
			if !ok {
				continue
			}
			w.logger.Debug("environment file changed", "file", rel, "op", evt.Op.String())

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if watcherBroken(err) {
				return fmt.Errorf("watch: watcher stopped delivering events: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// directories returns the distinct static directories of the patterns,
// relative to the root.
func (w *Watcher) directories() []string {
	dirs := make(map[string]struct{}, len(w.cfg.Patterns))
	for _, pat := range w.cfg.Patterns {
		base, _ := doublestar.SplitPattern(pat)
		if base == "" {
			base = "."
		}
		dirs[base] = struct{}{}
	}
	return slices.Sorted(maps.Keys(dirs))
}

// match returns the root-relative form of name when it matches a pattern
// and is not editor noise.
func (w *Watcher) match(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	for _, pat := range editorNoise {
		if ok, _ := doublestar.Match(pat, base); ok {
			return "", false
		}
	}
	for _, pat := range w.cfg.Patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return rel, true
		}
	}
	return "", false
}

// validatePatterns rejects malformed globs at construction time.
func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid pattern %q", pat)
		}
	}
	return nil
}
