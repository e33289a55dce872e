// SPDX-License-Identifier: MPL-2.0

// Package loader evaluates an environment file and applies its exported
// variables to the session environment and the persistent collection.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/nixenv/nixenv/internal/devenv"
	"github.com/nixenv/nixenv/internal/envsink"
	"github.com/nixenv/nixenv/internal/nix"
	"github.com/nixenv/nixenv/internal/state"
	"github.com/nixenv/nixenv/internal/workspace"

	"github.com/charmbracelet/log"
)

// PathVar is composed with the original PATH rather than overwritten.
const PathVar = "PATH"

// ErrSuperseded is returned by a Load that a newer Load replaced before it
// applied anything.
var ErrSuperseded = errors.New("environment load superseded by a newer load")

// DefaultDeny lists variables that are never applied.
var DefaultDeny = []string{"HOME", "SHELL", "TEMP", "TEMPDIR", "TMP", "TMPDIR"}

type (
	// Feedback receives the user-visible effects of a load.
	Feedback interface {
		RefreshStatus()
		EvaluationFailed(ctx context.Context, err error)
		MalformedOutput(ctx context.Context, err error)
		SuggestReload(ctx context.Context, applied bool)
	}

	// Options configures a Loader.
	Options struct {
		Evaluator  nix.Evaluator
		Env        envsink.Sink
		Collection envsink.Collection
		Feedback   Feedback
		// Workspace may be nil; paths are then recorded as given.
		Workspace *workspace.Folder
		Logger    *log.Logger
		// ExtraDeny adds names to DefaultDeny.
		ExtraDeny []string
	}

	// Loader runs loads one at a time. A newer Load cancels the evaluation
	// of the one in flight.
	Loader struct {
		opts Options
		deny map[string]struct{}

		mu     sync.Mutex
		gen    uint64
		cancel context.CancelFunc

		run sync.Mutex
	}

	commandLiner interface {
		Args(file string) []string
	}

	nopFeedback struct{}
)

func (nopFeedback) RefreshStatus()                          {}
func (nopFeedback) EvaluationFailed(context.Context, error) {}
func (nopFeedback) MalformedOutput(context.Context, error)  {}
func (nopFeedback) SuggestReload(context.Context, bool)     {}

// New returns a Loader.
func New(opts Options) *Loader {
	if opts.Evaluator == nil {
		opts.Evaluator = nix.Command{}
	}
	if opts.Env == nil {
		opts.Env = envsink.ProcessSink{}
	}
	if opts.Collection == nil {
		opts.Collection = envsink.NewMemoryCollection()
	}
	if opts.Feedback == nil {
		opts.Feedback = nopFeedback{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	deny := make(map[string]struct{}, len(DefaultDeny)+len(opts.ExtraDeny))
	for _, name := range slices.Concat(DefaultDeny, opts.ExtraDeny) {
		deny[name] = struct{}{}
	}
	return &Loader{opts: opts, deny: deny}
}

// Denied reports whether name is never applied.
func (l *Loader) Denied(name string) bool {
	_, ok := l.deny[name]
	return ok
}

// ComposePath prepends value to the original PATH.
func ComposePath(value, original string) string {
	if original == "" {
		return value
	}
	return value + string(filepath.ListSeparator) + original
}

// Load evaluates filePath and applies its exported variables. It blocks until
// the evaluation finishes. fromActivation marks the automatic load at
// startup, which needs no restart to take effect.
func (l *Loader) Load(ctx context.Context, st *state.State, filePath string, fromActivation bool) error {
	ctx, gen := l.begin(ctx)
	defer l.end(gen)

	l.run.Lock()
	defer l.run.Unlock()
	if l.superseded(gen) {
		return ErrSuperseded
	}

	logger := l.opts.Logger
	fb := l.opts.Feedback

	st.SetApplied(false)
	rel := l.opts.Workspace.Rel(filePath)
	if err := st.SetEnvironmentFile(rel); err != nil {
		logger.Warn("cannot persist environment file", "file", rel, "err", err)
	}
	fb.RefreshStatus()

	if cl, ok := l.opts.Evaluator.(commandLiner); ok {
		logger.Info(fmt.Sprintf("launching '%s'", strings.Join(cl.Args(filePath), " ")))
	} else {
		logger.Info("evaluating environment", "file", filePath)
	}

	out, err := l.opts.Evaluator.Evaluate(ctx, filePath)
	if l.superseded(gen) {
		logger.Debug("load superseded", "file", rel)
		return ErrSuperseded
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("evaluate %s: %w", rel, ctx.Err())
		}
		l.fail(st, rel)
		fb.RefreshStatus()
		fb.EvaluationFailed(ctx, err)
		return err
	}

	doc, err := devenv.Decode(out)
	if err != nil {
		l.fail(st, rel)
		fb.RefreshStatus()
		fb.MalformedOutput(ctx, err)
		return err
	}

	logger.Info("applying environment variables")
	l.apply(st, rel, doc, !fromActivation)
	logger.Info("done")

	st.SetLastEvaluationFinishedWithError(false)
	st.SetApplied(true)
	st.SetPendingWindowReload(!fromActivation)
	fb.RefreshStatus()

	if st.PendingWindowReload() {
		fb.SuggestReload(ctx, true)
	}
	return nil
}

// apply mirrors the accepted bindings into the sink and the collection. A
// variable the sink rejects is logged and left out of both; the rest of the
// environment still applies.
func (l *Loader) apply(st *state.State, rel string, doc *devenv.Document, pending bool) {
	logger := l.opts.Logger
	coll := l.opts.Collection
	coll.Clear()

	for _, b := range doc.Exported() {
		if l.Denied(b.Name) {
			logger.Debug("skipping denied variable", "name", b.Name)
			continue
		}
		value := b.Value
		if b.Name == PathVar {
			value = ComposePath(b.Value, st.OriginalPath())
		}
		if err := l.opts.Env.Set(b.Name, value); err != nil {
			logger.Warn("cannot set variable", "name", b.Name, "err", err)
			continue
		}
		coll.Replace(b.Name, value)
	}

	coll.SetRecord(envsink.Record{Source: rel, Pending: pending})
	if err := coll.Save(); err != nil {
		logger.Warn("cannot save environment collection", "err", err)
	}
}

// fail sets the sticky error flag and records the failure while keeping the
// variables of the last successful evaluation.
func (l *Loader) fail(st *state.State, rel string) {
	st.SetLastEvaluationFinishedWithError(true)
	coll := l.opts.Collection
	rec := envsink.Record{Source: rel, Failed: true}
	if prev := coll.Record(); prev.Source == rel {
		rec.Pending = prev.Pending
	}
	coll.SetRecord(rec)
	if err := coll.Save(); err != nil {
		l.opts.Logger.Warn("cannot save environment collection", "err", err)
	}
}

func (l *Loader) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel
	return ctx, l.gen
}

func (l *Loader) end(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen == gen && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Loader) superseded(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen != gen
}
