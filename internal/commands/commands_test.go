// SPDX-License-Identifier: MPL-2.0

package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/nixenv/nixenv/internal/candidate"
	"github.com/nixenv/nixenv/internal/envsink"
	"github.com/nixenv/nixenv/internal/host"
	"github.com/nixenv/nixenv/internal/loader"
	"github.com/nixenv/nixenv/internal/nix"
	"github.com/nixenv/nixenv/internal/settings"
	"github.com/nixenv/nixenv/internal/state"
	"github.com/nixenv/nixenv/internal/workspace"

	"github.com/charmbracelet/log"
)

const doc = `{"variables":{"FOO":{"type":"exported","value":"bar"}}}`

type (
	recordingWindow struct{ reloads int }
	recordingBar    struct{ updates []state.Status }

	// recordingPrompter answers like host.Answers and remembers the items
	// of every pick.
	recordingPrompter struct {
		*host.Answers
		mu    sync.Mutex
		picks [][]host.Item
	}

	env struct {
		h      *Handlers
		ws     *workspace.Folder
		window *recordingWindow
		bar    *recordingBar
		prompt *recordingPrompter
		coll   *envsink.MemoryCollection
		sink   *envsink.MapSink
		evals  *[]string
	}
)

func (w *recordingWindow) Reload(context.Context) error { w.reloads++; return nil }
func (b *recordingBar) Update(s state.Status)           { b.updates = append(b.updates, s) }

func (p *recordingPrompter) Pick(ctx context.Context, title string, items []host.Item) (host.Outcome, error) {
	p.mu.Lock()
	p.picks = append(p.picks, items)
	p.mu.Unlock()
	return p.Answers.Pick(ctx, title, items)
}

func (b *recordingBar) last() state.Status {
	if len(b.updates) == 0 {
		return state.Status{}
	}
	return b.updates[len(b.updates)-1]
}

func newEnv(t *testing.T, s settings.Settings, files []string, answers ...string) *env {
	t.Helper()

	root := t.TempDir()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(root, f), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	ws := workspace.Open(root)

	sink := envsink.NewMapSink(map[string]string{"PATH": "/usr/bin"})
	st, err := state.New(settings.NewMemory(s), sink)
	if err != nil {
		t.Fatal(err)
	}

	logger := log.New(&bytes.Buffer{})
	e := &env{
		ws:     ws,
		window: &recordingWindow{},
		bar:    &recordingBar{},
		prompt: &recordingPrompter{Answers: host.NewAnswers(answers...)},
		coll:   envsink.NewMemoryCollection(),
		sink:   sink,
		evals:  &[]string{},
	}
	ui := &host.UI{Prompter: e.prompt, Window: e.window, StatusBar: e.bar, State: st, Logger: logger}
	ev := nix.Func(func(_ context.Context, file string) ([]byte, error) {
		*e.evals = append(*e.evals, ws.Rel(file))
		return []byte(doc), nil
	})
	e.h = &Handlers{
		State:      st,
		Loader:     loader.New(loader.Options{Evaluator: ev, Env: sink, Collection: e.coll, Feedback: ui, Workspace: ws, Logger: logger}),
		Finder:     candidate.NewFinder(nil, logger),
		Workspace:  ws,
		Collection: e.coll,
		UI:         ui,
		Logger:     logger,
	}
	return e
}

func TestActivateDisabledStaysHidden(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Settings{Enabled: false, EnvironmentFile: "shell.nix"}, []string{"shell.nix"})
	if err := e.h.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.bar.last().Visible || len(*e.evals) != 0 {
		t.Errorf("status = %+v evals = %v", e.bar.last(), *e.evals)
	}
}

func TestActivateLoadsConfiguredFileWithoutReload(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Settings{Enabled: true, EnvironmentFile: "shell.nix"}, []string{"shell.nix"})
	if err := e.h.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := e.h.State.Snapshot()
	if !snap.Applied || snap.PendingWindowReload {
		t.Errorf("state = %+v", snap)
	}
	if len(e.prompt.Asked()) != 0 {
		t.Errorf("activation prompted: %v", e.prompt.Asked())
	}
	if got := e.bar.last().Text(); got != "$(distro-nix) shell.nix" {
		t.Errorf("status = %q", got)
	}
}

func TestEnableSuggestsBestCandidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		answers  []string
		applied  bool
		enabled  bool
		picked   bool
		evals    []string
		settings settings.Settings
	}{
		{name: "yes", answers: []string{"Yes", host.ActionCancel}, applied: true, enabled: true, evals: []string{"shell.nix"}},
		{name: "no disables", answers: []string{"No"}, enabled: false},
		{name: "dismissed", answers: nil, enabled: true},
		{name: "select other", answers: []string{"Select other file", "a.nix", host.ActionCancel}, applied: true, enabled: true, picked: true, evals: []string{"a.nix"}},
		{name: "configured file missing", answers: []string{"Yes", host.ActionCancel}, applied: true, enabled: true, evals: []string{"shell.nix"},
			settings: settings.Settings{Enabled: true, EnvironmentFile: "gone.nix"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := tt.settings
			if s == (settings.Settings{}) {
				s = settings.Default()
			}
			e := newEnv(t, s, []string{"a.nix", "shell.nix", "default.nix"}, tt.answers...)
			if err := e.h.Enable(context.Background(), false); err != nil {
				t.Fatalf("Enable() error = %v", err)
			}

			asked := e.prompt.Asked()
			if len(asked) == 0 || asked[0] != "There is shell.nix, do you want to use it as environment file?" {
				t.Errorf("asked = %v", asked)
			}
			if e.h.State.Applied() != tt.applied || e.h.State.Enabled() != tt.enabled {
				t.Errorf("state = %+v", e.h.State.Snapshot())
			}
			if (len(e.prompt.picks) > 0) != tt.picked {
				t.Errorf("picks = %v", e.prompt.picks)
			}
			if !slices.Equal(*e.evals, tt.evals) {
				t.Errorf("evals = %v, want %v", *e.evals, tt.evals)
			}
		})
	}
}

func TestEnableNoCandidates(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Default(), nil)
	if err := e.h.Enable(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if got := e.bar.last(); got.Label != "file not selected" || len(e.prompt.Asked()) != 0 {
		t.Errorf("status = %+v asked = %v", got, e.prompt.Asked())
	}
}

func TestDisable(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Settings{Enabled: true, EnvironmentFile: "shell.nix"}, []string{"shell.nix"}, host.ActionReload)
	if err := e.h.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.h.Disable(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := e.h.State.Snapshot()
	if snap.Enabled || !snap.PendingWindowReload {
		t.Errorf("state = %+v", snap)
	}
	if e.bar.last().Visible {
		t.Error("status visible after disable")
	}
	if e.window.reloads != 1 {
		t.Errorf("reloads = %d", e.window.reloads)
	}
	if len(e.coll.Entries()) != 0 {
		t.Errorf("collection = %v", e.coll.Entries())
	}
	if asked := e.prompt.Asked(); asked[len(asked)-1] != "To clear nix environment window should be reloaded" {
		t.Errorf("asked = %v", asked)
	}
}

func TestDisableNotAppliedDoesNotPrompt(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Default(), nil)
	if err := e.h.Disable(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.h.State.PendingWindowReload() || len(e.prompt.Asked()) != 0 {
		t.Errorf("state = %+v asked = %v", e.h.State.Snapshot(), e.prompt.Asked())
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Settings{Enabled: true, EnvironmentFile: "shell.nix"}, []string{"shell.nix"})
	if err := e.h.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.h.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := e.h.State.Snapshot()
	if snap.EnvironmentFile != "" || !snap.PendingWindowReload || !snap.Enabled {
		t.Errorf("state = %+v", snap)
	}
	got := e.bar.last()
	if got.Label != "file not selected" || got.Background != state.BackgroundWarning {
		t.Errorf("status = %+v", got)
	}
	if len(e.coll.Entries()) != 0 {
		t.Errorf("collection = %v", e.coll.Entries())
	}
	if e.sink.Vars()["FOO"] != "bar" {
		t.Error("clear unset a session variable")
	}
}

func TestClearThenDisableKeepsPending(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Settings{Enabled: true, EnvironmentFile: "shell.nix"}, []string{"shell.nix"})
	if err := e.h.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.h.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.h.Disable(context.Background()); err != nil {
		t.Fatal(err)
	}

	if snap := e.h.State.Snapshot(); !snap.PendingWindowReload || snap.Enabled {
		t.Errorf("state = %+v", snap)
	}
	asked := e.prompt.Asked()
	if len(asked) != 2 || asked[1] != "To clear nix environment window should be reloaded" {
		t.Errorf("asked = %v", asked)
	}
}

func TestReload(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Default(), nil)
	if err := e.h.Reload(context.Background()); !errors.Is(err, ErrNothingToReload) {
		t.Fatalf("Reload() error = %v, want ErrNothingToReload", err)
	}
	if len(e.prompt.Asked()) != 1 {
		t.Errorf("asked = %v", e.prompt.Asked())
	}

	e = newEnv(t, settings.Settings{Enabled: true, EnvironmentFile: "shell.nix"}, []string{"shell.nix"}, host.ActionCancel)
	if err := e.h.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !e.h.State.Applied() || !e.h.State.PendingWindowReload() {
		t.Errorf("state = %+v", e.h.State.Snapshot())
	}
}

func TestSelectEnvironmentFileItems(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Settings{Enabled: true, EnvironmentFile: "shell.nix"}, []string{"a.nix", "shell.nix"})
	if err := e.h.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.h.SelectEnvironmentFile(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(e.prompt.picks) != 1 {
		t.Fatalf("picks = %v", e.prompt.picks)
	}
	items := e.prompt.picks[0]
	cands, _ := e.h.Finder.FindAll(e.ws)
	if len(items) != len(cands)+3 {
		t.Fatalf("items = %+v", items)
	}
	for i := range cands {
		want := cands[len(cands)-1-i].Path
		if items[i].Label != want {
			t.Errorf("items[%d] = %q, want %q", i, items[i].Label, want)
		}
		if (items[i].Description == "reload") != (want == "shell.nix") {
			t.Errorf("items[%d] description = %q", i, items[i].Description)
		}
	}
	if !items[len(cands)].Separator {
		t.Errorf("missing separator: %+v", items)
	}
	clr, disable := items[len(items)-2], items[len(items)-1]
	if clr.Label != "Clear" || disable.Label != "Disable" || disable.Description != "Clear environment and hide status bar widget" {
		t.Errorf("actions = %+v %+v", clr, disable)
	}

	// Dismissed: state unchanged.
	if !e.h.State.Applied() || e.h.State.EnvironmentFile() != "shell.nix" {
		t.Errorf("state changed by dismissal: %+v", e.h.State.Snapshot())
	}
}

func TestSelectEnvironmentFileNotApplied(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Settings{Enabled: false}, []string{"a.nix"}, "Disable")
	if err := e.h.SelectEnvironmentFile(context.Background()); err != nil {
		t.Fatal(err)
	}
	items := e.prompt.picks[0]
	if len(items) != 3 || items[2].Label != "Disable" || items[2].Description != "Hide status bar widget" {
		t.Errorf("items = %+v", items)
	}
	if e.h.State.Enabled() {
		t.Error("Disable choice left nixenv enabled")
	}
}

func TestSelectEnvironmentFileLoadsPick(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Default(), []string{"a.nix", "shell.nix"}, "a.nix", host.ActionReload)
	if err := e.h.Dispatch(context.Background(), SelectEnvironmentFile); err != nil {
		t.Fatal(err)
	}
	snap := e.h.State.Snapshot()
	if !snap.Applied || snap.EnvironmentFile != "a.nix" || !snap.PendingWindowReload {
		t.Errorf("state = %+v", snap)
	}
	if e.window.reloads != 1 {
		t.Errorf("reloads = %d", e.window.reloads)
	}
}

func TestSelectEnvironmentFileNoWorkspace(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Default(), nil)
	e.h.Workspace = nil
	if err := e.h.SelectEnvironmentFile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(e.prompt.picks) != 0 || !e.bar.last().Visible {
		t.Errorf("picks = %v status = %+v", e.prompt.picks, e.bar.last())
	}
}

func TestDispatchUnknown(t *testing.T) {
	t.Parallel()

	e := newEnv(t, settings.Default(), nil)
	if err := e.h.Dispatch(context.Background(), "nixenv.nope"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Dispatch() error = %v", err)
	}
}
