// SPDX-License-Identifier: MPL-2.0

// Package host defines the user-facing capabilities nixenv drives: prompts,
// the status item, the diagnostic output, and restarting the session so a
// new environment takes effect.
package host

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nixenv/nixenv/internal/nix"
	"github.com/nixenv/nixenv/internal/state"

	"github.com/charmbracelet/log"
)

// Severity values of a message prompt.
const (
	SeverityInfo Severity = iota
	SeverityError
)

// Labels shared by prompts and their handlers.
const (
	ActionReload    = "Reload"
	ActionCancel    = "Cancel"
	ActionShowError = "Show error"
)

type (
	// Severity selects the message styling.
	Severity int

	// Action is one button of a message prompt.
	Action struct {
		Title string
		// IsCloseAffordance marks the action that is equivalent to dismissing.
		IsCloseAffordance bool
	}

	// Item is one entry of a pick list. Separators are never selectable.
	Item struct {
		Label       string
		Description string
		Separator   bool
	}

	// Outcome is the terminal result of a prompt: either the chosen entry
	// or Dismissed.
	Outcome struct {
		Index     int
		Label     string
		Dismissed bool
	}

	// Prompter asks the user.
	Prompter interface {
		Message(ctx context.Context, sev Severity, msg string, actions []Action) (Outcome, error)
		Pick(ctx context.Context, title string, items []Item) (Outcome, error)
	}

	// Window restarts the session so the new environment is inherited.
	Window interface {
		Reload(ctx context.Context) error
	}

	// Output reveals diagnostic text to the user.
	Output interface {
		Show(text string)
	}

	// StatusBar displays the status item.
	StatusBar interface {
		Update(s state.Status)
	}

	// UI bundles the host capabilities used by the loader and the command
	// handlers.
	UI struct {
		Prompter  Prompter
		Window    Window
		Output    Output
		StatusBar StatusBar
		State     *state.State
		Logger    *log.Logger
	}
)

// Dismissed is the outcome of a closed prompt.
func Dismissed() Outcome { return Outcome{Index: -1, Dismissed: true} }

// Chose returns the outcome selecting the entry at index.
func Chose(index int, label string) Outcome { return Outcome{Index: index, Label: label} }

// RefreshStatus re-presents the current state on the status bar.
func (u *UI) RefreshStatus() {
	if u.StatusBar == nil || u.State == nil {
		return
	}
	u.StatusBar.Update(state.Present(u.State.Snapshot()))
}

// EvaluationFailed notifies the user that the evaluator failed and reveals
// its diagnostic output on "Show error".
func (u *UI) EvaluationFailed(ctx context.Context, err error) {
	diag := err.Error()
	var evalErr *nix.EvaluationError
	if errors.As(err, &evalErr) {
		diag = evalErr.Diagnostics()
	}
	u.Logger.Error("nix environment evaluation finished with error", "err", err)
	if diag != "" {
		for line := range strings.SplitSeq(diag, "\n") {
			u.Logger.Error(line)
		}
	}

	out, perr := u.Prompter.Message(ctx, SeverityError, "nix environment evaluation finished with error",
		[]Action{{Title: ActionShowError}})
	if perr != nil {
		u.Logger.Warn("cannot show evaluation error", "err", perr)
		return
	}
	if !out.Dismissed && out.Label == ActionShowError && u.Output != nil {
		u.Output.Show(diag)
	}
}

// MalformedOutput notifies the user that the evaluator output was rejected.
func (u *UI) MalformedOutput(ctx context.Context, err error) {
	u.Logger.Error("nix environment output rejected", "err", err)
	if _, perr := u.Prompter.Message(ctx, SeverityError, "nix environment evaluation returned malformed output", nil); perr != nil {
		u.Logger.Warn("cannot show malformed output error", "err", perr)
	}
}

// SuggestReload asks the user to restart so the environment is applied, or
// cleared when applied is false.
func (u *UI) SuggestReload(ctx context.Context, applied bool) {
	msg := "To clear nix environment window should be reloaded"
	if applied {
		msg = "To apply nix environment window should be reloaded"
	}
	out, err := u.Prompter.Message(ctx, SeverityInfo, msg, []Action{
		{Title: ActionReload},
		{Title: ActionCancel, IsCloseAffordance: true},
	})
	if err != nil {
		u.Logger.Warn("cannot show reload prompt", "err", err)
		return
	}
	if out.Dismissed {
		u.Logger.Info("user closed windows reload dialog, do nothing")
		return
	}
	if out.Label != ActionReload || u.Window == nil {
		return
	}
	u.Logger.Info("reloading windows")
	if err := u.Window.Reload(ctx); err != nil {
		u.Logger.Error("cannot reload window", "err", err)
	}
}

// Answers is a Prompter that replies from a queue of labels. A label that
// matches no entry, or an exhausted queue, dismisses the prompt.
type Answers struct {
	mu      sync.Mutex
	answers []string
	asked   []string
}

// NewAnswers returns a Prompter answering with labels in order.
func NewAnswers(labels ...string) *Answers {
	return &Answers{answers: labels}
}

// Asked returns the messages and titles prompted so far.
func (a *Answers) Asked() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.asked...)
}

func (a *Answers) next(question string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.asked = append(a.asked, question)
	if len(a.answers) == 0 {
		return "", false
	}
	label := a.answers[0]
	a.answers = a.answers[1:]
	return label, true
}

// Message implements Prompter.
func (a *Answers) Message(_ context.Context, _ Severity, msg string, actions []Action) (Outcome, error) {
	label, ok := a.next(msg)
	if !ok {
		return Dismissed(), nil
	}
	for i, act := range actions {
		if act.Title == label {
			return Chose(i, label), nil
		}
	}
	return Dismissed(), nil
}

// Pick implements Prompter.
func (a *Answers) Pick(_ context.Context, title string, items []Item) (Outcome, error) {
	label, ok := a.next(title)
	if !ok {
		return Dismissed(), nil
	}
	for i, it := range items {
		if !it.Separator && it.Label == label {
			return Chose(i, label), nil
		}
	}
	return Dismissed(), nil
}
