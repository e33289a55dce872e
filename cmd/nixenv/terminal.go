// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/nixenv/nixenv/internal/config"
	"github.com/nixenv/nixenv/internal/envsink"
	"github.com/nixenv/nixenv/internal/host"
	"github.com/nixenv/nixenv/internal/state"

	"golang.org/x/term"
)

type (
	// statusLine keeps the most recent status item.
	statusLine struct {
		mu   sync.Mutex
		last state.Status
	}

	// terminalWindow stands in for a window reload: a CLI cannot restart the
	// shell it was called from, so it tells the user how to pick the
	// environment up.
	terminalWindow struct {
		w   io.Writer
		env envsink.Sink
	}

	// outputPane reveals diagnostics on the terminal.
	outputPane struct {
		w io.Writer
	}

	// scriptedPrompter prints every prompt and answers from --answer labels.
	scriptedPrompter struct {
		answers *host.Answers
		w       io.Writer
	}
)

// Update implements host.StatusBar.
func (b *statusLine) Update(s state.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = s
}

// Last returns the most recent status item.
func (b *statusLine) Last() state.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Reload implements host.Window.
func (t *terminalWindow) Reload(context.Context) error {
	if _, inside := t.env.Get(ActiveVar); inside {
		fmt.Fprintf(t.w, "%s exit this shell and run %s again\n",
			WarningStyle.Render("→"), CmdStyle.Render("nixenv shell"))
		return nil
	}
	fmt.Fprintf(t.w, "%s start a new shell with %s or run %s\n",
		WarningStyle.Render("→"), CmdStyle.Render("nixenv shell"), CmdStyle.Render(`eval "$(nixenv export)"`))
	return nil
}

// Show implements host.Output.
func (o *outputPane) Show(text string) {
	fmt.Fprintln(o.w, TitleStyle.Render("nix output"))
	for line := range strings.SplitSeq(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintln(o.w, "  "+line)
	}
}

// Message implements host.Prompter.
func (p *scriptedPrompter) Message(ctx context.Context, sev host.Severity, msg string, actions []host.Action) (host.Outcome, error) {
	style := CmdStyle
	if sev == host.SeverityError {
		style = ErrorStyle
	}
	fmt.Fprintln(p.w, style.Render(msg))
	if len(actions) == 0 {
		return host.Dismissed(), nil
	}
	out, err := p.answers.Message(ctx, sev, msg, actions)
	p.echo(out)
	return out, err
}

// Pick implements host.Prompter.
func (p *scriptedPrompter) Pick(ctx context.Context, title string, items []host.Item) (host.Outcome, error) {
	fmt.Fprintln(p.w, CmdStyle.Render(title))
	for _, it := range items {
		if it.Separator {
			continue
		}
		line := "  " + it.Label
		if it.Description != "" {
			line += " " + SubtitleStyle.Render(it.Description)
		}
		fmt.Fprintln(p.w, line)
	}
	out, err := p.answers.Pick(ctx, title, items)
	p.echo(out)
	return out, err
}

func (p *scriptedPrompter) echo(out host.Outcome) {
	if out.Dismissed {
		fmt.Fprintln(p.w, SubtitleStyle.Render("> (dismissed)"))
		return
	}
	fmt.Fprintln(p.w, SubtitleStyle.Render("> "+out.Label))
}

// glamourStyle picks the issue rendering style for w and the configured
// color scheme.
func glamourStyle(w io.Writer, scheme config.ColorScheme) string {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "notty"
	}
	if scheme == config.ColorSchemeLight {
		return "light"
	}
	return "dark"
}
