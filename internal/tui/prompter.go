// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nixenv/nixenv/internal/host"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

// Prompter implements host.Prompter with huh select forms.
type Prompter struct {
	cfg Config
}

// NewPrompter returns a Prompter using cfg.
func NewPrompter(cfg Config) *Prompter {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	return &Prompter{cfg: cfg}
}

// Message implements host.Prompter. The message is always printed; the
// actions are offered only when the terminal is interactive.
func (p *Prompter) Message(ctx context.Context, sev host.Severity, msg string, actions []host.Action) (host.Outcome, error) {
	style := infoStyle
	if sev == host.SeverityError {
		style = errorStyle
	}
	if len(actions) == 0 || !p.cfg.Interactive {
		fmt.Fprintln(p.cfg.Output, style.Render(msg))
		return host.Dismissed(), nil
	}

	opts := make([]huh.Option[int], len(actions))
	for i, a := range actions {
		opts[i] = huh.NewOption(a.Title, i)
	}
	idx, err := p.run(ctx, style.Render(msg), opts)
	if err != nil || idx < 0 {
		return host.Dismissed(), err
	}
	return host.Chose(idx, actions[idx].Title), nil
}

// Pick implements host.Prompter. Separators are left out of the list.
func (p *Prompter) Pick(ctx context.Context, title string, items []host.Item) (host.Outcome, error) {
	if !p.cfg.Interactive {
		fmt.Fprintln(p.cfg.Output, infoStyle.Render(title))
		return host.Dismissed(), nil
	}

	opts := make([]huh.Option[int], 0, len(items))
	for i, it := range items {
		if it.Separator {
			continue
		}
		key := it.Label
		if it.Description != "" {
			key = fmt.Sprintf("%s  %s", it.Label, lipgloss.NewStyle().Faint(true).Render(it.Description))
		}
		opts = append(opts, huh.NewOption(key, i))
	}
	idx, err := p.run(ctx, title, opts)
	if err != nil || idx < 0 {
		return host.Dismissed(), err
	}
	return host.Chose(idx, items[idx].Label), nil
}

// run shows a single select and returns the chosen value, or -1 when the
// user aborted.
func (p *Prompter) run(ctx context.Context, title string, opts []huh.Option[int]) (int, error) {
	choice := -1
	sel := huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&choice)

	form := huh.NewForm(huh.NewGroup(sel)).
		WithTheme(huhTheme(p.cfg.Theme)).
		WithAccessible(p.cfg.Accessible).
		WithInput(p.cfg.Input).
		WithOutput(p.cfg.Output)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return -1, nil
		}
		return -1, fmt.Errorf("prompt %q: %w", title, err)
	}
	return choice, nil
}
