// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nixenv/nixenv/internal/host"
)

func TestParseTheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Theme
	}{
		{in: "charm", want: ThemeCharm},
		{in: "dracula", want: ThemeDracula},
		{in: "catppuccin", want: ThemeCatppuccin},
		{in: "base16", want: ThemeBase16},
		{in: "", want: ThemeDefault},
		{in: "neon", want: ThemeDefault},
	}
	for _, tt := range tests {
		if got := ParseTheme(tt.in); got != tt.want {
			t.Errorf("ParseTheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if huhTheme(tt.want) == nil {
			t.Errorf("huhTheme(%q) = nil", tt.want)
		}
	}
}

func TestNonInteractiveDismisses(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewPrompter(Config{Output: &out, Input: strings.NewReader("")})

	got, err := p.Message(context.Background(), host.SeverityInfo, "To apply nix environment window should be reloaded",
		[]host.Action{{Title: host.ActionReload}, {Title: host.ActionCancel, IsCloseAffordance: true}})
	if err != nil || !got.Dismissed {
		t.Errorf("Message() = %+v, %v", got, err)
	}
	got, err = p.Pick(context.Background(), "Select *.nix file to use as environment file", []host.Item{{Label: "shell.nix"}})
	if err != nil || !got.Dismissed {
		t.Errorf("Pick() = %+v, %v", got, err)
	}
	if !strings.Contains(out.String(), "window should be reloaded") || !strings.Contains(out.String(), "Select *.nix file") {
		t.Errorf("output = %q", out.String())
	}
}

func TestMessageWithoutActionsPrints(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := NewPrompter(Config{Interactive: true, Output: &out})
	got, err := p.Message(context.Background(), host.SeverityError, "nix environment evaluation returned malformed output", nil)
	if err != nil || !got.Dismissed {
		t.Errorf("Message() = %+v, %v", got, err)
	}
	if !strings.Contains(out.String(), "malformed output") {
		t.Errorf("output = %q", out.String())
	}
}
