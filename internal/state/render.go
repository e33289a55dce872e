// SPDX-License-Identifier: MPL-2.0

package state

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// glyphs replaces the icon-font placeholders with terminal glyphs.
var glyphs = strings.NewReplacer(
	GlyphNix, "❄",
	GlyphAlert, "⚠",
	GlyphSync, "⟳",
)

// Renderer draws a Status as a one-line terminal status item.
type Renderer struct {
	base    lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	tooltip lipgloss.Style
}

// NewRenderer returns a Renderer whose color profile follows w.
func NewRenderer(w io.Writer) *Renderer {
	r := lipgloss.NewRenderer(w)
	base := r.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#7EBAE4"))
	return &Renderer{
		base: base,
		warning: base.
			Foreground(lipgloss.Color("#1F2937")).
			Background(lipgloss.Color("#F59E0B")),
		failure: base.
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#EF4444")),
		tooltip: r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

// Plain returns the status text with glyphs substituted and no styling.
// Hidden statuses render as "".
func Plain(s Status) string {
	if !s.Visible {
		return ""
	}
	return glyphs.Replace(s.Text())
}

// Render returns the styled status item. Hidden statuses render as "".
func (r *Renderer) Render(s Status) string {
	if !s.Visible {
		return ""
	}
	style := r.base
	switch s.Background {
	case BackgroundWarning:
		style = r.warning
	case BackgroundError:
		style = r.failure
	}
	return style.Render(Plain(s))
}

// RenderWithTooltip renders the item followed by its tooltip.
func (r *Renderer) RenderWithTooltip(s Status) string {
	item := r.Render(s)
	if item == "" || s.Tooltip == "" {
		return item
	}
	return item + " " + r.tooltip.Render(s.Tooltip)
}
