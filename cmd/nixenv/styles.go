// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette used by every command. Each color has a light and a dark variant
// so output stays readable on either terminal background.
var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#3B5BA5", Dark: "#7EBAE4"} // nix snowflake blue
	colorMuted   = lipgloss.AdaptiveColor{Light: "#5C6370", Dark: "#8B929E"}
	colorOK      = lipgloss.AdaptiveColor{Light: "#1E7F4F", Dark: "#4ADE80"}
	colorFailure = lipgloss.AdaptiveColor{Light: "#B42318", Dark: "#F87171"}
	colorNotice  = lipgloss.AdaptiveColor{Light: "#A15C07", Dark: "#FBBF24"}
	colorCommand = lipgloss.AdaptiveColor{Light: "#5136A8", Dark: "#A78BFA"}
)

var (
	// TitleStyle renders headings such as "Current Configuration".
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	// SubtitleStyle renders secondary text and placeholders like "(none)".
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(colorOK)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorFailure)
	// WarningStyle renders restart hints and recoverable failures.
	WarningStyle = lipgloss.NewStyle().Foreground(colorNotice)
	// CmdStyle renders commands, paths and config keys.
	CmdStyle = lipgloss.NewStyle().Foreground(colorCommand)
)
