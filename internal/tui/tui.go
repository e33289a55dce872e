// SPDX-License-Identifier: MPL-2.0

// Package tui asks the user through charmbracelet/huh forms. It implements
// the prompts nixenv shows when suggesting an environment file, offering the
// file picker, and asking for a restart.
package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Theme represents the visual theme for prompts.
type Theme string

const (
	// ThemeDefault uses the base huh theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeCatppuccin uses the Catppuccin theme.
	ThemeCatppuccin Theme = "catppuccin"
	// ThemeBase16 uses the Base16 theme.
	ThemeBase16 Theme = "base16"
)

// Config holds common configuration for prompts.
type Config struct {
	// Theme specifies the visual theme to use.
	Theme Theme
	// Accessible enables accessible mode for screen readers.
	Accessible bool
	// Interactive is false when no terminal can answer; prompts are then
	// dismissed without asking.
	Interactive bool
	// Input and Output default to stdin and stderr.
	Input  io.Reader
	Output io.Writer
}

// DefaultConfig returns the configuration for the current terminal. Prompts
// are drawn on stderr so they are not captured by $() substitution, and
// accessible mode is enabled when the ACCESSIBLE environment variable is set.
func DefaultConfig() Config {
	return Config{
		Theme:       ThemeDefault,
		Accessible:  os.Getenv("ACCESSIBLE") != "",
		Interactive: isTerminal(os.Stdin) && isTerminal(os.Stderr),
		Input:       os.Stdin,
		Output:      os.Stderr,
	}
}

// ParseTheme maps a configured theme name to a Theme. Unknown names use
// ThemeDefault.
func ParseTheme(name string) Theme {
	switch t := Theme(name); t {
	case ThemeCharm, ThemeDracula, ThemeCatppuccin, ThemeBase16:
		return t
	default:
		return ThemeDefault
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// huhTheme converts a Theme to a huh.Theme.
func huhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	case ThemeCatppuccin:
		return huh.ThemeCatppuccin()
	case ThemeBase16:
		return huh.ThemeBase16()
	default:
		return huh.ThemeBase()
	}
}
