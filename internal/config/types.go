// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// ColorSchemeAuto follows the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark and ColorSchemeLight pin the rendering style.
	ColorSchemeDark  ColorScheme = "dark"
	ColorSchemeLight ColorScheme = "light"

	// DefaultNixBinary is the evaluator looked up on PATH.
	DefaultNixBinary = "nix"
	// DefaultDebounce is the watch quiet period.
	DefaultDebounce = "500ms"
	// DefaultTheme is the prompt theme.
	DefaultTheme = "default"
)

var (
	// ErrInvalidColorScheme is wrapped by InvalidColorSchemeError.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidNixConfig is the sentinel error wrapped by InvalidNixConfigError.
	ErrInvalidNixConfig = errors.New("invalid nix config")
	// ErrInvalidEnvConfig is the sentinel error wrapped by InvalidEnvConfigError.
	ErrInvalidEnvConfig = errors.New("invalid env config")
	// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
	ErrInvalidWatchConfig = errors.New("invalid watch config")
	// ErrInvalidConfig is wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	varName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type (
	// ColorScheme picks light or dark styles for rendered output.
	ColorScheme string

	// InvalidColorSchemeError reports a ui.color_scheme outside auto, dark
	// and light.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Config is the per-user nixenv configuration read from config.cue.
	Config struct {
		// Nix configures the evaluator invocation
		Nix NixConfig `json:"nix" mapstructure:"nix"`
		// Env configures which variables are applied
		Env EnvConfig `json:"env" mapstructure:"env"`
		// Watch configures `nixenv watch`
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// UI configures prompts, colors and logging
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// NixConfig configures the evaluator.
	NixConfig struct {
		Binary    string   `json:"binary" mapstructure:"binary"`
		ExtraArgs []string `json:"extra_args" mapstructure:"extra_args"`
	}

	// EnvConfig configures variable application.
	EnvConfig struct {
		// Deny adds names that are never applied.
		Deny []string `json:"deny" mapstructure:"deny"`
	}

	// WatchConfig configures the file watcher.
	WatchConfig struct {
		Debounce string   `json:"debounce" mapstructure:"debounce"`
		Patterns []string `json:"patterns" mapstructure:"patterns"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		// ColorScheme selects glamour and prompt styles
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// Accessible draws prompts in accessible mode
		Accessible bool `json:"accessible" mapstructure:"accessible"`
		// Theme selects the prompt theme
		Theme string `json:"theme" mapstructure:"theme"`
	}

	// InvalidNixConfigError collects NixConfig field errors.
	InvalidNixConfigError struct {
		FieldErrors []error
	}

	// InvalidEnvConfigError collects EnvConfig field errors.
	InvalidEnvConfigError struct {
		FieldErrors []error
	}

	// InvalidWatchConfigError collects WatchConfig field errors.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects the errors of every section.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

func (cs ColorScheme) String() string { return string(cs) }

// IsValid reports whether cs is auto, dark or light.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("color_scheme %q is not one of auto, dark, light", e.Value)
}

// Unwrap returns ErrInvalidColorScheme.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid reports whether the binary is set.
func (c NixConfig) IsValid() (bool, []error) {
	if strings.TrimSpace(c.Binary) == "" {
		return false, []error{&InvalidNixConfigError{FieldErrors: []error{errors.New("binary must not be empty")}}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidNixConfigError) Error() string {
	return joinFieldErrors("invalid nix config", e.FieldErrors)
}

// Unwrap returns ErrInvalidNixConfig for errors.Is() compatibility.
func (e *InvalidNixConfigError) Unwrap() error { return ErrInvalidNixConfig }

// IsValid reports whether every denied name is a valid variable name.
func (c EnvConfig) IsValid() (bool, []error) {
	var errs []error
	for _, name := range c.Deny {
		if !varName.MatchString(name) {
			errs = append(errs, fmt.Errorf("deny: %q is not a variable name", name))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidEnvConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidEnvConfigError) Error() string {
	return joinFieldErrors("invalid env config", e.FieldErrors)
}

// Unwrap returns ErrInvalidEnvConfig for errors.Is() compatibility.
func (e *InvalidEnvConfigError) Unwrap() error { return ErrInvalidEnvConfig }

// DebounceDuration parses Debounce. An empty value yields DefaultDebounce.
func (c WatchConfig) DebounceDuration() (time.Duration, error) {
	s := c.Debounce
	if s == "" {
		s = DefaultDebounce
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("debounce: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("debounce: %s is not positive", s)
	}
	return d, nil
}

// IsValid reports whether the debounce parses to a positive duration.
func (c WatchConfig) IsValid() (bool, []error) {
	if _, err := c.DebounceDuration(); err != nil {
		return false, []error{&InvalidWatchConfigError{FieldErrors: []error{err}}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	return joinFieldErrors("invalid watch config", e.FieldErrors)
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// IsValid validates every section and collects all section errors into
// one InvalidConfigError.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, check := range []func() (bool, []error){
		c.Nix.IsValid, c.Env.IsValid, c.Watch.IsValid, c.UI.ColorScheme.IsValid,
	} {
		if ok, sectionErrs := check(); !ok {
			errs = append(errs, sectionErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return joinFieldErrors("invalid config", e.FieldErrors)
}

func joinFieldErrors(prefix string, errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return prefix + ": " + strings.Join(msgs, "; ")
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the configuration used when config.cue is absent.
func DefaultConfig() *Config {
	return &Config{
		Nix: NixConfig{
			Binary:    DefaultNixBinary,
			ExtraArgs: []string{},
		},
		Env: EnvConfig{
			Deny: []string{},
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
			Patterns: []string{},
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
			Accessible:  false,
			Theme:       DefaultTheme,
		},
	}
}
