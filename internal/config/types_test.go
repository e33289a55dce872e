// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	for _, cs := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if ok, _ := cs.IsValid(); !ok {
			t.Errorf("%q should be valid", cs)
		}
	}
	ok, errs := ColorScheme("neon").IsValid()
	if ok || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidColorScheme) {
		t.Errorf("IsValid(neon) = %v, %v", ok, errs)
	}
}

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "empty binary", mutate: func(c *Config) { c.Nix.Binary = "  " }, want: ErrInvalidNixConfig},
		{name: "bad deny", mutate: func(c *Config) { c.Env.Deny = []string{"1X"} }, want: ErrInvalidEnvConfig},
		{name: "zero debounce", mutate: func(c *Config) { c.Watch.Debounce = "0s" }, want: ErrInvalidWatchConfig},
		{name: "bad scheme", mutate: func(c *Config) { c.UI.ColorScheme = "x" }, want: ErrInvalidColorScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			ok, errs := cfg.IsValid()
			if ok || len(errs) != 1 {
				t.Fatalf("IsValid() = %v, %v", ok, errs)
			}
			if !errors.Is(errs[0], ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig: %v", errs[0])
			}
			var cfgErr *InvalidConfigError
			if !errors.As(errs[0], &cfgErr) || !errors.Is(cfgErr.FieldErrors[0], tt.want) {
				t.Errorf("field error = %v, want %v", cfgErr, tt.want)
			}
		})
	}
}

func TestWatchConfig_DebounceDuration(t *testing.T) {
	t.Parallel()

	if d, err := (WatchConfig{}).DebounceDuration(); err != nil || d != 500*time.Millisecond {
		t.Errorf("DebounceDuration() = %v, %v", d, err)
	}
	if _, err := (WatchConfig{Debounce: "-1s"}).DebounceDuration(); err == nil {
		t.Error("negative debounce accepted")
	}
}
