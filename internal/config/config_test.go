// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nixenv/nixenv/internal/issue"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.cue")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Nix.Binary != "nix" || cfg.Watch.Debounce != "500ms" || cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if ok, errs := cfg.IsValid(); !ok {
		t.Errorf("DefaultConfig() invalid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	t.Parallel()

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if filepath.Base(dir) != AppName {
		t.Errorf("ConfigDir() = %q, want suffix %q", dir, AppName)
	}
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().LoadResolved(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.Nix.Binary != DefaultNixBinary || cfg.UI.Theme != DefaultTheme {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoad_CustomPath_Valid(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
nix: {
	binary: "/opt/nix/bin/nix"
	extra_args: ["--offline"]
}
env: deny: ["SSL_CERT_FILE"]
watch: {
	debounce: "2s"
	patterns: ["flake.lock"]
}
ui: {
	color_scheme: "dark"
	verbose: true
}
`)
	cfg, resolved, err := NewProvider().LoadResolved(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Nix.Binary != "/opt/nix/bin/nix" || !slices.Equal(cfg.Nix.ExtraArgs, []string{"--offline"}) {
		t.Errorf("Nix = %+v", cfg.Nix)
	}
	if !slices.Equal(cfg.Env.Deny, []string{"SSL_CERT_FILE"}) {
		t.Errorf("Env = %+v", cfg.Env)
	}
	if d, err := cfg.Watch.DebounceDuration(); err != nil || d != 2*time.Second {
		t.Errorf("DebounceDuration() = %v, %v", d, err)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark || !cfg.UI.Verbose || cfg.UI.Theme != DefaultTheme {
		t.Errorf("UI = %+v", cfg.UI)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(`ui: accessible: true`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.UI.Accessible {
		t.Error("ui.accessible not loaded from the config directory")
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "invalid syntax", content: `nix: {`, want: "load configuration"},
		{name: "unknown field", content: `container_engine: "docker"`, want: "container_engine"},
		{name: "bad color scheme", content: `ui: color_scheme: "purple"`, want: "ui.color_scheme"},
		{name: "bad deny name", content: `env: deny: ["NOT A NAME"]`, want: "env.deny"},
		{name: "bad debounce", content: `watch: debounce: "soon"`, want: "watch.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: writeConfig(t, tt.content)})
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Issue != issue.ConfigLoadFailedId || !ae.HasSuggestions() {
				t.Errorf("Load() error is not an actionable config error: %#v", err)
			}
		})
	}
}

func TestLoad_CustomPath_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("NIXENV_NIX_BINARY", "/custom/nix")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Nix.Binary != "/custom/nix" {
		t.Errorf("Nix.Binary = %q", cfg.Nix.Binary)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	opts := LoadOptions{ConfigDirPath: filepath.Join(t.TempDir(), "nested")}
	path, err := CreateDefaultConfig(opts, false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}

	cfg, resolved, err := NewProvider().LoadResolved(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if resolved != path || cfg.Nix.Binary != DefaultNixBinary {
		t.Errorf("resolved = %q cfg = %+v", resolved, cfg)
	}

	if err := os.WriteFile(path, []byte(`ui: verbose: true`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(opts, false); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != `ui: verbose: true` {
		t.Error("CreateDefaultConfig() overwrote an existing file without force")
	}
	if _, err := CreateDefaultConfig(opts, true); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); !strings.Contains(string(data), "nixenv configuration file") {
		t.Error("CreateDefaultConfig(force) did not rewrite the file")
	}
}

func TestGenerateCUE(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Env.Deny = []string{"A", "B"}
	out := GenerateCUE(cfg)
	for _, want := range []string{`binary: "nix"`, `deny: ["A", "B"]`, `debounce: "500ms"`, `color_scheme: "auto"`} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateCUE() missing %q:\n%s", want, out)
		}
	}
}

func TestConfigDirPrefersXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, AppName); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}
