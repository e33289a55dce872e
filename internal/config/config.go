// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nixenv/nixenv/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

const (
	// AppName names the per-user config directory.
	AppName = "nixenv"
	// ConfigFileName and ConfigFileExt make up "config.cue".
	ConfigFileName = "config"
	ConfigFileExt  = "cue"
	// EnvPrefix prefixes environment overrides, e.g. NIXENV_NIX_BINARY.
	EnvPrefix = "NIXENV"

	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the directory holding config.cue. XDG_CONFIG_HOME wins
// on every platform when set; otherwise Windows uses %APPDATA%, macOS
// ~/Library/Application Support and everything else ~/.config.
//
//nolint:revive // config.ConfigDir reads better at call sites than config.Dir
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}

	base := ""
	switch runtime.GOOS {
	case "windows":
		if base = os.Getenv("APPDATA"); base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
		if runtime.GOOS == "darwin" {
			base = filepath.Join(home, "Library", "Application Support")
		}
	}
	return filepath.Join(base, AppName), nil
}

// FilePath returns the config file path for opts: the explicit file when
// set, otherwise config.cue in the config directory. The file may not exist.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions layers defaults, config.cue and NIXENV_* overrides. The
// returned path is "" when no file was read.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load configuration: %w", err)
	}

	v := newViper(DefaultConfig())

	path, err := FilePath(opts)
	if err != nil {
		return nil, "", err
	}

	loaded := ""
	if fileExists(path) {
		values, err := decodeConfigFile(path)
		if err == nil {
			err = v.MergeConfigMap(values)
		}
		if err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestions(
					"Fix the reported field, or run 'nixenv config init --force' to start over",
					"Run 'nixenv config dump' to see every key with its default",
				).
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
		loaded = path
	} else if opts.ConfigFilePath != "" {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithSuggestion("Pass an existing file to --config, or drop the flag to use the default location").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(os.ErrNotExist).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("decode configuration: %w", err)
	}

	// The schema only guards the file; overrides from the environment are
	// checked here.
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(loaded).
			WithSuggestion("Check NIXENV_* environment overrides").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, loaded, nil
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	for key, value := range map[string]any{
		"nix.binary":      defaults.Nix.Binary,
		"nix.extra_args":  defaults.Nix.ExtraArgs,
		"env.deny":        defaults.Env.Deny,
		"watch.debounce":  defaults.Watch.Debounce,
		"watch.patterns":  defaults.Watch.Patterns,
		"ui.color_scheme": defaults.UI.ColorScheme,
		"ui.verbose":      defaults.UI.Verbose,
		"ui.accessible":   defaults.UI.Accessible,
		"ui.theme":        defaults.UI.Theme,
	} {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// decodeConfigFile checks the file against #Config and returns its fields
// as a map for viper. Every field is optional, so values need not be
// concrete.
func decodeConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("%s is %d bytes, the limit is %d", path, len(data), maxConfigFileSize)
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("embedded schema: %w", err)
	}

	file := cctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return nil, cueFieldErrors(err, path)
	}
	merged := schema.Unify(file)
	if err := merged.Validate(cue.Concrete(false)); err != nil {
		return nil, cueFieldErrors(err, path)
	}

	var values map[string]any
	if err := merged.Decode(&values); err != nil {
		return nil, cueFieldErrors(err, path)
	}
	return values, nil
}

// cueFieldErrors flattens a CUE error list into one line per field, e.g.
// "config.cue: ui.color_scheme: 3 errors in empty disjunction".
func cueFieldErrors(err error, file string) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	lines := make([]string, 0, len(list))
	for _, e := range list {
		field := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if field == "" {
			lines = append(lines, msg)
			continue
		}
		msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, field), ":"))
		lines = append(lines, field+": "+msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", file, lines[0])
	}
	return fmt.Errorf("%s: %d problems:\n  %s", file, len(lines), strings.Join(lines, "\n  "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CreateDefaultConfig writes the default config file at the path for opts.
// An existing file is kept unless force is set. It returns the path.
func CreateDefaultConfig(opts LoadOptions, force bool) (string, error) {
	path, err := FilePath(opts)
	if err != nil {
		return "", err
	}
	if !force && fileExists(path) {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg as a config.cue document accepted by #Config.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// nixenv configuration file\n")

	block := func(name string, fields ...string) {
		fmt.Fprintf(&sb, "\n%s: {\n", name)
		for _, f := range fields {
			sb.WriteString("\t" + f + "\n")
		}
		sb.WriteString("}\n")
	}
	block("nix",
		fmt.Sprintf("binary: %q", cfg.Nix.Binary),
		"extra_args: "+cueList(cfg.Nix.ExtraArgs))
	block("env",
		"deny: "+cueList(cfg.Env.Deny))
	block("watch",
		fmt.Sprintf("debounce: %q", cfg.Watch.Debounce),
		"patterns: "+cueList(cfg.Watch.Patterns))
	block("ui",
		fmt.Sprintf("color_scheme: %q", cfg.UI.ColorScheme),
		fmt.Sprintf("verbose: %v", cfg.UI.Verbose),
		fmt.Sprintf("accessible: %v", cfg.UI.Accessible),
		fmt.Sprintf("theme: %q", cfg.UI.Theme))

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
