// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions selects where configuration comes from. The zero value reads
// config.cue from ConfigDir.
type LoadOptions struct {
	// ConfigFilePath names the file to read; it must exist.
	ConfigFilePath string
	// ConfigDirPath replaces ConfigDir as the directory searched for config.cue.
	ConfigDirPath string
}

type (
	// Provider produces a Config for a set of options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// Resolver also reports which file the Config came from, for
	// `nixenv config show`.
	Resolver interface {
		Provider
		LoadResolved(ctx context.Context, opts LoadOptions) (*Config, string, error)
	}

	cueFileResolver struct{}
)

// NewProvider returns the Resolver backed by config.cue, viper defaults and
// NIXENV_* environment overrides.
func NewProvider() Resolver {
	return cueFileResolver{}
}

func (cueFileResolver) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

// LoadResolved returns the path of the file read, or "" when only defaults
// and environment overrides applied.
func (cueFileResolver) LoadResolved(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}
