// SPDX-License-Identifier: MPL-2.0

// Package settings persists the per-workspace choices: whether nixenv is
// enabled and which environment file is selected.
//
// Persistence is explicit. Callers Load once and Save a Partial whenever they
// change one of the two fields; nothing is written as a side effect of
// reading or assigning state.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/nixenv/nixenv/internal/workspace"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the settings file inside the workspace metadata directory.
const FileName = "settings.toml"

type (
	// Settings are the persisted workspace settings.
	Settings struct {
		// Enabled defaults to true.
		Enabled bool
		// EnvironmentFile is workspace-relative; empty means unset.
		EnvironmentFile string
	}

	// Partial names the fields to update. Nil fields are left as stored.
	Partial struct {
		Enabled         *bool
		EnvironmentFile *string
	}

	// Configuration loads and saves Settings.
	Configuration interface {
		Load() (Settings, error)
		Save(p Partial) error
	}

	// File stores settings as TOML under the workspace metadata directory.
	File struct {
		path string
		mu   sync.Mutex
	}

	// Memory keeps settings in memory. It is used when no workspace is open.
	Memory struct {
		mu       sync.Mutex
		settings Settings
		saves    int
	}

	settingsFile struct {
		Enabled         *bool  `toml:"enabled,omitempty"`
		EnvironmentFile string `toml:"environment-file,omitempty"`
	}
)

// Default returns the settings used when nothing is stored.
func Default() Settings {
	return Settings{Enabled: true}
}

// Bool returns a pointer to b for building a Partial.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s for building a Partial.
func String(s string) *string { return &s }

// Apply returns s with the non-nil fields of p.
func (s Settings) Apply(p Partial) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.EnvironmentFile != nil {
		s.EnvironmentFile = *p.EnvironmentFile
	}
	return s
}

// NewFile returns the settings file for the workspace.
func NewFile(ws *workspace.Folder) *File {
	return &File{path: filepath.Join(ws.MetaDir(), FileName)}
}

// NewFileAt returns a settings file at an explicit path.
func NewFileAt(path string) *File {
	return &File{path: path}
}

// Path returns the settings file path.
func (f *File) Path() string { return f.path }

// Load implements Configuration. A missing file yields Default.
func (f *File) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *File) load() (Settings, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read workspace settings: %w", err)
	}

	var raw settingsFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("parse workspace settings %s: %w", f.path, err)
	}

	s := Default()
	if raw.Enabled != nil {
		s.Enabled = *raw.Enabled
	}
	s.EnvironmentFile = raw.EnvironmentFile
	return s, nil
}

// Save implements Configuration. It rewrites the file with p merged onto the
// stored values.
func (f *File) Save(p Partial) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	next := current.Apply(p)

	data, err := toml.Marshal(settingsFile{
		Enabled:         Bool(next.Enabled),
		EnvironmentFile: next.EnvironmentFile,
	})
	if err != nil {
		return fmt.Errorf("encode workspace settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create workspace metadata directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write workspace settings: %w", err)
	}
	return nil
}

// NewMemory returns in-memory settings seeded with s.
func NewMemory(s Settings) *Memory {
	return &Memory{settings: s}
}

// Load implements Configuration.
func (m *Memory) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

// Save implements Configuration.
func (m *Memory) Save(p Partial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = m.settings.Apply(p)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
