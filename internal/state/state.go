// SPDX-License-Identifier: MPL-2.0

// Package state holds the process-wide nixenv state and maps it to a status
// representation.
package state

import (
	"fmt"
	"sync"

	"github.com/nixenv/nixenv/internal/envsink"
	"github.com/nixenv/nixenv/internal/settings"
)

type (
	// State is the process-wide record of configuration and load progress.
	// Enabled and EnvironmentFile are persisted through the Configuration;
	// the remaining flags live only for the process lifetime.
	State struct {
		cfg settings.Configuration

		mu                  sync.Mutex
		enabled             bool
		environmentFile     string
		applied             bool
		pendingWindowReload bool
		lastEvaluationError bool
		originalPath        string
	}

	// Snapshot is a consistent copy of State.
	Snapshot struct {
		Enabled                         bool
		EnvironmentFile                 string
		Applied                         bool
		PendingWindowReload             bool
		LastEvaluationFinishedWithError bool
		OriginalPath                    string
	}
)

// New loads the persisted fields from cfg and captures PATH from env.
func New(cfg settings.Configuration, env envsink.Sink) (*State, error) {
	s, err := cfg.Load()
	if err != nil {
		return nil, fmt.Errorf("load workspace settings: %w", err)
	}
	path, _ := env.Get("PATH")
	return &State{
		cfg:             cfg,
		enabled:         s.Enabled,
		environmentFile: s.EnvironmentFile,
		originalPath:    path,
	}, nil
}

// Restore seeds the session flags from the persistent collection record so a
// new process reports what an earlier one applied. Entries collected from the
// configured file mean it was applied; a failed record restores the error
// flag. A pending record still needs a restart unless carried reports that
// the running environment already holds the collected variables.
func (s *State) Restore(c envsink.Collection, carried bool) {
	rec := c.Record()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.environmentFile == "" || rec.Source != s.environmentFile {
		return
	}
	s.lastEvaluationError = rec.Failed
	s.applied = !rec.Failed && len(c.Entries()) > 0
	s.pendingWindowReload = rec.Pending && !carried
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Enabled:                         s.enabled,
		EnvironmentFile:                 s.environmentFile,
		Applied:                         s.applied,
		PendingWindowReload:             s.pendingWindowReload,
		LastEvaluationFinishedWithError: s.lastEvaluationError,
		OriginalPath:                    s.originalPath,
	}
}

// Enabled reports whether nixenv is enabled for the workspace.
func (s *State) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled updates and persists the enabled flag.
func (s *State) SetEnabled(v bool) error {
	s.mu.Lock()
	s.enabled = v
	s.mu.Unlock()
	return s.cfg.Save(settings.Partial{Enabled: settings.Bool(v)})
}

// EnvironmentFile returns the workspace-relative environment file, or "".
func (s *State) EnvironmentFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.environmentFile
}

// SetEnvironmentFile updates and persists the environment file. An empty
// path unsets it.
func (s *State) SetEnvironmentFile(rel string) error {
	s.mu.Lock()
	s.environmentFile = rel
	if rel == "" {
		s.applied = false
	}
	s.mu.Unlock()
	return s.cfg.Save(settings.Partial{EnvironmentFile: settings.String(rel)})
}

// Applied reports whether the environment of EnvironmentFile is applied.
func (s *State) Applied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// SetApplied sets the applied flag. Applied cannot be set while no
// environment file is selected.
func (s *State) SetApplied(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = v && s.environmentFile != ""
}

// PendingWindowReload reports whether a restart is needed to take effect.
func (s *State) PendingWindowReload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingWindowReload
}

// SetPendingWindowReload sets the pending reload flag.
func (s *State) SetPendingWindowReload(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingWindowReload = v
}

// LastEvaluationFinishedWithError reports whether the latest evaluation failed.
func (s *State) LastEvaluationFinishedWithError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEvaluationError
}

// SetLastEvaluationFinishedWithError sets the sticky evaluation error flag.
func (s *State) SetLastEvaluationFinishedWithError(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEvaluationError = v
}

// OriginalPath is PATH as captured when the state was constructed.
func (s *State) OriginalPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.originalPath
}
