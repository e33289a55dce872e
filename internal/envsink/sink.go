// SPDX-License-Identifier: MPL-2.0

package envsink

import (
	"maps"
	"os"
	"sync"
)

type (
	// Sink reads and writes session environment variables.
	Sink interface {
		Get(name string) (string, bool)
		Set(name, value string) error
	}

	// ProcessSink is a Sink over the process environment.
	ProcessSink struct{}

	// MapSink is an in-memory Sink, safe for concurrent use.
	MapSink struct {
		mu   sync.RWMutex
		vars map[string]string
	}
)

// Get implements Sink.
func (ProcessSink) Get(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Set implements Sink.
func (ProcessSink) Set(name, value string) error {
	return os.Setenv(name, value)
}

// NewMapSink returns a MapSink seeded with a copy of initial.
func NewMapSink(initial map[string]string) *MapSink {
	vars := make(map[string]string, len(initial))
	maps.Copy(vars, initial)
	return &MapSink{vars: vars}
}

// Get implements Sink.
func (s *MapSink) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Set implements Sink.
func (s *MapSink) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
	return nil
}

// Vars returns a copy of the current variables.
func (s *MapSink) Vars() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.vars)
}
