// SPDX-License-Identifier: MPL-2.0

package envsink

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// CollectionFileName is the file name of the persistent collection inside the
// workspace metadata directory.
const CollectionFileName = "environment.toml"

type (
	// Record describes where the collected variables came from.
	Record struct {
		// Source is the workspace-relative environment file.
		Source string
		// Failed is true when the latest evaluation of Source failed. The
		// variables of the last successful evaluation are kept.
		Failed bool
		// Pending is true when the variables were collected by a manual load
		// and shells started before it do not have them yet.
		Pending bool
	}

	// Collection is the persistent set of variables inherited by newly
	// spawned shells. Changes are staged in memory until Save.
	Collection interface {
		Replace(name, value string)
		Clear()
		Entries() map[string]string
		Record() Record
		SetRecord(r Record)
		Save() error
	}

	// MemoryCollection is a Collection that never persists.
	MemoryCollection struct {
		mu     sync.Mutex
		vars   map[string]string
		record Record
		saves  int
	}

	// FileCollection persists the collection as TOML.
	FileCollection struct {
		path string

		mu     sync.Mutex
		vars   map[string]string
		record Record
	}

	collectionFile struct {
		Source    string            `toml:"source,omitempty"`
		Failed    bool              `toml:"failed,omitempty"`
		Pending   bool              `toml:"pending,omitempty"`
		UpdatedAt time.Time         `toml:"updated_at"`
		Variables map[string]string `toml:"variables"`
	}
)

// NewMemoryCollection returns an empty MemoryCollection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{vars: make(map[string]string)}
}

// Replace implements Collection.
func (c *MemoryCollection) Replace(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[name] = value
}

// Clear implements Collection.
func (c *MemoryCollection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.vars)
	c.record = Record{}
}

// Entries implements Collection.
func (c *MemoryCollection) Entries() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.vars)
}

// Record implements Collection.
func (c *MemoryCollection) Record() Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// SetRecord implements Collection.
func (c *MemoryCollection) SetRecord(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = r
}

// Save implements Collection.
func (c *MemoryCollection) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	return nil
}

// Saves returns how many times Save was called.
func (c *MemoryCollection) Saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

// OpenFileCollection loads the collection stored at path. A missing file
// yields an empty collection.
func OpenFileCollection(path string) (*FileCollection, error) {
	c := &FileCollection{path: path, vars: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read environment collection: %w", err)
	}

	var file collectionFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse environment collection %s: %w", path, err)
	}
	if file.Variables != nil {
		c.vars = file.Variables
	}
	c.record = Record{Source: file.Source, Failed: file.Failed, Pending: file.Pending}
	return c, nil
}

// Path returns the backing file path.
func (c *FileCollection) Path() string { return c.path }

// Replace implements Collection.
func (c *FileCollection) Replace(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[name] = value
}

// Clear implements Collection.
func (c *FileCollection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.vars)
	c.record = Record{}
}

// Entries implements Collection.
func (c *FileCollection) Entries() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.vars)
}

// Record implements Collection.
func (c *FileCollection) Record() Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// SetRecord implements Collection.
func (c *FileCollection) SetRecord(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = r
}

// Save writes the collection. An empty collection with no record removes
// the file instead.
func (c *FileCollection) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.vars) == 0 && c.record == (Record{}) {
		if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove environment collection: %w", err)
		}
		return nil
	}

	data, err := toml.Marshal(collectionFile{
		Source:    c.record.Source,
		Failed:    c.record.Failed,
		Pending:   c.record.Pending,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
		Variables: c.vars,
	})
	if err != nil {
		return fmt.Errorf("encode environment collection: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create workspace metadata directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write environment collection: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace environment collection: %w", err)
	}
	return nil
}

// Environ overlays vars onto base, a list of KEY=VALUE entries as returned
// by os.Environ. Collected variables win and are appended in name order.
func Environ(base []string, vars map[string]string) []string {
	out := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		if _, overridden := vars[envName(kv)]; overridden {
			continue
		}
		out = append(out, kv)
	}
	for _, name := range SortedNames(vars) {
		out = append(out, name+"="+vars[name])
	}
	return out
}

// SortedNames returns the keys of vars in lexical order.
func SortedNames(vars map[string]string) []string {
	return slices.Sorted(maps.Keys(vars))
}

// envName returns the name part of a KEY=VALUE entry. The search starts at
// index 1 because Windows keeps per-drive entries such as "=C:=C:\".
func envName(kv string) string {
	if len(kv) == 0 {
		return kv
	}
	if i := strings.IndexByte(kv[1:], '='); i >= 0 {
		return kv[:i+1]
	}
	return kv
}
