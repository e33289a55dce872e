// SPDX-License-Identifier: MPL-2.0

package config

import (
	"path/filepath"
	"testing"
)

func TestFilePath(t *testing.T) {
	t.Parallel()

	got, err := FilePath(LoadOptions{ConfigFilePath: "/etc/nixenv.cue", ConfigDirPath: "/ignored"})
	if err != nil || got != "/etc/nixenv.cue" {
		t.Errorf("FilePath(explicit) = %q, %v", got, err)
	}

	dir := t.TempDir()
	got, err = FilePath(LoadOptions{ConfigDirPath: dir})
	if err != nil || got != filepath.Join(dir, "config.cue") {
		t.Errorf("FilePath(dir) = %q, %v", got, err)
	}
}

func TestNewProviderImplementsProvider(t *testing.T) {
	t.Parallel()

	var p Provider = NewProvider()
	if p == nil {
		t.Fatal("NewProvider() = nil")
	}
}
