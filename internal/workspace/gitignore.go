// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// gitDirName marks a git work tree root. It is a directory in a regular
// clone and a file in linked worktrees and submodules.
const gitDirName = ".git"

// IsGitWorkTree reports whether the workspace root is the top of a git
// work tree.
func (f *Folder) IsGitWorkTree() bool {
	_, err := os.Stat(filepath.Join(f.Root, gitDirName))
	return err == nil
}

// MetaDirIgnored reports whether the root .gitignore excludes the .nixenv
// directory. Workspaces that are not git work trees report true: there is
// nothing the directory could be committed to.
func (f *Folder) MetaDirIgnored() (bool, error) {
	if !f.IsGitWorkTree() {
		return true, nil
	}
	patterns, err := readIgnorePatterns(filepath.Join(f.Root, ".gitignore"))
	if err != nil {
		return false, err
	}
	return gitignore.NewMatcher(patterns).Match([]string{MetaDirName}, true), nil
}

// readIgnorePatterns parses a .gitignore file. A missing file has no
// patterns.
func readIgnorePatterns(path string) ([]gitignore.Pattern, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer file.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return patterns, nil
}
