// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "evaluate environment file"},
			expected: "failed to evaluate environment file",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "evaluate environment file", Resource: "shell.nix"},
			expected: "failed to evaluate environment file: shell.nix",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load workspace settings",
				Resource:  ".nixenv/settings.toml",
				Cause:     errors.New("toml: expected newline"),
			},
			expected: "failed to load workspace settings: .nixenv/settings.toml: toml: expected newline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("nix binary not found")
	err := WrapWithContext(fmt.Errorf("launch: %w", sentinel), "evaluate environment file", "shell.nix")
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}
	if WrapWithContext(nil, "noop", "x") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("exit status 1")
	err := NewErrorContext().
		WithOperation("evaluate environment file").
		WithResource("shell.nix").
		WithSuggestion("Fix the file").
		WithSuggestions("Run 'nixenv reload'").
		Wrap(fmt.Errorf("nix: %w", inner)).
		Build()

	plain := err.Format(false)
	if !strings.Contains(plain, "  • Fix the file") || !strings.Contains(plain, "  • Run 'nixenv reload'") {
		t.Errorf("Format(false) missing suggestions:\n%s", plain)
	}
	if strings.Contains(plain, "Error chain:") {
		t.Errorf("Format(false) contains error chain:\n%s", plain)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "1. nix: exit status 1") || !strings.Contains(verbose, "2. exit status 1") {
		t.Errorf("Format(true) error chain wrong:\n%s", verbose)
	}
	if !err.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without operation should return nil")
	}

	err := NewErrorContext().WithOperation("reload environment").WithIssue(NothingToReloadId).Build()
	if err.Issue != NothingToReloadId {
		t.Errorf("Issue = %d, want %d", err.Issue, NothingToReloadId)
	}
	if err.Error() != "failed to reload environment" {
		t.Errorf("Error() = %q", err.Error())
	}

	// Later changes to the builder do not leak into a built error.
	ctx := NewErrorContext().WithOperation("open workspace")
	first := ctx.Build()
	ctx.WithResource("/elsewhere")
	if first.Resource != "" {
		t.Errorf("built error changed to %q", first.Resource)
	}
}
