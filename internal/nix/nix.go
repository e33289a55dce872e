// SPDX-License-Identifier: MPL-2.0

// Package nix runs the external evaluator that turns an environment file
// into a dev environment JSON document.
package nix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "nix"

// ErrNotFound is wrapped when the evaluator binary cannot be launched.
var ErrNotFound = errors.New("nix binary not found")

type (
	// Evaluator evaluates an environment file and returns its stdout.
	Evaluator interface {
		Evaluate(ctx context.Context, file string) ([]byte, error)
	}

	// Command evaluates with `nix print-dev-env`.
	Command struct {
		// Binary defaults to DefaultBinary.
		Binary string
		// ExtraArgs are inserted before the file argument.
		ExtraArgs []string
		// Dir is the working directory; usually the workspace root.
		Dir string
		// Env overrides the child environment when non-nil.
		Env []string
	}

	// EvaluationError reports a failed or unlaunchable evaluation.
	EvaluationError struct {
		Args []string
		// ExitCode is -1 when the process never ran.
		ExitCode int
		Stderr   string
		Err      error
	}
)

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	cmdline := strings.Join(e.Args, " ")
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s exited with code %d", cmdline, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", cmdline, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvaluationError) Unwrap() error { return e.Err }

// Diagnostics returns the evaluator's diagnostic output, or the error text
// when the evaluator wrote nothing.
func (e *EvaluationError) Diagnostics() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return e.Error()
}

// Args returns the full command line for file, binary first.
func (c Command) Args(file string) []string {
	bin := c.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	args := []string{bin, "--extra-experimental-features", "nix-command", "print-dev-env", "--impure", "--json"}
	args = append(args, c.ExtraArgs...)
	return append(args, "-f", file)
}

// Evaluate implements Evaluator.
func (c Command) Evaluate(ctx context.Context, file string) ([]byte, error) {
	args := c.Args(file)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	evalErr := &EvaluationError{Args: args, ExitCode: -1, Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		evalErr.Err = ctx.Err()
	case errors.As(err, &exitErr):
		evalErr.ExitCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound):
		evalErr.Err = fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return nil, evalErr
}

// Func adapts a function to Evaluator.
type Func func(ctx context.Context, file string) ([]byte, error)

// Evaluate implements Evaluator.
func (f Func) Evaluate(ctx context.Context, file string) ([]byte, error) { return f(ctx, file) }
