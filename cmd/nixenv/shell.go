// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/nixenv/nixenv/internal/envsink"
	"github.com/nixenv/nixenv/internal/issue"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// newShellCommand creates the `nixenv shell` command.
func newShellCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start $SHELL with the collected environment",
		Long: `Start your login shell ($SHELL, or /bin/sh) with the variables collected
from the environment file. The shell's exit status is passed through.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.open(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if root, inside := app.Env.Get(ActiveVar); inside {
				s.logger.Warn("already inside a nixenv shell", "workspace", root)
			}
			return app.runChild(cmd.Context(), s, userShell(), nil)
		},
	}
}

// newExecCommand creates the `nixenv exec` command.
func newExecCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec -- COMMAND [ARGS...]",
		Short: "Run a command with the collected environment",
		Long: `Run a command with the variables collected from the environment file.
The command is looked up on the collected PATH and its exit status is passed
through.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return app.runChild(cmd.Context(), s, args[0], args[1:])
		},
	}
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// newExportCommand creates the `nixenv export` command.
func newExportCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var langName string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the collected environment as shell exports",
		Long: `Print the collected environment as export statements, for

  eval "$(nixenv export)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var lang syntax.LangVariant
			if err := lang.Set(langName); err != nil {
				return fmt.Errorf("invalid --lang: %w", err)
			}
			s, err := app.open(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return app.export(s, lang)
		},
	}
	cmd.Flags().StringVar(&langName, "lang", "bash", "shell dialect to quote for: bash, posix or mksh")

	return cmd
}

func (a *App) export(s *session, lang syntax.LangVariant) error {
	vars := s.environment()
	if len(s.collection.Entries()) == 0 {
		s.logger.Warn("no nix environment collected, run 'nixenv enable' first")
	}
	for _, name := range envsink.SortedNames(vars) {
		if !syntax.ValidName(name) {
			s.logger.Warn("skipping variable that is not a valid shell name", "name", name)
			continue
		}
		quoted, err := syntax.Quote(vars[name], lang)
		if err != nil {
			return fmt.Errorf("quote %s: %w", name, err)
		}
		fmt.Fprintf(a.stdout, "export %s=%s\n", name, quoted)
	}
	return nil
}

// runChild runs name with the collected environment, attached to the
// terminal. The program is resolved on the collected PATH.
func (a *App) runChild(_ context.Context, s *session, name string, args []string) error {
	if len(s.collection.Entries()) == 0 {
		s.logger.Warn("no nix environment collected, run 'nixenv enable' first")
	}
	env := envsink.Environ(os.Environ(), s.environment())

	wd, err := a.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	path, err := interp.LookPathDir(wd, expand.ListEnviron(env...), name)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("start program").
			WithResource(name).
			WithSuggestion("Check that the environment file provides it, then run 'nixenv reload'").
			WithIssue(issue.ShellNotFoundId).
			Wrap(err).
			BuildError()
	}

	// Interrupts reach the child through the terminal; it decides when to exit.
	child := exec.Command(path, args...)
	child.Env = env
	child.Stdin = a.stdin
	child.Stdout = a.stdout
	child.Stderr = a.stderr
	s.logger.Debug("starting program", "path", path, "args", args)

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if code < 0 {
				code = exitFailure
			}
			return &ExitError{Code: code}
		}
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

func userShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	return "/bin/sh"
}
