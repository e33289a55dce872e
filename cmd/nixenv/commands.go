// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// newEnableCommand creates the `nixenv enable` command.
func newEnableCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var activation bool

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Enable nixenv and load the environment file",
		Long: `Enable nixenv for the workspace and load the configured environment file.

When no file is configured, or the configured one is gone, the best candidate
in the workspace root is suggested (shell.nix, then default.nix, then any
other *.nix file).

With --activation the command behaves as the startup path: a workspace that
was disabled stays disabled, and loading does not ask for a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd.Context(), flags, func(ctx context.Context, s *session) error {
				if activation {
					return s.handlers.Activate(ctx)
				}
				return s.handlers.Enable(ctx, false)
			})
		},
	}
	cmd.Flags().BoolVar(&activation, "activation", false, "run as the startup activation")

	return cmd
}

// newDisableCommand creates the `nixenv disable` command.
func newDisableCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable nixenv and clear the collected environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd.Context(), flags, func(ctx context.Context, s *session) error {
				return s.handlers.Disable(ctx)
			})
		},
	}
}

// newClearCommand creates the `nixenv clear` command.
func newClearCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Unset the environment file and clear the collected environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd.Context(), flags, func(ctx context.Context, s *session) error {
				return s.handlers.Clear(ctx)
			})
		},
	}
}

// newReloadCommand creates the `nixenv reload` command.
func newReloadCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-evaluate the configured environment file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd.Context(), flags, func(ctx context.Context, s *session) error {
				return s.handlers.Reload(ctx)
			})
		},
	}
}

// newSelectCommand creates the `nixenv select` command.
func newSelectCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:     "select",
		Aliases: []string{"select-environment-file"},
		Short:   "Pick the environment file, or clear or disable the environment",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd.Context(), flags, func(ctx context.Context, s *session) error {
				return s.handlers.SelectEnvironmentFile(ctx)
			})
		},
	}
}

// run opens a session, runs fn and prints the resulting status item.
func (a *App) run(ctx context.Context, flags *rootFlagValues, fn func(context.Context, *session) error) error {
	s, err := a.open(ctx, flags)
	if err != nil {
		return err
	}
	return a.finish(s, fn(ctx, s))
}
