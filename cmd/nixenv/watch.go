// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nixenv/nixenv/internal/issue"
	"github.com/nixenv/nixenv/internal/watch"
	"github.com/nixenv/nixenv/internal/workspace"

	"github.com/spf13/cobra"
)

// newWatchCommand creates the `nixenv watch` command.
func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var extra []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Activate and reload when the environment file changes",
		Long: `Run the startup activation, then watch the selected environment file
and reload it whenever it changes. Files matching watch.patterns in the
configuration, or --pattern, trigger a reload too.

Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatchMode(cmd.Context(), app, flags, extra)
		},
	}
	cmd.Flags().StringArrayVarP(&extra, "pattern", "p", nil, "additional glob relative to the workspace root (repeatable)")

	return cmd
}

// runWatchMode activates, then reloads on changes until ctx is cancelled.
func runWatchMode(ctx context.Context, app *App, flags *rootFlagValues, extra []string) error {
	s, err := app.open(ctx, flags)
	if err != nil {
		return err
	}
	if s.workspace == nil {
		return issue.NewErrorContext().
			WithOperation("watch environment file").
			WithSuggestion("Run nixenv inside a workspace or pass --workspace").
			WithIssue(issue.NoWorkspaceId).
			Wrap(workspace.ErrNoWorkspace).
			BuildError()
	}

	if err := app.finish(s, s.handlers.Activate(ctx)); err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			return err
		}
		// Keep watching: saving a fixed file recovers.
	}

	patterns := watchPatterns(s.state.EnvironmentFile(), s.cfg.Watch.Patterns, extra)
	if len(patterns) == 0 {
		return fmt.Errorf("nothing to watch: select an environment file or pass --pattern: %w", watch.ErrNoPatterns)
	}
	debounce, err := s.cfg.Watch.DebounceDuration()
	if err != nil {
		return fmt.Errorf("invalid watch config: %w", err)
	}

	w, err := watch.New(watch.Config{
		Root:     s.workspace.Root,
		Patterns: patterns,
		Debounce: debounce,
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stderr, "%s Detected %d change(s), reloading...\n", CmdStyle.Render("→"), len(changed))
			// Failures were reported to the user; keep watching.
			var exitErr *ExitError
			if reloadErr := app.finish(s, s.handlers.Reload(ctx)); reloadErr != nil && !errors.As(reloadErr, &exitErr) {
				fmt.Fprintf(app.stderr, "%s Reload failed: %v\n", WarningStyle.Render("!"), reloadErr)
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(app.stderr, "%s Watching %v (Ctrl+C to stop)...\n", CmdStyle.Render("→"), patterns)
	return w.Run(ctx)
}

// watchPatterns returns the selected file followed by the configured and
// extra patterns, without duplicates.
func watchPatterns(file string, configured, extra []string) []string {
	var patterns []string
	if file != "" {
		patterns = append(patterns, file)
	}
	for _, p := range slices.Concat(configured, extra) {
		if p != "" && !slices.Contains(patterns, p) {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
