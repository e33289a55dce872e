// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nixenv/nixenv/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	workspace  string
	configPath string
	verbose    bool
	// answers replies to prompts in order instead of asking the terminal.
	answers []string
}

// NewRootCommand builds the nixenv command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "nixenv",
		Short: "Apply nix development environments to your workspace",
		Long: TitleStyle.Render("nixenv") + SubtitleStyle.Render(" - Apply nix development environments to your workspace") + `

nixenv evaluates a *.nix environment file from the workspace root with
'nix print-dev-env', keeps the exported variables in the workspace and
hands them to your shell and tools.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'nixenv enable' in a directory holding shell.nix or default.nix
  2. Start a shell with the environment: nixenv shell
     or apply it to the current one: eval "$(nixenv export)"

` + SubtitleStyle.Render("Examples:") + `
  nixenv enable             Load the configured file, or suggest one
  nixenv select             Pick the environment file
  nixenv status             Show the status item
  nixenv exec -- make       Run a command inside the environment
  nixenv watch              Reload when the environment file changes`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.workspace, "workspace", "w", "", "workspace directory (default is the nearest ancestor holding .nixenv, else the current directory)")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/nixenv/config.cue)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringArrayVar(&flags.answers, "answer", nil, "answer the next prompt with this label instead of asking (repeatable)")

	rootCmd.AddCommand(
		newEnableCommand(app, flags),
		newDisableCommand(app, flags),
		newClearCommand(app, flags),
		newReloadCommand(app, flags),
		newSelectCommand(app, flags),
		newStatusCommand(app, flags),
		newWatchCommand(app, flags),
		newShellCommand(app, flags),
		newExecCommand(app, flags),
		newExportCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs nixenv with the production dependencies and exits.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(exitFailure)
	}

	// fang sets its own version flag, so the version goes through WithVersion.
	err = fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	)
	os.Exit(exitCode(err))
}

// handleError prints err unless it is a bare exit code whose cause was
// already shown to the user. Actionable errors print their suggestions.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+ae.Format(false))
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
