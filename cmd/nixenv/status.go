// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/nixenv/nixenv/internal/state"

	"github.com/spf13/cobra"
)

const (
	statusFormatText  = "text"
	statusFormatPlain = "plain"
	statusFormatJSON  = "json"
)

// newStatusCommand creates the `nixenv status` command.
func newStatusCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		format  string
		tooltip bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status item",
		Long: `Show the status item of the workspace.

The item is hidden (nothing is printed) when nixenv is disabled. Use
--format plain in a shell prompt, and --format json for tooling.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.open(cmd.Context(), flags)
			if err != nil {
				return err
			}
			status := state.Present(s.state.Snapshot())
			return printStatus(app, status, format, tooltip)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", statusFormatText, "output format: text, plain or json")
	cmd.Flags().BoolVar(&tooltip, "tooltip", false, "append the tooltip")

	return cmd
}

func printStatus(app *App, status state.Status, format string, tooltip bool) error {
	var line string
	switch format {
	case statusFormatText:
		r := state.NewRenderer(app.stdout)
		line = r.Render(status)
		if tooltip {
			line = r.RenderWithTooltip(status)
		}
	case statusFormatPlain:
		line = state.Plain(status)
		if tooltip && line != "" && status.Tooltip != "" {
			line += " (" + status.Tooltip + ")"
		}
	case statusFormatJSON:
		data, err := json.Marshal(status)
		if err != nil {
			return fmt.Errorf("encode status: %w", err)
		}
		line = string(data)
	default:
		return fmt.Errorf("unknown status format %q (valid: %s, %s, %s)", format, statusFormatText, statusFormatPlain, statusFormatJSON)
	}

	if line != "" {
		fmt.Fprintln(app.stdout, line)
	}
	return nil
}
