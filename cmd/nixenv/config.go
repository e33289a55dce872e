// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/nixenv/nixenv/internal/config"
	"github.com/nixenv/nixenv/internal/settings"
	"github.com/nixenv/nixenv/internal/workspace"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `nixenv config` command tree.
// Subcommands that read configuration use the App's config Resolver.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage nixenv configuration",
		Long: `Manage nixenv configuration.

Configuration is read from $XDG_CONFIG_HOME/nixenv/config.cue when
XDG_CONFIG_HOME is set, otherwise from:
  - Linux: ~/.config/nixenv/config.cue
  - macOS: ~/Library/Application Support/nixenv/config.cue
  - Windows: %APPDATA%\nixenv\config.cue

Every key can be overridden with an environment variable, e.g.
NIXENV_NIX_BINARY or NIXENV_WATCH_DEBOUNCE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, flags)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app, flags, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output resolved configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, flags *rootFlagValues) error {
	cfg, path, err := app.Config.LoadResolved(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	if path != "" {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%s:\n", keyStyle.Render("nix"))
	fmt.Fprintf(out, "  binary: %s\n", valueStyle.Render(cfg.Nix.Binary))
	fmt.Fprintf(out, "  extra_args: %s\n", valueStyle.Render(listOrNone(cfg.Nix.ExtraArgs)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("env"))
	fmt.Fprintf(out, "  deny: %s\n", valueStyle.Render(listOrNone(cfg.Env.Deny)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("watch"))
	fmt.Fprintf(out, "  debounce: %s\n", valueStyle.Render(cfg.Watch.Debounce))
	fmt.Fprintf(out, "  patterns: %s\n", valueStyle.Render(listOrNone(cfg.Watch.Patterns)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(out, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(out, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(out, "  accessible: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Accessible)))
	fmt.Fprintf(out, "  theme: %s\n", valueStyle.Render(cfg.UI.Theme))

	return nil
}

func initConfig(app *App, flags *rootFlagValues, force bool) error {
	path, err := config.CreateDefaultConfig(config.LoadOptions{ConfigFilePath: flags.configPath}, force)
	if err != nil {
		return fmt.Errorf("create default config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App, flags *rootFlagValues) error {
	path, err := config.FilePath(config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Config file: %s\n", path)

	ws, err := app.resolveWorkspace(flags)
	if err != nil {
		return err
	}
	if ws != nil {
		fmt.Fprintf(app.stdout, "Workspace settings: %s\n", settings.NewFile(ws).Path())
		fmt.Fprintf(app.stdout, "Workspace metadata: %s\n", ws.MetaDir())
		if ignored, err := ws.MetaDirIgnored(); err == nil && !ignored {
			fmt.Fprintf(app.stdout, "  %s\n", WarningStyle.Render("not listed in .gitignore"))
		}
	} else {
		fmt.Fprintf(app.stdout, "Workspace settings: %s\n", SubtitleStyle.Render("("+workspace.ErrNoWorkspace.Error()+")"))
	}

	return nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
