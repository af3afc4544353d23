// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cargo-wapm/internal/config"
)

// newConfigCommand creates the `cargo wapm config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cargo-wapm configuration",
		Long: `Manage cargo-wapm configuration.

Configuration is stored in:
  - Linux: ~/.config/cargo-wapm/config.cue
  - macOS: ~/Library/Application Support/cargo-wapm/config.cue
  - Windows: %APPDATA%\cargo-wapm\config.cue

Environment variables prefixed with CARGO_WAPM_ override file values, and
$CARGO selects the cargo binary when cargo_bin is not set.`,
		// The config commands load the file themselves so that a missing or
		// broken file can be inspected and created.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags, err := readGlobalFlags(cmd)
			if err != nil {
				return err
			}
			level := slog.LevelInfo
			if flags.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(newLogger(app.stderr, level))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := readGlobalFlags(cmd)
			if err != nil {
				return err
			}
			path, err := config.FilePath(config.LoadOptions{ConfigFilePath: flags.ConfigPath})
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, flags, err := loadConfigStrict(cmd, app)
			if err != nil {
				return app.fail(cmd, err, config.ColorSchemeAuto, flags.Verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

// loadConfigStrict loads the configuration without falling back to defaults.
func loadConfigStrict(cmd *cobra.Command, app *App) (*config.Config, globalFlags, error) {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return nil, flags, err
	}
	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.ConfigPath})
	return cfg, flags, err
}

func showConfig(cmd *cobra.Command, app *App) error {
	cfg, flags, err := loadConfigStrict(cmd, app)
	if err != nil {
		return app.fail(cmd, err, config.ColorSchemeAuto, flags.Verbose)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("cargo_bin"), valueStyle.Render(cfg.CargoBin.OrDefault()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("publish_command"), valueStyle.Render(cfg.PublishCommand.OrDefault()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("min_description_length"), valueStyle.Render(fmt.Sprint(cfg.MinDescriptionLength)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprint(cfg.UI.Verbose)))
	fmt.Fprintf(w, "  log_level: %s\n", valueStyle.Render(cfg.UI.Level().String()))

	return nil
}

func initConfig(cmd *cobra.Command, app *App) error {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}

	path, err := config.CreateDefaultConfig(config.LoadOptions{ConfigFilePath: flags.ConfigPath})
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Fprintf(app.stdout, "%s Configuration file at %s\n", successIcon, CmdStyle.Render(path))
	return nil
}
