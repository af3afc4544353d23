// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"cargo-wapm/internal/config"
)

// subcommandName is the argument cargo passes first when run as `cargo wapm`.
const subcommandName = "wapm"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the cargo-wapm command tree. Without a subcommand it
// publishes the selected packages.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cargo-wapm",
		Short: "Publish a Rust crate to the WebAssembly Package Manager",
		Long: TitleStyle.Render("cargo wapm") + SubtitleStyle.Render(" - publish Rust crates to WAPM") + `

cargo wapm compiles a crate to WebAssembly, generates its wapm.toml from the
crate's Cargo metadata and the [package.metadata.wapm] table, and publishes
the result with the wapm CLI.

` + SubtitleStyle.Render("Examples:") + `
  cargo wapm --dry-run            Build and pack without uploading
  cargo wapm --workspace          Publish every crate with a wapm table
  cargo wapm generate -o out.toml Write the manifest only
  cargo wapm validate             Report manifest problems`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd, app)
		},
	}

	addGlobalFlags(rootCmd)
	addPublishFlags(rootCmd)

	rootCmd.AddCommand(newGenerateCommand(app))
	rootCmd.AddCommand(newValidateCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newExplainCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// cargoSubcommandArgs drops the subcommand name cargo inserts when it runs
// `cargo wapm ...` as `cargo-wapm wapm ...`.
func cargoSubcommandArgs(args []string) []string {
	if len(args) > 0 && args[0] == subcommandName {
		return args[1:]
	}
	return args
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(cargoSubcommandArgs(os.Args[1:]))

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// loadConfig loads the configuration into the command context and installs
// the logger. A broken default config falls back to defaults with a warning;
// an explicit --config file must load.
func (a *App) loadConfig(cmd *cobra.Command) error {
	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}

	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.ConfigPath})
	if err != nil {
		if flags.ConfigPath != "" {
			return a.fail(cmd, err, config.ColorSchemeAuto, flags.Verbose)
		}
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, flags.Verbose))
		cfg = config.DefaultConfig()
	}

	level := cfg.UI.Level()
	if flags.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(a.stderr, level))

	cmd.SetContext(contextWithConfig(cmd.Context(), cfg))
	return nil
}
