// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cargo-wapm/internal/translate"
)

// validationFailedExitCode is returned by `validate` when a manifest has errors.
const validationFailedExitCode = 2

// newValidateCommand creates the `cargo wapm validate` command.
func newValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report problems in the generated wapm.toml",
		Long: `Translate the selected packages and report every validation finding
without writing anything.

Exits with status 2 when any package has errors. Warnings alone do not fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, app)
		},
	}
}

func runValidate(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)

	flags, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	opts, err := publishOptions(cmd, flags)
	if err != nil {
		return err
	}

	results, err := app.pipeline(ctx, flags.NoCargoMetadata).Check(ctx, opts)
	app.renderResults(ctx, results)
	if err != nil {
		return app.fail(cmd, err, cfg.UI.ColorScheme, flags.Verbose)
	}

	failed := 0
	for _, res := range results {
		if translate.HasErrors(res.Diagnostics) {
			failed++
			fmt.Fprintf(app.stderr, "%s %s is invalid\n", errorIcon, TitleStyle.Render(res.Package))
			continue
		}
		fmt.Fprintf(app.stdout, "%s %s is valid\n", successIcon, TitleStyle.Render(res.Package))
	}

	if failed > 0 {
		cmd.SilenceUsage = true
		return &ExitError{Code: validationFailedExitCode}
	}
	return nil
}
