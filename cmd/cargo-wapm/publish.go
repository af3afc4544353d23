// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cargo-wapm/internal/publish"
	"cargo-wapm/internal/translate"
)

// runPublish builds, packs and publishes the selected packages.
func runPublish(cmd *cobra.Command, app *App) error {
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

	results, err := app.pipeline(ctx, flags.NoCargoMetadata).Run(ctx, opts)
	app.renderResults(ctx, results)
	if err != nil {
		app.renderFailedValidation(ctx, err)
		return app.fail(cmd, err, cfg.UI.ColorScheme, flags.Verbose)
	}

	for _, res := range results {
		verb := "Published"
		if opts.DryRun {
			verb = "Packed (dry run)"
		}
		fmt.Fprintf(app.stdout, "%s %s %s from %s\n",
			successIcon, verb, TitleStyle.Render(res.Manifest.String()), CmdStyle.Render(filepath.Dir(res.ManifestPath)))
	}
	return nil
}

// renderFailedValidation prints the diagnostics that blocked a manifest.
// Results only cover packages that got through, so they are not shown otherwise.
func (a *App) renderFailedValidation(ctx context.Context, err error) {
	var vErr *translate.ValidationFailedError
	if errors.As(err, &vErr) {
		a.Diagnostics.Render(ctx, vErr.Package, vErr.Diagnostics, a.stderr)
	}
}

var _ Pipeline = (*publish.Driver)(nil)
