// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newGenerateCommand creates the `cargo wapm generate` command.
func newGenerateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write wapm.toml without building or publishing",
		Long: `Translate the crate's Cargo metadata into wapm.toml.

The manifest is validated first and is not written when validation reports
errors. Without --output it goes to target/wapm/<package>/wapm.toml.

Examples:
  cargo wapm generate                      Write target/wapm/<package>/wapm.toml
  cargo wapm generate -o wapm.toml         Write to an explicit path
  cargo wapm generate --workspace          Write a manifest for every member`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, app)
		},
	}
	cmd.Flags().StringP(flagOutput, "o", "", "write the manifest to this path (single package only)")
	return cmd
}

func runGenerate(cmd *cobra.Command, app *App) error {
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
	output, err := cmd.Flags().GetString(flagOutput)
	if err != nil {
		return err
	}

	results, err := app.pipeline(ctx, flags.NoCargoMetadata).Generate(ctx, opts, output)
	app.renderResults(ctx, results)
	if err != nil {
		app.renderFailedValidation(ctx, err)
		return app.fail(cmd, err, cfg.UI.ColorScheme, flags.Verbose)
	}

	for _, res := range results {
		fmt.Fprintf(app.stdout, "%s Wrote %s\n", successIcon, CmdStyle.Render(res.ManifestPath))
	}
	return nil
}
