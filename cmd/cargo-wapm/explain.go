// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cargo-wapm/internal/issue"
)

// newExplainCommand creates the `cargo wapm explain` command, which prints
// the troubleshooting pages shown with failures.
func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [issue-id]",
		Short: "Show troubleshooting help for a failure",
		Long: `Without arguments, list the known failures. With an issue id, render its
troubleshooting page.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, entry := range issue.Values() {
					fmt.Fprintf(app.stdout, "%s %s\n", CmdStyle.Render(fmt.Sprintf("%3d", entry.Id())), entry.Title())
				}
				return nil
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid issue id %q: %w", args[0], err)
			}
			entry := issue.Get(issue.Id(id))
			if entry == nil {
				return fmt.Errorf("unknown issue id %d", id)
			}

			cfg := configFromContext(cmd.Context())
			rendered, err := entry.Render(cfg.UI.ColorScheme.String())
			if err != nil {
				return fmt.Errorf("failed to render issue %d: %w", id, err)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
}
