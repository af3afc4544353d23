// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"cargo-wapm/internal/publish"
	"cargo-wapm/internal/translate"
)

type (
	// DiagnosticRenderer renders validator and artifact findings.
	DiagnosticRenderer interface {
		Render(ctx context.Context, pkg string, diags []translate.Diagnostic, w io.Writer)
	}

	defaultDiagnosticRenderer struct{}
)

// Render writes one numbered line per diagnostic followed by a summary.
func (r *defaultDiagnosticRenderer) Render(_ context.Context, pkg string, diags []translate.Diagnostic, w io.Writer) {
	if len(diags) == 0 {
		return
	}

	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(pkg), SubtitleStyle.Render("wapm.toml"))
	for i, d := range diags {
		prefix := WarningStyle.Render("warning")
		if d.IsError() {
			prefix = ErrorStyle.Render("error")
		}
		fmt.Fprintf(w, "  %d. %s %s %s\n", i+1, prefix, CmdStyle.Render(d.Field), codeStyle.Render("["+d.Code.String()+"]"))
		fmt.Fprintf(w, "     %s\n", d.Message)
	}

	errs, warnings := translate.CountBySeverity(diags)
	fmt.Fprintf(w, "  %d error(s), %d warning(s)\n", errs, warnings)
}

// renderResults prints the diagnostics of every result.
func (a *App) renderResults(ctx context.Context, results []publish.Result) {
	for _, res := range results {
		a.Diagnostics.Render(ctx, res.Package, res.Diagnostics, a.stderr)
	}
}
