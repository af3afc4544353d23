// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"cargo-wapm/internal/cargo"
	"cargo-wapm/internal/config"
	"cargo-wapm/internal/issue"
	"cargo-wapm/internal/pack"
	"cargo-wapm/internal/publish"
	"cargo-wapm/internal/translate"
	"cargo-wapm/pkg/cargometa"
	"cargo-wapm/pkg/wapmtoml"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. Always create via newServiceError to enforce the
// Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// renderServiceError prints the styled message, then the issue catalog entry
// rendered with the given glamour style.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, style config.ColorScheme) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(style.String())
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// classifyError maps a pipeline failure to an issue catalog ID and returns a
// styled message for CLI rendering. An issue attached to an ActionableError
// takes precedence.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	styledMsg = fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	if entry := issue.IssueOf(err); entry != nil {
		return entry.Id(), styledMsg
	}

	var (
		cargoErr *cargo.CommandError
		packErr  *pack.Error
	)
	switch {
	case errors.Is(err, cargo.ErrCommandFailed) && errors.Is(err, exec.ErrNotFound):
		issueID = issue.CargoNotFoundId
	case errors.As(err, &cargoErr) && len(cargoErr.Args) > 0 && cargoErr.Args[0] == "build":
		issueID = issue.BuildFailedId
	case errors.Is(err, cargo.ErrCommandFailed), errors.Is(err, cargometa.ErrUnsupportedFormat):
		issueID = issue.CargoMetadataFailedId
	case errors.Is(err, cargometa.ErrNoPackageSelected):
		issueID = issue.NoPackageSelectedId
	case errors.Is(err, cargometa.ErrMissingWapmTable):
		issueID = issue.MissingWapmTableId
	case errors.Is(err, translate.ErrNoPublishableTarget):
		issueID = issue.NoPublishableTargetId
	case errors.Is(err, translate.ErrValidationFailed), errors.Is(err, translate.ErrDuplicateModuleName):
		issueID = issue.ManifestInvalidId
	case errors.Is(err, cargo.ErrArtifactMissing):
		issueID = issue.ArtifactMissingId
	case errors.Is(err, publish.ErrPublishFailed), errors.Is(err, publish.ErrEmptyCommand):
		issueID = issue.PublishFailedId
	case errors.As(err, &packErr):
		issueID = issue.PackFailedId
	case errors.Is(err, wapmtoml.ErrIoFailure):
		issueID = issue.ManifestWriteFailedId
	}

	return issueID, styledMsg
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// fail reports err with its catalog entry and returns the ExitError that
// ends the command.
func (a *App) fail(cmd *cobra.Command, err error, style config.ColorScheme, verbose bool) error {
	issueID, styled := classifyError(err, verbose)
	renderServiceError(a.stderr, newServiceError(err, issueID, styled), style)
	cmd.SilenceUsage = true
	return &ExitError{Code: 1, Err: err}
}

// handleError is the fang error handler. Failures already reported by a
// command are not printed again.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
