// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cyan-tools/cyan/internal/app"
	"github.com/cyan-tools/cyan/internal/config"
	"github.com/cyan-tools/cyan/internal/deb"
	"github.com/cyan-tools/cyan/internal/inject"
	"github.com/cyan-tools/cyan/internal/issue"
	"github.com/cyan-tools/cyan/internal/module"
	"github.com/cyan-tools/cyan/internal/toolchain"
	"github.com/cyan-tools/cyan/pkg/types"
)

// ServiceError is an error that carries rendering information for the CLI
// layer: the issue catalog entry explaining it and the process exit code.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// Code is the exit code the process ends with.
	Code types.ExitCode

	display string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, code types.ExitCode) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:     err,
		IssueID: issueID,
		Code:    code,
	}
}

// Error implements the error interface. It returns the formatted message
// with suggestions once the error has been rendered.
func (e *ServiceError) Error() string {
	if e.display != "" {
		return e.display
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps a failure to an issue catalog ID and an exit code.
// Caller mistakes exit with ExitUsage, everything else with ExitFailure.
func classifyError(err error) *ServiceError {
	switch {
	case errors.Is(err, context.Canceled):
		return newServiceError(err, 0, types.ExitInterrupted)
	case errors.Is(err, app.ErrInvalidInput):
		return newServiceError(err, issue.InvalidInputId, types.ExitUsage)
	case errors.Is(err, app.ErrInvalidApp):
		return newServiceError(err, issue.InvalidAppId, types.ExitUsage)
	case errors.Is(err, module.ErrMissingSource):
		return newServiceError(err, issue.ModuleNotFoundId, types.ExitUsage)
	case errors.Is(err, inject.ErrUserInput):
		return newServiceError(err, issue.InvalidInputId, types.ExitUsage)
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidInjectorBackend),
		errors.Is(err, config.ErrInvalidExtractorBackend):
		return newServiceError(err, issue.ConfigLoadFailedId, types.ExitUsage)
	case errors.Is(err, toolchain.ErrToolNotFound):
		return newServiceError(err, issue.ToolNotFoundId, types.ExitFailure)
	case errors.Is(err, inject.ErrExtraMissing):
		return newServiceError(err, issue.ExtrasMissingId, types.ExitFailure)
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Operation == "load configuration" {
		return newServiceError(err, issue.ConfigLoadFailedId, types.ExitUsage)
	}

	var extractErr *deb.ExtractError
	if errors.As(err, &extractErr) {
		return newServiceError(err, issue.ExtractionFailedId, types.ExitFailure)
	}
	var collabErr *inject.CollaboratorError
	if errors.As(err, &collabErr) && collabErr.Tool() == toolchain.LdidName {
		return newServiceError(err, issue.SigningFailedId, types.ExitFailure)
	}
	return newServiceError(err, 0, types.ExitFailure)
}

// renderServiceError prints the issue help section of svcErr, if any.
func renderServiceError(stderr io.Writer, svcErr *ServiceError) {
	if svcErr == nil || svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// fail renders the help for err and returns the ExitError Cobra hands back
// to Execute. Tool output is printed in verbose mode.
func (a *App) fail(err error) error {
	svcErr := classifyError(err)
	renderServiceError(a.stderr, svcErr)

	if a.flags.verbose {
		var collabErr *inject.CollaboratorError
		if errors.As(err, &collabErr) && len(collabErr.Output()) > 0 {
			fmt.Fprintf(a.stderr, "%s\n%s\n", VerboseStyle.Render(collabErr.Tool()+" output:"), collabErr.Output())
		}
		fmt.Fprintln(a.stderr, VerboseStyle.Render(fmt.Sprintf("exit %d (%s)", int(svcErr.Code), svcErr.Code)))
	}
	svcErr.display = formatErrorForDisplay(err, a.flags.verbose)
	return &ExitError{Code: svcErr.Code, Err: svcErr}
}
