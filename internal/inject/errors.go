// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cyan-tools/cyan/internal/toolchain"
)

var (
	// ErrUserInput is the sentinel error wrapped by UserInputError.
	ErrUserInput = errors.New("invalid input")

	// ErrCollaborator is the sentinel error wrapped by CollaboratorError.
	ErrCollaborator = errors.New("external step failed")

	// ErrExtraMissing is returned when a required runtime is absent from the extras directory.
	ErrExtraMissing = errors.New("runtime missing from extras directory")
)

type (
	// UserInputError reports bad paths supplied by the caller. Nothing has been
	// modified when it is returned.
	UserInputError struct {
		Reason string
		Paths  []string
	}

	// CollaboratorError reports a failed extraction, signing, rewriting or
	// injection step. The bundle may already be partially modified.
	CollaboratorError struct {
		Op      string
		Subject string
		Err     error
	}
)

// Error implements the error interface.
func (e *UserInputError) Error() string {
	if len(e.Paths) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Paths, ", "))
}

// Unwrap returns ErrUserInput for errors.Is() compatibility.
func (e *UserInputError) Unwrap() error { return ErrUserInput }

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Subject, e.Err)
}

// Unwrap returns both ErrCollaborator and the underlying error.
func (e *CollaboratorError) Unwrap() []error { return []error{ErrCollaborator, e.Err} }

// Tool returns the name of the external tool that failed, if any.
func (e *CollaboratorError) Tool() string {
	var te *toolchain.ToolError
	if errors.As(e.Err, &te) {
		return te.Name
	}
	var nf *toolchain.ToolNotFoundError
	if errors.As(e.Err, &nf) {
		return nf.Name
	}
	return ""
}

// Output returns everything the failed tool printed, if any.
func (e *CollaboratorError) Output() []byte {
	var te *toolchain.ToolError
	if errors.As(e.Err, &te) {
		return te.Output
	}
	return nil
}

func collaboratorError(op, subject string, err error) error {
	return &CollaboratorError{Op: op, Subject: subject, Err: err}
}
