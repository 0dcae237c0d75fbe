// SPDX-License-Identifier: MPL-2.0

package app

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidApp is the sentinel error wrapped by InvalidAppError.
	ErrInvalidApp = errors.New("invalid app")
	// ErrInvalidInput is wrapped when the input path itself is unusable,
	// before anything is read from it.
	ErrInvalidInput = errors.New("invalid input path")
)

type (
	// InvalidAppError reports an input that is not a usable application.
	InvalidAppError struct {
		Path   string
		Reason string
	}

	// InvalidInputError reports an input path with the wrong suffix or one
	// that does not exist.
	InvalidInputError struct {
		InvalidAppError
	}
)

// Error implements the error interface.
func (e *InvalidAppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidApp for errors.Is() compatibility.
func (e *InvalidAppError) Unwrap() error { return ErrInvalidApp }

// Unwrap returns both ErrInvalidInput and ErrInvalidApp.
func (e *InvalidInputError) Unwrap() []error { return []error{ErrInvalidInput, ErrInvalidApp} }

func invalid(path, reason string) error {
	return &InvalidAppError{Path: path, Reason: reason}
}

func invalidInput(path, reason string) error {
	return &InvalidInputError{InvalidAppError{Path: path, Reason: reason}}
}
