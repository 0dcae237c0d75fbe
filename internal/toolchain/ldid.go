// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"fmt"
)

const (
	// SignAdHoc signs without keeping existing entitlements.
	SignAdHoc SignMode = "adhoc"
	// SignAdHocMerge signs while merging existing entitlements.
	SignAdHocMerge SignMode = "adhoc-merge"
)

// ErrInvalidSignMode is the sentinel error wrapped by InvalidSignModeError.
var ErrInvalidSignMode = errors.New("invalid sign mode")

type (
	// SignMode selects how ldid treats entitlements when signing.
	SignMode string

	// InvalidSignModeError is returned when a SignMode value is not recognized.
	InvalidSignModeError struct {
		Value SignMode
	}

	// Ldid drives the ldid signing tool.
	Ldid struct {
		tool *Tool
	}
)

// NewLdid creates an Ldid for the binary at path.
func NewLdid(path string, opts ...Option) *Ldid {
	return &Ldid{tool: NewTool(LdidName, path, opts...)}
}

// ExtractEntitlements returns the entitlements embedded in bin.
// A binary without entitlements yields zero bytes and no error.
func (l *Ldid) ExtractEntitlements(ctx context.Context, bin string) ([]byte, error) {
	out, err := l.tool.Output(ctx, "-e", bin)
	if err != nil {
		var te *ToolError
		// ldid exits non-zero for unsigned binaries; that only means "nothing to keep".
		if errors.As(err, &te) && len(out) == 0 {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// Sign ad-hoc signs bin.
func (l *Ldid) Sign(ctx context.Context, bin string, mode SignMode) error {
	if ok, errs := mode.IsValid(); !ok {
		return errs[0]
	}
	args := []string{"-S"}
	if mode == SignAdHocMerge {
		args = append(args, "-M")
	}
	_, err := l.tool.Run(ctx, append(args, bin)...)
	return err
}

// RestoreEntitlements signs bin with the entitlements stored at entPath.
func (l *Ldid) RestoreEntitlements(ctx context.Context, bin, entPath string) error {
	_, err := l.tool.Run(ctx, "-S"+entPath, bin)
	return err
}

// String returns the string representation of the SignMode.
func (m SignMode) String() string { return string(m) }

// IsValid returns whether the SignMode is one of the defined modes,
// and a list of validation errors if it is not.
func (m SignMode) IsValid() (bool, []error) {
	switch m {
	case SignAdHoc, SignAdHocMerge:
		return true, nil
	default:
		return false, []error{&InvalidSignModeError{Value: m}}
	}
}

// Error implements the error interface.
func (e *InvalidSignModeError) Error() string {
	return fmt.Sprintf("invalid sign mode %q (valid: adhoc, adhoc-merge)", e.Value)
}

// Unwrap returns ErrInvalidSignMode for errors.Is() compatibility.
func (e *InvalidSignModeError) Unwrap() error { return ErrInvalidSignMode }
