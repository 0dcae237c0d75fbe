// SPDX-License-Identifier: MPL-2.0

// Package types holds value types shared by the cyan CLI and its tests.
package types

import "strconv"

// ExitCode is the status the cyan process exits with.
type ExitCode int

const (
	// ExitSuccess means the run completed, or the user declined to overwrite.
	ExitSuccess ExitCode = 0
	// ExitFailure means an external tool or filesystem operation failed.
	ExitFailure ExitCode = 1
	// ExitUsage means the caller supplied invalid input or configuration.
	ExitUsage ExitCode = 2
	// ExitInterrupted means the run was canceled by SIGINT (128 + 2).
	ExitInterrupted ExitCode = 130
)

// String names the codes above and falls back to the number for others.
func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitFailure:
		return "failure"
	case ExitUsage:
		return "usage"
	case ExitInterrupted:
		return "interrupted"
	default:
		return strconv.Itoa(int(c))
	}
}
