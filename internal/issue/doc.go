// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and remediation
// hints. The issue catalog maps the well-known failure classes of an injection run
// (bad input, missing modules, missing tools, extraction and signing failures) to
// Markdown guidance rendered with glamour.
package issue
