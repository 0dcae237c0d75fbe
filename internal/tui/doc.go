// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive prompts used by the cyan CLI.
//
// Prompts are built on charmbracelet/huh. When stdin is not a terminal, or
// the ACCESSIBLE environment variable is set, they fall back to huh's
// accessible line mode and write to stderr.
package tui
