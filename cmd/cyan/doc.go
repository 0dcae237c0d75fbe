// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for cyan.
//
// This package implements the Cobra command hierarchy for the cyan CLI: the
// root command, `inject` (the injection pipeline), `deps` (Mach-O dependency
// inspection) and `config` (configuration management).
package cmd
