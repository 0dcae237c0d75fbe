// SPDX-License-Identifier: MPL-2.0

// Package macho reads and patches Mach-O binaries in-process with go-macho.
//
// Inspector lists the dependency references of a binary, detects encrypted
// executables and summarizes load commands for the deps command. WeakLinker
// batches weak load commands and writes them to every architecture slice of the
// main executable in one Flush.
package macho
