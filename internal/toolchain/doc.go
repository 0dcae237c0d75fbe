// SPDX-License-Identifier: MPL-2.0

// Package toolchain wraps the external Mach-O tools shipped next to cyan:
// ldid for signing, install_name_tool for reference rewriting, otool for
// dependency listing, lipo for thinning and insert_dylib for on-device injection.
//
// Every tool is invoked with exec.CommandContext so that cancellation of the
// run context terminates the child process. The command factory can be
// replaced with WithExecCommand in tests.
package toolchain
