// SPDX-License-Identifier: MPL-2.0

// Package config handles cyan configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/cyan/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/cyan/config.cue on macOS, %APPDATA%\cyan\config.cue
// on Windows). Files are validated against the embedded config_schema.cue before they
// are merged over the defaults.
//
// The loaded Config is turned into a Toolset once at process start. The Toolset holds
// every install-relative location the injection pipeline needs (external tools, the
// extras directory) and is passed explicitly to the components that use it.
package config
