// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against embedded schemas.
//
// The config loader compiles its embedded schema, unifies the user's file with the
// root definition and decodes the result into a map that is merged into Viper:
//
//	//go:embed config_schema.cue
//	var schema string
//
//	values, err := cueutil.DecodeMap(schema, data, "#Config", cueutil.WithFilename(path))
//
// Errors carry the file name and a JSON-path style location such as
// "tools.dir: expected string".
package cueutil
