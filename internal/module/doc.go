// SPDX-License-Identifier: MPL-2.0

// Package module models the units injected into an app bundle.
//
// A Module is identified by the final path component of its source. Its Kind is a
// closed variant derived from the name suffix once, at construction time, and every
// later decision (staging, dependency fixing, materialization, load injection)
// dispatches on that Kind rather than re-inspecting the file name.
//
// Set keeps modules keyed by name in insertion order. Replacing an existing name keeps
// its position, so a caller that supplies the same name twice gets the last path at the
// position of the first.
package module
