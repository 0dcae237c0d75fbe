// SPDX-License-Identifier: MPL-2.0

// Package app opens iOS applications for patching and writes them back.
//
// An application arrives either as an .app bundle directory, which is copied
// into the work directory, or as an .ipa archive, which is unpacked there. In
// both cases the bundle ends up at <work>/Payload/<name>.app so it can be
// zipped again unchanged.
package app
