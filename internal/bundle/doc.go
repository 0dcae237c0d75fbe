// SPDX-License-Identifier: MPL-2.0

// Package bundle places modules inside an application bundle.
//
// Layout maps each module kind to its destination directory. Materializer
// removes stale copies (reporting them as replaced) and copies payloads with
// one handler per module kind.
package bundle
