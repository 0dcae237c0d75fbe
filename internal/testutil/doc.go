// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers shared across cyan packages: environment
// overrides that restore themselves, on-disk fixtures for .app bundles and
// injectable modules, and minimal Mach-O images.
package testutil
