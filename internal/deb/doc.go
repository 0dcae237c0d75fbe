// SPDX-License-Identifier: MPL-2.0

// Package deb unpacks Debian packages and discovers the injectable modules
// they ship. A package is an ar archive whose data.tar member may be stored
// uncompressed or compressed with gzip, xz, lzma, zstd or bzip2.
package deb
