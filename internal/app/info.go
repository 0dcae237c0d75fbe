// SPDX-License-Identifier: MPL-2.0

package app

import (
	"fmt"
	"os"

	"howett.net/plist"
)

// InfoPlistName is the bundle metadata file.
const InfoPlistName = "Info.plist"

// Info is the subset of Info.plist cyan reads.
type Info struct {
	Executable string `plist:"CFBundleExecutable"`
	Identifier string `plist:"CFBundleIdentifier"`
	Name       string `plist:"CFBundleName"`
	Version    string `plist:"CFBundleShortVersionString"`
}

// ReadInfo decodes the Info.plist at path. XML and binary property lists are
// both accepted.
func ReadInfo(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var info Info
	if err := plist.NewDecoder(f).Decode(&info); err != nil {
		return nil, fmt.Errorf("couldn't read %s: %w", path, err)
	}
	return &info, nil
}
