// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/u-root/u-root/pkg/cp"
)

// copier dereferences symbolic links so bundles never point outside themselves.
var copier = cp.Default

// CopyTree copies the directory src to dst.
func CopyTree(src, dst string) error {
	if err := copier.CopyTree(src, dst); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}

// CopyFile copies the single file src to dst.
func CopyFile(src, dst string) error {
	if err := copier.Copy(src, dst); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}

// CopyAny copies src to dst recursively when it is a directory and as a
// single file otherwise.
func CopyAny(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return CopyTree(src, dst)
	}
	return CopyFile(src, dst)
}

// CopyInto copies src into dir under its own base name and returns the new path.
func CopyInto(src, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))
	if err := CopyAny(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}
