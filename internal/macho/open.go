// SPDX-License-Identifier: MPL-2.0

package macho

import (
	"errors"
	"fmt"
	"io"

	gomacho "github.com/blacktop/go-macho"
)

// ErrNotMachO is returned when a file is neither a thin nor a fat Mach-O binary.
var ErrNotMachO = errors.New("not a Mach-O binary")

// NotMachOError is returned when path cannot be parsed as a Mach-O binary.
type NotMachOError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *NotMachOError) Error() string {
	return fmt.Sprintf("%s is not a Mach-O binary: %v", e.Path, e.Err)
}

// Unwrap returns ErrNotMachO for errors.Is() compatibility.
func (e *NotMachOError) Unwrap() []error { return []error{ErrNotMachO, e.Err} }

// openSlices opens path and returns every architecture slice it contains.
// The returned closer releases the underlying file.
func openSlices(path string) ([]*gomacho.File, io.Closer, error) {
	fat, err := gomacho.OpenFat(path)
	if err == nil {
		files := make([]*gomacho.File, 0, len(fat.Arches))
		for i := range fat.Arches {
			files = append(files, fat.Arches[i].File)
		}
		return files, fat, nil
	}
	if !errors.Is(err, gomacho.ErrNotFat) {
		return nil, nil, &NotMachOError{Path: path, Err: err}
	}
	m, err := gomacho.Open(path)
	if err != nil {
		return nil, nil, &NotMachOError{Path: path, Err: err}
	}
	return []*gomacho.File{m}, m, nil
}
