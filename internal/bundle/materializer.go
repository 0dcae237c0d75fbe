// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/cyan-tools/cyan/internal/module"
)

type (
	// Placement is where one module lands inside the bundle.
	Placement struct {
		Module      module.Module
		Destination string
		// Replaced is true when a previous copy existed and was removed.
		Replaced bool
	}

	copyFunc func(src, dst string) error

	// Materializer copies staged modules into a bundle.
	Materializer struct {
		layout   Layout
		logger   *log.Logger
		handlers map[module.Kind]copyFunc
	}
)

// NewMaterializer creates a Materializer for layout. A nil logger discards output.
func NewMaterializer(layout Layout, logger *log.Logger) *Materializer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Materializer{
		layout: layout,
		logger: logger,
		handlers: map[module.Kind]copyFunc{
			module.KindExtension: CopyTree,
			module.KindLibrary:   CopyFile,
			module.KindFramework: CopyTree,
			module.KindResource:  CopyAny,
		},
	}
}

// Prepare resolves the destination of mod and removes any stale copy there.
func (m *Materializer) Prepare(mod module.Module) (Placement, error) {
	dest := m.layout.Destination(mod)
	replaced, err := m.ReplaceExisting(dest, mod.Name)
	if err != nil {
		return Placement{}, err
	}
	return Placement{Module: mod, Destination: dest, Replaced: replaced}, nil
}

// Copy writes the payload of a prepared placement using the handler for its kind.
func (m *Materializer) Copy(ctx context.Context, p Placement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	handler, ok := m.handlers[p.Module.Kind]
	if !ok {
		return &module.InvalidKindError{Value: p.Module.Kind}
	}
	return handler(p.Module.Path(), p.Destination)
}

// Supply replaces Frameworks/<name> with a copy of the directory src.
func (m *Materializer) Supply(ctx context.Context, name, src string) (Placement, error) {
	if err := ctx.Err(); err != nil {
		return Placement{}, err
	}
	dest := filepath.Join(m.layout.Frameworks(), name)
	replaced, err := m.ReplaceExisting(dest, name)
	if err != nil {
		return Placement{}, err
	}
	p := Placement{Module: module.NewStaged(src), Destination: dest, Replaced: replaced}
	return p, CopyTree(src, dest)
}

// ReplaceExisting removes the file or tree at path. It reports whether
// something was there.
func (m *Materializer) ReplaceExisting(path, name string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := os.RemoveAll(path); err != nil {
		return false, err
	}
	m.logger.Warn(name + " already existed, replacing")
	return true, nil
}
