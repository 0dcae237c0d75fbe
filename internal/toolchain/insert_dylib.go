// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"

	"github.com/cyan-tools/cyan/internal/module"
)

// InsertDylib adds weak load commands immediately with insert_dylib.
// It is the injector used on iOS hosts, where no Mach-O writer is available.
type InsertDylib struct {
	tool *Tool
	bin  string
}

// NewInsertDylib creates an injector that patches bin in place.
func NewInsertDylib(path, bin string, opts ...Option) *InsertDylib {
	return &InsertDylib{tool: NewTool(InsertDylibName, path, opts...), bin: bin}
}

// AddWeak adds a weak load command for ref to the executable.
func (i *InsertDylib) AddWeak(ctx context.Context, ref module.Reference) error {
	_, err := i.tool.Run(ctx, "--weak", "--inplace", "--no-strip-codesig", "--all-yes", ref.String(), i.bin)
	return err
}

// Flush is a no-op: every AddWeak is already written.
func (i *InsertDylib) Flush(context.Context) error { return nil }
