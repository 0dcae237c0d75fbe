// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bytes"
	"context"
	"strings"

	"github.com/cyan-tools/cyan/internal/module"
)

// Otool lists load commands with otool.
type Otool struct {
	tool *Tool
}

// NewOtool creates an Otool for the binary at path.
func NewOtool(path string, opts ...Option) *Otool {
	return &Otool{tool: NewTool(OtoolName, path, opts...)}
}

// ListReferences returns the rewritable dependency references of bin.
// Only the first architecture of a fat binary is considered.
func (o *Otool) ListReferences(ctx context.Context, bin string) ([]module.Reference, error) {
	out, err := o.tool.Output(ctx, "-L", bin)
	if err != nil {
		return nil, err
	}
	return parseOtoolOutput(string(out)), nil
}

// Encrypted reports whether any encryption info load command of bin has cryptid 1.
func (o *Otool) Encrypted(ctx context.Context, bin string) (bool, error) {
	out, err := o.tool.Output(ctx, "-l", bin)
	if err != nil {
		return false, err
	}
	return bytes.Contains(out, []byte("cryptid 1")), nil
}

// parseOtoolOutput extracts rewritable references from `otool -L` output.
// The first two lines hold the file header and the library's own install name.
// Listing stops at the next "(architecture " header so fat binaries are not
// reported twice.
func parseOtoolOutput(out string) []module.Reference {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) <= 2 {
		return nil
	}
	lines = lines[2:]
	for i, l := range lines {
		if strings.Contains(l, "(architecture ") {
			lines = lines[:i]
			break
		}
	}

	var refs []module.Reference
	for _, l := range lines {
		if !strings.HasPrefix(l, "\t") {
			continue
		}
		fields := strings.Fields(l)
		if len(fields) == 0 {
			continue
		}
		if ref := module.Reference(fields[0]); ref.Rewritable() {
			refs = append(refs, ref)
		}
	}
	return refs
}
