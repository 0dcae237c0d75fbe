// SPDX-License-Identifier: MPL-2.0

package toolchain

import "context"

// ThinArch is the architecture kept when thinning.
const ThinArch = "arm64"

// Lipo drives lipo.
type Lipo struct {
	tool *Tool
}

// NewLipo creates a Lipo for the binary at path.
func NewLipo(path string, opts ...Option) *Lipo {
	return &Lipo{tool: NewTool(LipoName, path, opts...)}
}

// Thin replaces bin with its arch slice. Binaries that are already thin make
// lipo fail, which is reported but harmless.
func (l *Lipo) Thin(ctx context.Context, bin, arch string) BestEffort {
	_, err := l.tool.Run(ctx, "-thin", arch, bin, "-output", bin)
	return bestEffort("thin to "+arch, err)
}
