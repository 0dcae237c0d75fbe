// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"

	"github.com/cyan-tools/cyan/internal/module"
)

// FrameworksRpath is the runtime search path under which injected modules resolve.
const FrameworksRpath = "@executable_path/Frameworks"

// InstallNameTool drives install_name_tool.
type InstallNameTool struct {
	tool *Tool
}

// NewInstallNameTool creates an InstallNameTool for the binary at path.
func NewInstallNameTool(path string, opts ...Option) *InstallNameTool {
	return &InstallNameTool{tool: NewTool(InstallNameToolName, path, opts...)}
}

// Rewrite replaces the dependency reference from with to inside bin.
func (n *InstallNameTool) Rewrite(ctx context.Context, bin string, from, to module.Reference) error {
	_, err := n.tool.Run(ctx, "-change", from.String(), to.String(), bin)
	return err
}

// AddRpath adds a runtime search path to bin. It fails harmlessly when the
// path is already present.
func (n *InstallNameTool) AddRpath(ctx context.Context, bin, rpath string) BestEffort {
	_, err := n.tool.Run(ctx, "-add_rpath", rpath, bin)
	return bestEffort("add rpath "+rpath, err)
}
