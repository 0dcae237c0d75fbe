// SPDX-License-Identifier: MPL-2.0

package toolchain

import "github.com/cyan-tools/cyan/internal/config"

// Set holds one instance of every external tool resolved from a Toolset.
type Set struct {
	Ldid            *Ldid
	InstallNameTool *InstallNameTool
	Otool           *Otool
	Lipo            *Lipo
	tools           config.Toolset
	opts            []Option
}

// NewSet resolves every tool against ts.
func NewSet(ts config.Toolset, opts ...Option) *Set {
	return &Set{
		Ldid:            NewLdid(ts.Tool(LdidName), opts...),
		InstallNameTool: NewInstallNameTool(ts.Tool(InstallNameToolName), opts...),
		Otool:           NewOtool(ts.Tool(OtoolName), opts...),
		Lipo:            NewLipo(ts.Tool(LipoName), opts...),
		tools:           ts,
		opts:            opts,
	}
}

// InsertDylib returns an on-device injector bound to bin.
func (s *Set) InsertDylib(bin string) *InsertDylib {
	return NewInsertDylib(s.tools.Tool(InsertDylibName), bin, s.opts...)
}
