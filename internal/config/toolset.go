// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	toolsDirName  = "tools"
	extrasDirName = "extras"

	// HostIOS is the machine directory name used for jailbroken iOS hosts.
	HostIOS = "iOS"
)

// Toolset is the immutable set of install-relative locations used by one run.
// It is built once at process start and passed explicitly to every component.
type Toolset struct {
	installRoot string
	toolsDir    string
	machine     string
	injector    InjectorBackend
	extractor   ExtractorBackend
	thin        bool
}

// NewToolset resolves cfg against the host. An empty InstallRoot means the
// directory containing the running executable.
func NewToolset(cfg *Config) (Toolset, error) {
	root := cfg.InstallRoot
	if root == "" {
		exe, err := os.Executable()
		if err != nil {
			return Toolset{}, fmt.Errorf("failed to locate cyan executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		root = filepath.Dir(exe)
	}
	return newToolset(cfg, root, HostSystem(runtime.GOOS), HostMachine(runtime.GOOS, runtime.GOARCH)), nil
}

func newToolset(cfg *Config, root, system, machine string) Toolset {
	tools := cfg.ToolsDir
	if tools == "" {
		tools = filepath.Join(root, toolsDirName, system, machine)
	}
	return Toolset{
		installRoot: root,
		toolsDir:    tools,
		machine:     machine,
		injector:    cfg.Injector,
		extractor:   cfg.Extractor,
		thin:        cfg.Thin,
	}
}

// HostSystem maps a GOOS value to the tools/ subdirectory naming scheme.
func HostSystem(goos string) string {
	switch goos {
	case "darwin", "ios":
		return "Darwin"
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	default:
		return goos
	}
}

// HostMachine maps a GOOS/GOARCH pair to the tools/ machine directory name.
// iPhones and iPads share a single iOS directory.
func HostMachine(goos, goarch string) string {
	if goos == "ios" {
		return HostIOS
	}
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "arm64"
	default:
		return goarch
	}
}

// InstallRoot returns the directory holding tools/ and extras/.
func (t Toolset) InstallRoot() string { return t.installRoot }

// ToolsDir returns the host-specific directory of external tools.
func (t Toolset) ToolsDir() string { return t.toolsDir }

// Tool returns the path of a named external tool.
func (t Toolset) Tool(name string) string { return filepath.Join(t.toolsDir, name) }

// ExtrasDir returns the directory of canonical implicitly-required modules.
func (t Toolset) ExtrasDir() string { return filepath.Join(t.installRoot, extrasDirName) }

// Extra returns the path of the canonical copy of a named module.
func (t Toolset) Extra(name string) string { return filepath.Join(t.ExtrasDir(), name) }

// IOSHost reports whether cyan runs on an iOS device.
func (t Toolset) IOSHost() bool { return t.machine == HostIOS }

// Injector returns the configured injector backend with "auto" resolved.
func (t Toolset) Injector() InjectorBackend {
	if t.injector != InjectorAuto && t.injector != "" {
		return t.injector
	}
	if t.IOSHost() {
		return InjectorInsertDylib
	}
	return InjectorMachO
}

// Extractor returns the configured extractor backend.
func (t Toolset) Extractor() ExtractorBackend {
	if t.extractor == "" {
		return ExtractorMachO
	}
	return t.extractor
}

// Thin reports whether the main executable should be thinned before injection.
func (t Toolset) Thin() bool { return t.thin }
