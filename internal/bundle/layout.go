// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"os"
	"path/filepath"

	"github.com/cyan-tools/cyan/internal/module"
)

const (
	// EntitlementsFile is the name of the saved entitlements inside the bundle.
	EntitlementsFile = "cyan.entitlements"
	// PlugInsDir holds app extensions.
	PlugInsDir = "PlugIns"
	// FrameworksDir holds libraries and frameworks.
	FrameworksDir = "Frameworks"
)

// Layout resolves destinations inside one application bundle.
type Layout struct {
	root string
}

// NewLayout creates a Layout for the bundle directory at root.
func NewLayout(root string) Layout { return Layout{root: root} }

// Root returns the bundle directory.
func (l Layout) Root() string { return l.root }

// EntitlementsPath returns where the executable's entitlements are saved.
func (l Layout) EntitlementsPath() string { return filepath.Join(l.root, EntitlementsFile) }

// PlugIns returns the extensions directory.
func (l Layout) PlugIns() string { return filepath.Join(l.root, PlugInsDir) }

// Frameworks returns the libraries and frameworks directory.
func (l Layout) Frameworks() string { return filepath.Join(l.root, FrameworksDir) }

// Destination returns the final path of m inside the bundle.
func (l Layout) Destination(m module.Module) string {
	switch m.Kind {
	case module.KindExtension:
		return filepath.Join(l.PlugIns(), m.Name)
	case module.KindLibrary, module.KindFramework:
		return filepath.Join(l.Frameworks(), m.Name)
	default:
		return filepath.Join(l.root, m.Name)
	}
}

// EnsureDirs creates PlugIns when set holds an extension and Frameworks when
// it holds anything that ends up there. It reports whether Frameworks is needed.
func (l Layout) EnsureDirs(set *module.Set) (needsFrameworks bool, err error) {
	if set.HasKind(module.KindExtension) {
		if err := os.MkdirAll(l.PlugIns(), 0o755); err != nil {
			return false, err
		}
	}
	if set.HasKind(module.KindLibrary, module.KindFramework, module.KindDebPackage) {
		if err := os.MkdirAll(l.Frameworks(), 0o755); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
