// SPDX-License-Identifier: MPL-2.0

package macho

import (
	"bytes"
	"context"
	"log/slog"

	gomacho "github.com/blacktop/go-macho"
	"github.com/blacktop/go-macho/types"
	"howett.net/plist"

	"github.com/cyan-tools/cyan/internal/module"
)

type (
	// Inspector reads Mach-O load commands without external tools.
	Inspector struct{}

	// LoadKind tells how a dependency is linked.
	LoadKind string

	// Load is one dependency load command.
	Load struct {
		Reference module.Reference
		Kind      LoadKind
	}

	// Description summarizes the first architecture slice of a binary.
	Description struct {
		Arches       []string
		InstallName  string
		Loads        []Load
		Rpaths       []string
		Encrypted    bool
		Entitlements map[string]any
	}
)

const (
	LoadRegular  LoadKind = "load"
	LoadWeak     LoadKind = "weak"
	LoadReexport LoadKind = "reexport"
	LoadUpward   LoadKind = "upward"
	LoadLazy     LoadKind = "lazy"
)

// NewInspector creates an Inspector.
func NewInspector() *Inspector { return &Inspector{} }

// ListReferences returns the rewritable dependency references of bin.
// Only the first architecture slice is read; the library's own install name
// is not a dependency and is never returned.
func (i *Inspector) ListReferences(ctx context.Context, bin string) ([]module.Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, closer, err := openSlices(bin)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var refs []module.Reference
	for _, l := range loads(files[0]) {
		if l.Reference.Rewritable() {
			refs = append(refs, l.Reference)
		}
	}
	return refs, nil
}

// Encrypted reports whether any slice of bin carries encryption info with a
// non-zero cryptid.
func (i *Inspector) Encrypted(ctx context.Context, bin string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	files, closer, err := openSlices(bin)
	if err != nil {
		return false, err
	}
	defer closer.Close()

	for _, f := range files {
		if encrypted(f) {
			return true, nil
		}
	}
	return false, nil
}

// Describe summarizes bin for display.
func (i *Inspector) Describe(ctx context.Context, bin string) (*Description, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, closer, err := openSlices(bin)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	d := &Description{Loads: loads(files[0])}
	for _, f := range files {
		d.Arches = append(d.Arches, f.CPU.String())
		d.Encrypted = d.Encrypted || encrypted(f)
	}
	first := files[0]
	if id := first.DylibID(); id != nil {
		d.InstallName = id.Name
	}
	for _, l := range first.Loads {
		if l.Command() == types.LC_RPATH {
			d.Rpaths = append(d.Rpaths, l.String())
		}
	}
	if cs := first.CodeSignature(); cs != nil && len(cs.Entitlements) > 0 {
		d.Entitlements = decodeEntitlements(cs.Entitlements)
	}
	return d, nil
}

// loadKinds maps the dependency load commands to their kind. LC_ID_DYLIB is
// the binary's own install name and is left out.
var loadKinds = map[types.LoadCmd]LoadKind{
	types.LC_LOAD_DYLIB:        LoadRegular,
	types.LC_LOAD_WEAK_DYLIB:   LoadWeak,
	types.LC_REEXPORT_DYLIB:    LoadReexport,
	types.LC_LOAD_UPWARD_DYLIB: LoadUpward,
	types.LC_LAZY_LOAD_DYLIB:   LoadLazy,
}

func loads(f *gomacho.File) []Load {
	var out []Load
	for _, l := range f.Loads {
		kind, ok := loadKinds[l.Command()]
		if !ok {
			continue
		}
		if d := dylibOf(l); d != nil {
			out = append(out, Load{Reference: module.Reference(d.Name), Kind: kind})
		}
	}
	return out
}

// dylibOf returns the dylib record behind l. go-macho parses each dylib
// command into its own wrapper type, while commands added in memory are
// plain *Dylib values.
func dylibOf(l gomacho.Load) *gomacho.Dylib {
	switch l := l.(type) {
	case *gomacho.Dylib:
		return l
	case *gomacho.LoadDylib:
		return &l.Dylib
	case *gomacho.WeakDylib:
		return &l.Dylib
	case *gomacho.ReExportDylib:
		return &l.Dylib
	case *gomacho.UpwardDylib:
		return &l.Dylib
	case *gomacho.LazyLoadDylib:
		return &l.Dylib
	}
	return nil
}

func encrypted(f *gomacho.File) bool {
	for _, l := range f.Loads {
		switch l := l.(type) {
		case *gomacho.EncryptionInfo64:
			if l.CryptID != 0 {
				return true
			}
		case *gomacho.EncryptionInfo:
			if l.CryptID != 0 {
				return true
			}
		}
	}
	return false
}

func decodeEntitlements(data string) map[string]any {
	ents := map[string]any{}
	if err := plist.NewDecoder(bytes.NewReader([]byte(data))).Decode(&ents); err != nil {
		slog.Debug("failed to decode entitlements", "error", err)
		return nil
	}
	return ents
}
