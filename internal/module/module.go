// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingSource is returned by ParseSources when module paths do not exist.
var ErrMissingSource = errors.New("module source does not exist")

type (
	// Module is one unit to be injected into the bundle.
	Module struct {
		// Name is the final path component of Source and the key within a Set.
		Name string
		// Kind is derived from Name when the module is created.
		Kind Kind
		// Source is where the payload was found before staging.
		Source string
		// Staged is where the payload lives inside the work directory.
		// Empty until the staging pass has run.
		Staged string
	}

	// MissingSourcesError lists every module path that does not exist.
	MissingSourcesError struct {
		Paths []string
	}
)

// New creates a Module from its source path.
func New(source string) Module {
	source = filepath.Clean(source)
	name := filepath.Base(source)
	return Module{Name: name, Kind: KindOf(name), Source: source}
}

// NewStaged creates a Module whose payload already lives at path inside the work
// directory, as happens for modules unpacked from a deb package.
func NewStaged(path string) Module {
	m := New(path)
	m.Staged = m.Source
	return m
}

// Path returns the staged location when available, else the source.
func (m Module) Path() string {
	if m.Staged != "" {
		return m.Staged
	}
	return m.Source
}

// Stem returns the name without its extension.
func (m Module) Stem() string {
	return strings.TrimSuffix(m.Name, filepath.Ext(m.Name))
}

// Target returns the @rpath reference the main executable uses to load the module.
func (m Module) Target() Reference {
	return CanonicalTarget(m.Name)
}

// Error implements the error interface.
func (e *MissingSourcesError) Error() string {
	return fmt.Sprintf("%d module path(s) do not exist: %s", len(e.Paths), strings.Join(e.Paths, ", "))
}

// Unwrap returns ErrMissingSource for errors.Is() compatibility.
func (e *MissingSourcesError) Unwrap() error { return ErrMissingSource }

// ParseSources builds a Set from caller-supplied paths, keyed by base name.
// Duplicate names collapse with the last path winning. Every path that does not
// exist is collected into a single MissingSourcesError.
func ParseSources(paths []string) (*Set, error) {
	set := NewSet()
	var missing []string
	for _, p := range paths {
		m := New(p)
		if _, err := os.Stat(m.Source); err != nil {
			missing = append(missing, m.Source)
			continue
		}
		set.Put(m)
	}
	if len(missing) > 0 {
		return nil, &MissingSourcesError{Paths: missing}
	}
	return set, nil
}
