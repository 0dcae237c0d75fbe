// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindExtension is an app extension bundle (*.appex), placed in PlugIns.
	KindExtension Kind = "extension"
	// KindLibrary is a dynamic library (*.dylib), placed in Frameworks and weak-linked.
	KindLibrary Kind = "library"
	// KindFramework is a framework bundle (*.framework), placed in Frameworks and weak-linked.
	KindFramework Kind = "framework"
	// KindDebPackage is a Debian package (*.deb) unpacked into nested modules during staging.
	KindDebPackage Kind = "deb"
	// KindResource is anything else, copied to the bundle root.
	KindResource Kind = "resource"

	extensionSuffix  = ".appex"
	librarySuffix    = ".dylib"
	frameworkSuffix  = ".framework"
	debPackageSuffix = ".deb"
)

// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
var ErrInvalidKind = errors.New("invalid module kind")

type (
	// Kind classifies a module by the suffix of its name.
	Kind string

	// InvalidKindError is returned when a Kind value is not one of the defined kinds.
	InvalidKindError struct {
		Value Kind
	}
)

// KindOf derives the Kind of a module from its name.
func KindOf(name string) Kind {
	switch {
	case strings.HasSuffix(name, extensionSuffix):
		return KindExtension
	case strings.HasSuffix(name, librarySuffix):
		return KindLibrary
	case strings.HasSuffix(name, frameworkSuffix):
		return KindFramework
	case strings.HasSuffix(name, debPackageSuffix):
		return KindDebPackage
	default:
		return KindResource
	}
}

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// IsValid returns whether the Kind is one of the defined kinds,
// and a list of validation errors if it is not.
func (k Kind) IsValid() (bool, []error) {
	switch k {
	case KindExtension, KindLibrary, KindFramework, KindDebPackage, KindResource:
		return true, nil
	default:
		return false, []error{&InvalidKindError{Value: k}}
	}
}

// Linkable reports whether modules of this kind are registered as load commands
// of the main executable.
func (k Kind) Linkable() bool {
	return k == KindLibrary || k == KindFramework
}

// Error implements the error interface for InvalidKindError.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid module kind %q (valid: extension, library, framework, deb, resource)", e.Value)
}

// Unwrap returns ErrInvalidKind for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }
