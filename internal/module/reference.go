// SPDX-License-Identifier: MPL-2.0

package module

import "strings"

const rpathPrefix = "@rpath/"

// rewritablePrefixes are the reference prefixes resolved relative to the bundle or a
// runtime search path. References starting with anything else name system libraries.
var rewritablePrefixes = []string{"/Library/", "@rpath", "@executable_path"}

// Reference is a library path recorded in a binary's load commands.
type Reference string

// String returns the raw reference string.
func (r Reference) String() string { return string(r) }

// Rewritable reports whether the reference may be redirected into the bundle.
func (r Reference) Rewritable() bool {
	for _, p := range rewritablePrefixes {
		if strings.HasPrefix(string(r), p) {
			return true
		}
	}
	return false
}

// Mentions reports whether name occurs anywhere inside the reference.
// Matching is substring containment, not equality: the same runtime library ships
// under several historical file names.
func (r Reference) Mentions(name string) bool {
	return strings.Contains(string(r), name)
}

// CanonicalTarget returns the @rpath reference under which a module with the given
// name is loaded from the bundle's Frameworks directory. Frameworks expose an inner
// binary named after the framework without its extension.
func CanonicalTarget(name string) Reference {
	if KindOf(name) == KindFramework {
		return Reference(rpathPrefix + name + "/" + strings.TrimSuffix(name, frameworkSuffix))
	}
	return Reference(rpathPrefix + name)
}
