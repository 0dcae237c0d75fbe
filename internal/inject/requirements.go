// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"slices"

	"github.com/cyan-tools/cyan/internal/module"
)

const (
	// SubstrateFramework is the low-level hooking runtime.
	SubstrateFramework = "CydiaSubstrate.framework"
	// OrionFramework is the tweak runtime that needs substrate at run time.
	OrionFramework = "Orion.framework"
)

// Requirement maps a reference fragment to the runtime module that satisfies it.
type Requirement struct {
	Key       string
	Canonical string
}

// ImplicitRequirements lists the shared runtimes cyan can supply on its own.
// Substrate ships under several file names (libsubstrate.dylib,
// CydiaSubstrate.dylib, CydiaSubstrate.framework), so it is matched by fragment.
var ImplicitRequirements = []Requirement{
	{Key: "substrate.", Canonical: SubstrateFramework},
	{Key: OrionFramework, Canonical: OrionFramework},
	{Key: "Cephei.framework", Canonical: "Cephei.framework"},
	{Key: "CepheiUI.framework", Canonical: "CepheiUI.framework"},
	{Key: "CepheiPrefs.framework", Canonical: "CepheiPrefs.framework"},
}

// candidate is a name a reference may be matched against.
type candidate struct {
	key       string
	canonical string
	implicit  bool
}

// candidates returns module names in set order followed by the requirement keys
// that are not also module names. A key that is both stays implicit.
func candidates(set *module.Set) []candidate {
	implicit := make(map[string]string, len(ImplicitRequirements))
	for _, r := range ImplicitRequirements {
		implicit[r.Key] = r.Canonical
	}

	out := make([]candidate, 0, set.Len()+len(ImplicitRequirements))
	for _, name := range set.Names() {
		canonical, isImplicit := implicit[name]
		if !isImplicit {
			canonical = name
		}
		out = append(out, candidate{key: name, canonical: canonical, implicit: isImplicit})
	}
	for _, r := range ImplicitRequirements {
		if !set.Has(r.Key) {
			out = append(out, candidate{key: r.Key, canonical: r.Canonical, implicit: true})
		}
	}
	return out
}

// Closure adds the runtimes required transitively by needed and returns the
// result sorted. Orion loads substrate weakly but crashes without it.
func Closure(needed []string) []string {
	out := slices.Clone(needed)
	if slices.Contains(out, OrionFramework) && !slices.Contains(out, SubstrateFramework) {
		out = append(out, SubstrateFramework)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
