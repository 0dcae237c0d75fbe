// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"github.com/cyan-tools/cyan/internal/bundle"
	"github.com/cyan-tools/cyan/internal/module"
	"github.com/cyan-tools/cyan/internal/toolchain"
)

type (
	// Rewrite is one dependency reference changed inside a library.
	Rewrite struct {
		Module string
		From   module.Reference
		To     module.Reference
	}

	// Plan is the outcome of the dependency-fix pass.
	Plan struct {
		Rewrites []Rewrite
		// Needed holds the canonical names of referenced runtimes, sorted.
		Needed []string
	}

	// Preparation is the outcome of the prepare pass.
	Preparation struct {
		HasEntitlements bool
		// Rpath is set when the Frameworks search path was requested.
		Rpath *toolchain.BestEffort
	}

	// Report summarizes a run.
	Report struct {
		Preparation Preparation
		Rewrites    []Rewrite
		Needed      []string
		Supplied    []bundle.Placement
		Placements  []bundle.Placement
	}
)

// Replaced returns the names of every destination that held a previous copy.
func (r *Report) Replaced() []string {
	var out []string
	for _, p := range r.Supplied {
		if p.Replaced {
			out = append(out, p.Module.Name)
		}
	}
	for _, p := range r.Placements {
		if p.Replaced {
			out = append(out, p.Module.Name)
		}
	}
	return out
}

// Destinations returns how many bundle paths the run wrote.
func (r *Report) Destinations() int {
	return len(r.Supplied) + len(r.Placements)
}
