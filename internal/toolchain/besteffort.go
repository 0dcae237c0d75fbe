// SPDX-License-Identifier: MPL-2.0

package toolchain

// BestEffort is the outcome of an operation whose failure does not abort a run,
// such as adding an rpath that already exists or thinning a binary that is
// already thin.
type BestEffort struct {
	Op  string
	Err error
}

// OK reports whether the operation succeeded.
func (b BestEffort) OK() bool { return b.Err == nil }

func bestEffort(op string, err error) BestEffort {
	return BestEffort{Op: op, Err: err}
}
