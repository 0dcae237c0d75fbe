// SPDX-License-Identifier: MPL-2.0

// Package inject resolves the dependency graph of injected modules and patches
// an application bundle.
//
// A run is an explicit staged pipeline. Each pass is a Resolver method that
// takes the output of the previous one, so passes can be exercised on their own:
//
//	Prepare          save entitlements, permissive-sign, create directories
//	Stage            unpack packages, copy modules into the work directory
//	FixDependencies  rewrite library references to @rpath targets
//	Closure          add runtimes required transitively
//	Supply           copy missing runtimes from the extras directory
//	Materialize      place modules in the bundle, queue weak loads
//	Finalize         flush weak loads, restore entitlements
//
// External tools are reached through the Extractor, Rewriter, Injector, Signer,
// RpathAdder and ArchiveExtractor interfaces.
package inject
