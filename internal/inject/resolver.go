// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/cyan-tools/cyan/internal/bundle"
	"github.com/cyan-tools/cyan/internal/module"
	"github.com/cyan-tools/cyan/internal/toolchain"
)

// stagingDirName is the work directory subfolder holding staged module copies.
const stagingDirName = "modules"

type (
	// Extractor lists the rewritable dependency references of a binary.
	Extractor interface {
		ListReferences(ctx context.Context, bin string) ([]module.Reference, error)
	}

	// Rewriter replaces a dependency reference inside a binary.
	Rewriter interface {
		Rewrite(ctx context.Context, bin string, from, to module.Reference) error
	}

	// Injector adds weak load commands to the main executable.
	// Additions may be buffered until Flush.
	Injector interface {
		AddWeak(ctx context.Context, ref module.Reference) error
		Flush(ctx context.Context) error
	}

	// Signer extracts, applies and restores code signatures.
	Signer interface {
		ExtractEntitlements(ctx context.Context, bin string) ([]byte, error)
		Sign(ctx context.Context, bin string, mode toolchain.SignMode) error
		RestoreEntitlements(ctx context.Context, bin, entPath string) error
	}

	// RpathAdder adds a runtime search path to a binary.
	RpathAdder interface {
		AddRpath(ctx context.Context, bin, rpath string) toolchain.BestEffort
	}

	// ArchiveExtractor unpacks a package and returns the staged modules inside it.
	ArchiveExtractor interface {
		Extract(ctx context.Context, pkg, workDir string) ([]module.Module, error)
	}

	// Dependencies are the collaborators a Resolver drives.
	Dependencies struct {
		Extractor Extractor
		Rewriter  Rewriter
		Injector  Injector
		Signer    Signer
		Rpaths    RpathAdder
		Archives  ArchiveExtractor
		// Extras returns the canonical copy of a runtime module.
		Extras func(name string) string
	}

	// Request describes one injection run.
	Request struct {
		// Executable is the main binary of the bundle.
		Executable string
		// Bundle is the .app directory being patched.
		Bundle string
		// Modules are the caller-supplied modules.
		Modules *module.Set
		// WorkDir is a scratch directory exclusive to this run.
		WorkDir string
	}

	// Resolver runs the injection pipeline.
	Resolver struct {
		deps   Dependencies
		logger *log.Logger
	}
)

// NewResolver creates a Resolver. A nil logger discards progress output.
func NewResolver(deps Dependencies, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{deps: deps, logger: logger}
}

// Run validates req and executes every pass in order. Errors are either a
// UserInputError, returned before anything is modified, or a
// CollaboratorError. A failed run is not rolled back.
func (r *Resolver) Run(ctx context.Context, req Request) (*Report, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	layout := bundle.NewLayout(req.Bundle)
	mat := bundle.NewMaterializer(layout, r.logger)
	report := &Report{}

	prep, err := r.Prepare(ctx, req.Executable, layout, req.Modules)
	if err != nil {
		return nil, err
	}
	report.Preparation = prep

	r.logger.Info("preparing; this may take a while")
	staged, err := r.Stage(ctx, req.Modules, req.WorkDir)
	if err != nil {
		return report, err
	}

	plan, err := r.FixDependencies(ctx, staged)
	if err != nil {
		return report, err
	}
	report.Rewrites = plan.Rewrites
	report.Needed = Closure(plan.Needed)

	report.Supplied, err = r.Supply(ctx, mat, staged, report.Needed)
	if err != nil {
		return report, err
	}

	report.Placements, err = r.Materialize(ctx, mat, staged)
	if err != nil {
		return report, err
	}

	if err := r.Finalize(ctx, req.Executable, layout, prep.HasEntitlements); err != nil {
		return report, err
	}
	return report, nil
}

// Validate checks req before anything is modified.
func Validate(req Request) error {
	info, err := os.Stat(req.Executable)
	if err != nil || !info.Mode().IsRegular() {
		return &UserInputError{Reason: "executable is not a regular file", Paths: []string{req.Executable}}
	}
	if req.Modules == nil {
		return &UserInputError{Reason: "no modules to inject"}
	}
	var missing []string
	for _, m := range req.Modules.All() {
		if _, err := os.Stat(m.Path()); err != nil {
			missing = append(missing, m.Path())
		}
	}
	if len(missing) > 0 {
		return &UserInputError{Reason: "module sources do not exist", Paths: missing}
	}
	return nil
}

// Prepare saves the executable's entitlements inside the bundle, signs the
// executable permissively and creates the directories the modules need.
func (r *Resolver) Prepare(ctx context.Context, exe string, layout bundle.Layout, set *module.Set) (Preparation, error) {
	var prep Preparation

	ents, err := r.deps.Signer.ExtractEntitlements(ctx, exe)
	if err != nil {
		return prep, collaboratorError("extract entitlements from", exe, err)
	}
	if err := os.WriteFile(layout.EntitlementsPath(), ents, 0o644); err != nil {
		return prep, collaboratorError("save entitlements of", exe, err)
	}
	prep.HasEntitlements = len(ents) > 0

	if err := r.deps.Signer.Sign(ctx, exe, toolchain.SignAdHoc); err != nil {
		return prep, collaboratorError("sign", exe, err)
	}

	needsFrameworks, err := layout.EnsureDirs(set)
	if err != nil {
		return prep, collaboratorError("create directories in", layout.Root(), err)
	}
	if needsFrameworks {
		res := r.deps.Rpaths.AddRpath(ctx, exe, toolchain.FrameworksRpath)
		if !res.OK() {
			r.logger.Debug("rpath not added", "op", res.Op, "error", res.Err)
		}
		prep.Rpath = &res
	}
	return prep, nil
}

// Stage returns a new set in which every module lives in the work directory.
// Packages are replaced by the modules unpacked from them, appended in
// discovery order. Modules that are already staged are kept as they are.
func (r *Resolver) Stage(ctx context.Context, set *module.Set, workDir string) (*module.Set, error) {
	stagingDir := filepath.Join(workDir, stagingDirName)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, collaboratorError("create", stagingDir, err)
	}

	out := set.Clone()
	for _, m := range set.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch {
		case m.Staged != "":
			continue
		case m.Kind == module.KindDebPackage:
			nested, err := r.deps.Archives.Extract(ctx, m.Source, workDir)
			if err != nil {
				return nil, collaboratorError("extract", m.Source, err)
			}
			out.Delete(m.Name)
			for _, n := range nested {
				out.Put(n)
			}
		default:
			staged, err := bundle.CopyInto(m.Source, stagingDir)
			if err != nil {
				return nil, collaboratorError("stage", m.Source, err)
			}
			m.Staged = staged
			out.Put(m)
		}
	}
	return out, nil
}

// FixDependencies rewrites the references of every staged library that
// mention another module or a known runtime. It returns the rewrites made and
// the runtimes that were referenced.
func (r *Resolver) FixDependencies(ctx context.Context, set *module.Set) (Plan, error) {
	var plan Plan
	cands := candidates(set)

	for _, lib := range set.OfKind(module.KindLibrary) {
		bin := lib.Path()
		if err := r.deps.Signer.Sign(ctx, bin, toolchain.SignAdHocMerge); err != nil {
			return plan, collaboratorError("sign", bin, err)
		}
		refs, err := r.deps.Extractor.ListReferences(ctx, bin)
		if err != nil {
			return plan, collaboratorError("list dependencies of", bin, err)
		}

		for _, ref := range refs {
			if !ref.Rewritable() {
				continue
			}
			current := ref
			for _, c := range cands {
				if !ref.Mentions(c.key) {
					continue
				}
				if c.implicit && !slices.Contains(plan.Needed, c.canonical) {
					plan.Needed = append(plan.Needed, c.canonical)
				}
				target := module.CanonicalTarget(c.canonical)
				if target == current {
					continue
				}
				if err := r.deps.Rewriter.Rewrite(ctx, bin, current, target); err != nil {
					return plan, collaboratorError("rewrite dependency in", bin, err)
				}
				r.logger.Info("fixed dependency in " + lib.Name + ": " + current.String() + " -> " + target.String())
				plan.Rewrites = append(plan.Rewrites, Rewrite{Module: lib.Name, From: current, To: target})
				current = target
			}
		}
	}
	slices.Sort(plan.Needed)
	return plan, nil
}

// Supply copies every needed runtime that the caller did not provide from the
// extras directory into Frameworks.
func (r *Resolver) Supply(ctx context.Context, mat *bundle.Materializer, set *module.Set, needed []string) ([]bundle.Placement, error) {
	var out []bundle.Placement
	for _, name := range needed {
		if set.Has(name) {
			continue
		}
		src := r.deps.Extras(name)
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = ErrExtraMissing
			}
			return out, collaboratorError("auto-inject", name, err)
		}
		p, err := mat.Supply(ctx, name, src)
		if err != nil {
			return out, collaboratorError("auto-inject", name, err)
		}
		if !p.Replaced {
			r.logger.Info("auto-injected " + name)
		}
		out = append(out, p)
	}
	return out, nil
}

// Materialize places every module in the bundle in set order and queues a weak
// load for each library and framework.
func (r *Resolver) Materialize(ctx context.Context, mat *bundle.Materializer, set *module.Set) ([]bundle.Placement, error) {
	out := make([]bundle.Placement, 0, set.Len())
	for _, m := range set.All() {
		p, err := mat.Prepare(m)
		if err != nil {
			return out, collaboratorError("replace", m.Name, err)
		}
		if m.Kind.Linkable() {
			if err := r.deps.Injector.AddWeak(ctx, m.Target()); err != nil {
				return out, collaboratorError("inject", m.Name, err)
			}
		}
		if err := mat.Copy(ctx, p); err != nil {
			return out, collaboratorError("copy", m.Name, err)
		}
		if !p.Replaced {
			r.logger.Info("injected " + m.Name)
		}
		out = append(out, p)
	}
	return out, nil
}

// Finalize writes queued weak loads and signs the executable again, restoring
// the saved entitlements when there were any.
func (r *Resolver) Finalize(ctx context.Context, exe string, layout bundle.Layout, hasEntitlements bool) error {
	if err := r.deps.Injector.Flush(ctx); err != nil {
		return collaboratorError("write load commands to", exe, err)
	}
	if !hasEntitlements {
		if err := r.deps.Signer.Sign(ctx, exe, toolchain.SignAdHoc); err != nil {
			return collaboratorError("sign", exe, err)
		}
		return nil
	}
	if err := r.deps.Signer.RestoreEntitlements(ctx, exe, layout.EntitlementsPath()); err != nil {
		return collaboratorError("restore entitlements of", exe, err)
	}
	r.logger.Info("restored entitlements")
	return nil
}
