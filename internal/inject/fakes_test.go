// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cyan-tools/cyan/internal/module"
	"github.com/cyan-tools/cyan/internal/toolchain"
)

type signCall struct {
	bin  string
	mode toolchain.SignMode
}

type fakeSigner struct {
	entitlements []byte
	signs        []signCall
	restored     [][]byte
	err          error
}

func (s *fakeSigner) ExtractEntitlements(context.Context, string) ([]byte, error) {
	return slices.Clone(s.entitlements), s.err
}

func (s *fakeSigner) Sign(_ context.Context, bin string, mode toolchain.SignMode) error {
	s.signs = append(s.signs, signCall{bin: bin, mode: mode})
	return s.err
}

func (s *fakeSigner) RestoreEntitlements(_ context.Context, _ string, entPath string) error {
	data, err := os.ReadFile(entPath)
	if err != nil {
		return err
	}
	s.restored = append(s.restored, data)
	return s.err
}

// fakeExtractor returns references keyed by the binary's base name.
type fakeExtractor struct {
	refs map[string][]module.Reference
}

func (e *fakeExtractor) ListReferences(_ context.Context, bin string) ([]module.Reference, error) {
	return e.refs[filepath.Base(bin)], nil
}

type fakeRewriter struct {
	rewrites []Rewrite
	err      error
}

func (r *fakeRewriter) Rewrite(_ context.Context, bin string, from, to module.Reference) error {
	if r.err != nil {
		return r.err
	}
	r.rewrites = append(r.rewrites, Rewrite{Module: filepath.Base(bin), From: from, To: to})
	return nil
}

// fakeExecutable models the load commands of the main executable across runs.
type fakeExecutable struct {
	loads   []module.Reference
	pending []module.Reference
	flushes int
}

func (x *fakeExecutable) AddWeak(_ context.Context, ref module.Reference) error {
	x.pending = append(x.pending, ref)
	return nil
}

func (x *fakeExecutable) Flush(context.Context) error {
	x.flushes++
	for _, ref := range x.pending {
		if !slices.Contains(x.loads, ref) {
			x.loads = append(x.loads, ref)
		}
	}
	x.pending = nil
	return nil
}

type fakeRpaths struct {
	calls []string
}

func (f *fakeRpaths) AddRpath(_ context.Context, _, rpath string) toolchain.BestEffort {
	f.calls = append(f.calls, rpath)
	return toolchain.BestEffort{Op: "add rpath " + rpath}
}

// fakeArchives unpacks every package into the listed module names.
type fakeArchives struct {
	contents map[string][]string
}

func (a *fakeArchives) Extract(_ context.Context, pkg, workDir string) ([]module.Module, error) {
	dir, err := os.MkdirTemp(workDir, filepath.Base(pkg)+"-")
	if err != nil {
		return nil, err
	}
	var out []module.Module
	for _, name := range a.contents[filepath.Base(pkg)] {
		path := filepath.Join(dir, name)
		if module.KindOf(name) == module.KindFramework {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(filepath.Join(path, "binary"), []byte(name), 0o644); err != nil {
				return nil, err
			}
		} else if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			return nil, err
		}
		out = append(out, module.NewStaged(path))
	}
	return out, nil
}

// fixture is a bundle, an extras directory and a set of fakes wired together.
type fixture struct {
	t          *testing.T
	root       string
	bundle     string
	executable string
	extras     string
	src        string
	signer     *fakeSigner
	extractor  *fakeExtractor
	rewriter   *fakeRewriter
	exe        *fakeExecutable
	rpaths     *fakeRpaths
	archives   *fakeArchives
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	f := &fixture{
		t:          t,
		root:       root,
		bundle:     filepath.Join(root, "Payload", "App.app"),
		executable: filepath.Join(root, "Payload", "App.app", "App"),
		extras:     filepath.Join(root, "extras"),
		src:        filepath.Join(root, "src"),
		signer:     &fakeSigner{},
		extractor:  &fakeExtractor{refs: map[string][]module.Reference{}},
		rewriter:   &fakeRewriter{},
		exe:        &fakeExecutable{},
		rpaths:     &fakeRpaths{},
		archives:   &fakeArchives{contents: map[string][]string{}},
	}
	f.write(f.executable, "executable")
	f.write(filepath.Join(f.bundle, "Info.plist"), "plist")
	for _, fw := range []string{"CydiaSubstrate", "Orion", "Cephei"} {
		f.write(filepath.Join(f.extras, fw+".framework", fw), fw)
	}
	return f
}

func (f *fixture) write(path, body string) {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

// source creates a caller-supplied module and returns its path.
func (f *fixture) source(name string) string {
	f.t.Helper()
	path := filepath.Join(f.src, name)
	if module.KindOf(name) == module.KindFramework || module.KindOf(name) == module.KindExtension {
		f.write(filepath.Join(path, "binary"), name)
	} else {
		f.write(path, name)
	}
	return path
}

func (f *fixture) modules(names ...string) *module.Set {
	f.t.Helper()
	set := module.NewSet()
	for _, n := range names {
		set.Put(module.New(f.source(n)))
	}
	return set
}

func (f *fixture) resolver() *Resolver {
	return NewResolver(Dependencies{
		Extractor: f.extractor,
		Rewriter:  f.rewriter,
		Injector:  f.exe,
		Signer:    f.signer,
		Rpaths:    f.rpaths,
		Archives:  f.archives,
		Extras:    func(name string) string { return filepath.Join(f.extras, name) },
	}, nil)
}

func (f *fixture) request(set *module.Set) Request {
	return Request{
		Executable: f.executable,
		Bundle:     f.bundle,
		Modules:    set,
		WorkDir:    f.t.TempDir(),
	}
}

func (f *fixture) run(set *module.Set) *Report {
	f.t.Helper()
	rep, err := f.resolver().Run(context.Background(), f.request(set))
	if err != nil {
		f.t.Fatalf("Run() error = %v", err)
	}
	return rep
}

// tree lists every path below the bundle relative to it.
func (f *fixture) tree() []string {
	f.t.Helper()
	var out []string
	err := filepath.WalkDir(f.bundle, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(f.bundle, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		f.t.Fatal(err)
	}
	return out
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.bundle, filepath.FromSlash(rel)))
	return err == nil
}
