// SPDX-License-Identifier: MPL-2.0

package deb

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/cyan-tools/cyan/internal/module"
)

type tarEntry struct {
	name     string
	body     string
	dir      bool
	linkname string
}

var tweakEntries = []tarEntry{
	{name: "./Library/", dir: true},
	{name: "./Library/MobileSubstrate/DynamicLibraries/", dir: true},
	{name: "./Library/MobileSubstrate/DynamicLibraries/Tweak.dylib", body: "dylib"},
	{name: "./Library/MobileSubstrate/DynamicLibraries/Tweak.plist", body: "filter"},
	{name: "./Library/Frameworks/Kit.framework/", dir: true},
	{name: "./Library/Frameworks/Kit.framework/Kit", body: "framework"},
	{name: "./Library/Frameworks/Kit.framework/Inner.dylib", body: "inner"},
	{name: "./Library/PreferenceBundles/TweakPrefs.bundle/Info.plist", body: "prefs"},
	{name: "./Library/MobileSubstrate/DynamicLibraries/Alias.dylib", linkname: "Tweak.dylib"},
}

func buildTar(t *testing.T, entries []tarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, ModTime: time.Unix(0, 0)}
		switch {
		case e.dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		case e.linkname != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.linkname
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if e.body != "" {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func compress(t *testing.T, ext string, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch ext {
	case "":
		return data
	case ".gz":
		w = gzip.NewWriter(&buf)
	case ".xz":
		w, err = xz.NewWriter(&buf)
	case ".zst":
		w, err = zstd.NewWriter(&buf)
	default:
		t.Fatalf("unsupported test compression %q", ext)
	}
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type arMember struct {
	name string
	data []byte
}

func writeDeb(t *testing.T, dir, name string, members ...arMember) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := ar.NewWriter(f)
	if err := w.WriteGlobalHeader(); err != nil {
		t.Fatal(err)
	}
	for _, m := range members {
		hdr := &ar.Header{Name: m.name, ModTime: time.Unix(0, 0), Mode: 0o644, Size: int64(len(m.data))}
		if err := w.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(m.data); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func tweakDeb(t *testing.T, dir, ext string) string {
	t.Helper()

	return writeDeb(t, dir, "com.example.tweak.deb",
		arMember{name: "debian-binary", data: []byte("2.0\n")},
		arMember{name: "control.tar.gz", data: compress(t, ".gz", buildTar(t, nil))},
		arMember{name: "data.tar" + ext, data: compress(t, ext, buildTar(t, tweakEntries))},
	)
}

func names(mods []module.Module) []string {
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.Name)
	}
	return out
}

func TestExtract(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{"", ".gz", ".xz", ".zst"} {
		t.Run("data.tar"+ext, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			deb := tweakDeb(t, dir, ext)
			mods, err := NewExtractor(nil).Extract(context.Background(), deb, dir)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}

			want := []string{"Tweak.dylib", "TweakPrefs.bundle", "Kit.framework"}
			if got := names(mods); !slices.Equal(got, want) {
				t.Errorf("modules = %v, want %v", got, want)
			}
			for _, m := range mods {
				if m.Staged == "" || m.Staged != m.Source {
					t.Errorf("%s not staged: %+v", m.Name, m)
				}
				if _, err := os.Stat(m.Staged); err != nil {
					t.Errorf("%s staged path missing: %v", m.Name, err)
				}
			}
			if mods[0].Kind != module.KindLibrary || mods[2].Kind != module.KindFramework {
				t.Errorf("unexpected kinds: %v, %v", mods[0].Kind, mods[2].Kind)
			}
		})
	}
}

func TestExtractNoDataMember(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	deb := writeDeb(t, dir, "empty.deb", arMember{name: "debian-binary", data: []byte("2.0\n")})
	_, err := NewExtractor(nil).Extract(context.Background(), deb, dir)
	if !errors.Is(err, ErrNoDataMember) {
		t.Fatalf("Extract() error = %v, want ErrNoDataMember", err)
	}
	var ee *ExtractError
	if !errors.As(err, &ee) || ee.Package != deb {
		t.Errorf("error = %#v, want ExtractError for %s", err, deb)
	}
}

func TestExtractUnsupportedCompression(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	deb := writeDeb(t, dir, "odd.deb", arMember{name: "data.tar.rar", data: []byte("x")})
	if _, err := NewExtractor(nil).Extract(context.Background(), deb, dir); !errors.Is(err, ErrUnsupportedCompression) {
		t.Fatalf("Extract() error = %v, want ErrUnsupportedCompression", err)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := buildTar(t, []tarEntry{{name: "../../evil.dylib", body: "x"}})
	deb := writeDeb(t, dir, "evil.deb", arMember{name: "data.tar", data: data})
	if _, err := NewExtractor(nil).Extract(context.Background(), deb, dir); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("Extract() error = %v, want ErrUnsafePath", err)
	}
}

func TestExtractNotAnArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	deb := filepath.Join(dir, "broken.deb")
	if err := os.WriteFile(deb, []byte("this is not an ar archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewExtractor(nil).Extract(context.Background(), deb, dir); err == nil {
		t.Fatal("Extract() should fail for a non-archive")
	}
}
