// SPDX-License-Identifier: MPL-2.0

package deb

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/cyan-tools/cyan/internal/module"
)

const dataMemberPrefix = "data.tar"

// moduleSuffixes are the payload names collected from a package, in discovery order.
var moduleSuffixes = []string{".dylib", ".bundle", ".appex", ".framework"}

var (
	// ErrNoDataMember is returned when a package has no data.tar member.
	ErrNoDataMember = errors.New("package has no data member")

	// ErrUnsupportedCompression is returned for an unknown data.tar compression suffix.
	ErrUnsupportedCompression = errors.New("unsupported data member compression")

	// ErrUnsafePath is returned when a tar entry would be written outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")
)

type (
	// Extractor unpacks Debian packages into a work directory.
	Extractor struct {
		logger *log.Logger
	}

	// ExtractError wraps any failure while unpacking a package.
	ExtractError struct {
		Package string
		Err     error
	}
)

// NewExtractor creates an Extractor. A nil logger discards progress output.
func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Extractor{logger: logger}
}

// Extract unpacks the package at debPath under workDir and returns the modules
// found inside it, already staged at their unpacked locations.
// Symbolic links are never returned as modules, and directories matched as
// modules are not searched further.
func (e *Extractor) Extract(ctx context.Context, debPath, workDir string) ([]module.Module, error) {
	dest, err := os.MkdirTemp(workDir, filepath.Base(debPath)+"-")
	if err != nil {
		return nil, &ExtractError{Package: debPath, Err: err}
	}
	if err := e.unpack(ctx, debPath, dest); err != nil {
		return nil, &ExtractError{Package: debPath, Err: err}
	}
	mods, err := discover(dest)
	if err != nil {
		return nil, &ExtractError{Package: debPath, Err: err}
	}
	e.logger.Info("extracted " + filepath.Base(debPath))
	return mods, nil
}

func (e *Extractor) unpack(ctx context.Context, debPath, dest string) error {
	f, err := os.Open(debPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := ar.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return ErrNoDataMember
		}
		if err != nil {
			return fmt.Errorf("failed to read ar archive: %w", err)
		}
		name := strings.TrimSuffix(strings.TrimSpace(hdr.Name), "/")
		if !strings.HasPrefix(name, dataMemberPrefix) {
			continue
		}
		e.logger.Debug("unpacking data member", "member", name)
		dr, closeFn, err := decompress(name, r)
		if err != nil {
			return err
		}
		defer closeFn()
		return untar(ctx, tar.NewReader(dr), dest)
	}
}

// decompress selects a decompressor from the data member's file suffix.
func decompress(name string, r io.Reader) (io.Reader, func(), error) {
	noop := func() {}
	switch ext := strings.TrimPrefix(name, dataMemberPrefix); ext {
	case "":
		return r, noop, nil
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, noop, nil
	case ".lzma":
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return lr, noop, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case ".bz2":
		return bzip2.NewReader(r), noop, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, ext)
	}
}

func untar(ctx context.Context, tr *tar.Reader, dest string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read data member: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !errors.Is(err, fs.ErrExist) {
				return err
			}
		}
	}
}

func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func writeFile(path string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// discover walks root and returns matching modules grouped by suffix in
// moduleSuffixes order, each group in lexical path order.
func discover(root string) ([]module.Module, error) {
	groups := make([][]module.Module, len(moduleSuffixes))
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		idx := suffixIndex(d.Name())
		if idx < 0 {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		groups[idx] = append(groups[idx], module.NewStaged(path))
		if d.IsDir() {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out []module.Module
	for _, g := range groups {
		out = append(out, g...)
	}
	return out, nil
}

func suffixIndex(name string) int {
	for i, s := range moduleSuffixes {
		if strings.HasSuffix(name, s) {
			return i
		}
	}
	return -1
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", filepath.Base(e.Package), e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractError) Unwrap() error { return e.Err }
