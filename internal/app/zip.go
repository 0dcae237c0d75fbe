// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// unzipIPA extracts the archive into workDir and returns its .app directory.
func unzipIPA(ctx context.Context, ipa, workDir string) (string, error) {
	r, err := zip.OpenReader(ipa)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return "", invalid(ipa, "not a zipfile (ipa)")
		}
		return "", err
	}
	defer r.Close()

	var hasPayload, hasInfo bool
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, PayloadDir+"/") {
			hasPayload = true
		}
		if strings.HasSuffix(f.Name, AppSuffix+"/"+InfoPlistName) {
			hasInfo = true
		}
	}
	if !hasPayload {
		return "", invalid(ipa, "couldn't find either Payload or app folder, invalid ipa")
	}
	if !hasInfo {
		return "", invalid(ipa, "no Info.plist, invalid app")
	}

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := extractFile(f, workDir); err != nil {
			return "", err
		}
	}

	apps, err := filepath.Glob(filepath.Join(workDir, PayloadDir, "*"+AppSuffix))
	if err != nil || len(apps) == 0 {
		return "", invalid(ipa, "couldn't find either Payload or app folder, invalid ipa")
	}
	return apps[0], nil
}

func extractFile(f *zip.File, dest string) error {
	target := filepath.Join(dest, filepath.FromSlash(f.Name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("archive entry %q escapes destination", f.Name)
	}

	mode := f.Mode()
	if mode.IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if mode&fs.ModeSymlink != 0 {
		link, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		return os.Symlink(string(link), target)
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// zipDir writes root/dir and everything below it to the archive at output,
// with entry names relative to root.
func zipDir(ctx context.Context, root, dir, output string) error {
	out, err := os.Create(output)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
			_, err := zw.CreateHeader(hdr)
			return err
		}
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, link)
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})

	if err := zw.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := out.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	return walkErr
}
