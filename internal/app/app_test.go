// SPDX-License-Identifier: MPL-2.0

package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

const infoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleExecutable</key>
	<string>Demo</string>
	<key>CFBundleIdentifier</key>
	<string>com.example.demo</string>
	<key>CFBundleShortVersionString</key>
	<string>1.2.3</string>
</dict>
</plist>
`

func makeApp(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "Demo.app")
	files := map[string]string{
		InfoPlistName:           infoPlist,
		"Demo":                  "executable",
		"Assets.car":            "assets",
		"Frameworks/Old.dylib":  "old",
		"en.lproj/Main.strings": "strings",
	}
	for rel, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func makeZip(t *testing.T, entries map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "Demo.ipa")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenAppDirectory(t *testing.T) {
	t.Parallel()

	input := makeApp(t)
	work := t.TempDir()
	a, err := Open(context.Background(), input, work)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if want := filepath.Join(work, "Payload", "Demo.app"); a.Dir != want {
		t.Errorf("Dir = %s, want %s", a.Dir, want)
	}
	if a.Info.Executable != "Demo" || a.Info.Identifier != "com.example.demo" || a.Info.Version != "1.2.3" {
		t.Errorf("Info = %+v", a.Info)
	}
	data, err := os.ReadFile(a.Executable())
	if err != nil || string(data) != "executable" {
		t.Errorf("Executable() content = %q, %v", data, err)
	}
}

func TestIPARoundTrip(t *testing.T) {
	t.Parallel()

	a, err := Open(context.Background(), makeApp(t), t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	out := filepath.Join(t.TempDir(), "Patched.ipa")
	if err := a.Write(context.Background(), out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	reopened, err := Open(context.Background(), out, t.TempDir())
	if err != nil {
		t.Fatalf("Open(ipa) error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(reopened.Dir, "en.lproj", "Main.strings"))
	if err != nil || string(data) != "strings" {
		t.Errorf("nested file = %q, %v", data, err)
	}
	info, err := os.Stat(reopened.Executable())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("executable bit lost: %v", info.Mode())
	}
}

func TestWriteAppReplacesOutput(t *testing.T) {
	t.Parallel()

	a, err := Open(context.Background(), makeApp(t), t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	out := filepath.Join(t.TempDir(), "Out.app")
	if err := os.MkdirAll(filepath.Join(out, "Stale"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := a.Write(context.Background(), out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "Stale")); !os.IsNotExist(err) {
		t.Error("stale output content survived")
	}
	if _, err := os.Stat(filepath.Join(out, InfoPlistName)); err != nil {
		t.Errorf("Info.plist missing from output: %v", err)
	}
}

func TestOpenRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	noInfo := filepath.Join(t.TempDir(), "Bare.app")
	if err := os.MkdirAll(noInfo, 0o755); err != nil {
		t.Fatal(err)
	}
	notZip := filepath.Join(t.TempDir(), "Broken.ipa")
	if err := os.WriteFile(notZip, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"wrong suffix", filepath.Join(t.TempDir(), "Demo.zip")},
		{"missing", filepath.Join(t.TempDir(), "Missing.ipa")},
		{"app without Info.plist", noInfo},
		{"not a zip", notZip},
		{"no payload", makeZip(t, map[string]string{"Demo.app/Info.plist": infoPlist})},
		{"no Info.plist", makeZip(t, map[string]string{"Payload/Demo.app/Demo": "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Open(context.Background(), tt.input, t.TempDir())
			if !errors.Is(err, ErrInvalidApp) {
				t.Errorf("Open(%s) error = %v, want ErrInvalidApp", tt.input, err)
			}
		})
	}
}

func TestOpenRequiresExecutableName(t *testing.T) {
	t.Parallel()

	ipa := makeZip(t, map[string]string{
		"Payload/Demo.app/Info.plist": `<?xml version="1.0"?><plist version="1.0"><dict></dict></plist>`,
	})
	if _, err := Open(context.Background(), ipa, t.TempDir()); !errors.Is(err, ErrInvalidApp) {
		t.Fatalf("Open() error = %v, want ErrInvalidApp", err)
	}
}

func TestValidateInput(t *testing.T) {
	t.Parallel()

	existing := makeApp(t)
	tests := []struct {
		name      string
		input     string
		wantInput bool
	}{
		{"existing app", existing, false},
		{"wrong suffix", filepath.Join(t.TempDir(), "Demo.zip"), true},
		{"missing ipa", filepath.Join(t.TempDir(), "Missing.ipa"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateInput(tt.input)
			if got := errors.Is(err, ErrInvalidInput); got != tt.wantInput {
				t.Errorf("ValidateInput(%s) = %v, want ErrInvalidInput %v", tt.input, err, tt.wantInput)
			}
			if tt.wantInput && !errors.Is(err, ErrInvalidApp) {
				t.Errorf("ValidateInput(%s) = %v, want it to wrap ErrInvalidApp", tt.input, err)
			}
			var iie *InvalidInputError
			if tt.wantInput && (!errors.As(err, &iie) || iie.Path != tt.input) {
				t.Errorf("ValidateInput(%s) = %#v, want *InvalidInputError for the input", tt.input, err)
			}
		})
	}
}
