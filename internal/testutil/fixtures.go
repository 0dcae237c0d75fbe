// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const infoPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleExecutable</key>
	<string>%s</string>
	<key>CFBundleIdentifier</key>
	<string>com.example.%s</string>
	<key>CFBundleName</key>
	<string>%s</string>
	<key>CFBundleShortVersionString</key>
	<string>1.0</string>
</dict>
</plist>
`

// InfoPlist returns an XML Info.plist naming executable as CFBundleExecutable.
func InfoPlist(executable string) string {
	return fmt.Sprintf(infoPlistTemplate, executable, strings.ToLower(executable), executable)
}

// WriteApp creates <dir>/<name>.app holding an Info.plist and a placeholder
// executable called name, and returns the bundle path.
func WriteApp(t testing.TB, dir, name string) string {
	t.Helper()
	app := filepath.Join(dir, name+".app")
	MustWriteFile(t, filepath.Join(app, "Info.plist"), InfoPlist(name), 0o644)
	MustWriteFile(t, filepath.Join(app, name), "executable", 0o755)
	return app
}

// WriteModules creates one placeholder module per name inside dir and returns
// their paths in order. Names ending in .framework, .appex or .bundle become
// directories holding a single binary; anything else becomes a file.
func WriteModules(t testing.TB, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		switch filepath.Ext(n) {
		case ".framework", ".appex", ".bundle":
			MustWriteFile(t, filepath.Join(p, strings.TrimSuffix(n, filepath.Ext(n))), n, 0o755)
		default:
			MustWriteFile(t, p, n, 0o644)
		}
		paths = append(paths, p)
	}
	return paths
}

// MustMkdirAll creates path with its parents or fails the test.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

// MustWriteFile writes body to path, creating missing parents, or fails the test.
func MustWriteFile(t testing.TB, path, body string, perm os.FileMode) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(body), perm); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
