// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyan-tools/cyan/internal/bundle"
)

const (
	// IPASuffix marks a zipped application archive.
	IPASuffix = ".ipa"
	// AppSuffix marks an application bundle directory.
	AppSuffix = ".app"
	// PayloadDir is the top-level folder of an .ipa archive.
	PayloadDir = "Payload"
)

// App is an application unpacked into a work directory.
type App struct {
	// Input is the path the application was opened from.
	Input string
	// WorkDir holds the Payload folder.
	WorkDir string
	// Dir is the .app bundle directory inside WorkDir.
	Dir string
	// Info is the decoded Info.plist.
	Info *Info
}

// ValidateInput checks that input names an existing .ipa or .app.
func ValidateInput(input string) error {
	if !IsIPA(input) && !strings.HasSuffix(input, AppSuffix) {
		return invalidInput(input, "the input file must be an ipa/app")
	}
	if _, err := os.Stat(input); err != nil {
		return invalidInput(input, "does not exist")
	}
	return nil
}

// IsIPA reports whether path names an .ipa archive.
func IsIPA(path string) bool { return strings.HasSuffix(path, IPASuffix) }

// Open unpacks or copies input into workDir and reads its Info.plist.
func Open(ctx context.Context, input, workDir string) (*App, error) {
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	var dir string
	var err error
	if IsIPA(input) {
		dir, err = unzipIPA(ctx, input, workDir)
	} else {
		dir, err = copyApp(input, workDir)
	}
	if err != nil {
		return nil, err
	}

	info, err := ReadInfo(filepath.Join(dir, InfoPlistName))
	if err != nil {
		return nil, invalid(input, err.Error())
	}
	if info.Executable == "" {
		return nil, invalid(input, "Info.plist has no CFBundleExecutable")
	}
	return &App{Input: input, WorkDir: workDir, Dir: dir, Info: info}, nil
}

// Executable returns the path of the main executable.
func (a *App) Executable() string {
	return filepath.Join(a.Dir, a.Info.Executable)
}

// Payload returns the Payload directory inside the work directory.
func (a *App) Payload() string {
	return filepath.Join(a.WorkDir, PayloadDir)
}

// Write stores the patched application at output. An .ipa output is zipped
// from the Payload directory; anything else receives a copy of the bundle.
// An existing output is replaced.
func (a *App) Write(ctx context.Context, output string) error {
	if err := os.RemoveAll(output); err != nil {
		return fmt.Errorf("failed to remove existing %s: %w", output, err)
	}
	if IsIPA(output) {
		return zipDir(ctx, a.WorkDir, PayloadDir, output)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	return bundle.CopyTree(a.Dir, output)
}

func copyApp(input, workDir string) (string, error) {
	if _, err := os.Stat(filepath.Join(input, InfoPlistName)); err != nil {
		return "", invalid(input, "no Info.plist, invalid app")
	}
	payload := filepath.Join(workDir, PayloadDir)
	if err := os.MkdirAll(payload, 0o755); err != nil {
		return "", err
	}
	dir := filepath.Join(payload, filepath.Base(filepath.Clean(input)))
	if err := bundle.CopyTree(input, dir); err != nil {
		return "", err
	}
	return dir, nil
}
