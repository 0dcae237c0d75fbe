// SPDX-License-Identifier: MPL-2.0

package macho

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	gomacho "github.com/blacktop/go-macho"
	"github.com/blacktop/go-macho/types"

	"github.com/cyan-tools/cyan/internal/module"
)

var dylibCmdSize = binary.Size(types.DylibCmd{})

// ErrNoHeaderSpace is returned when the new load commands would overwrite
// the first bytes of __TEXT content.
var ErrNoHeaderSpace = errors.New("not enough header padding for new load commands")

// NoHeaderSpaceError reports the slice that could not take the new commands.
// Need is the end offset of the load commands after patching and Free the
// offset of the first section content.
type NoHeaderSpaceError struct {
	Path string
	Arch string
	Need uint64
	Free uint64
}

func (e *NoHeaderSpaceError) Error() string {
	return fmt.Sprintf("%s (%s): load commands would end at %#x but content starts at %#x", e.Path, e.Arch, e.Need, e.Free)
}

func (e *NoHeaderSpaceError) Unwrap() error { return ErrNoHeaderSpace }

// WeakLinker collects weak load commands for one executable and writes them
// all in a single Flush. References already loaded by the executable, weakly
// or not, are skipped so repeated runs never duplicate a load command.
type WeakLinker struct {
	bin     string
	tmpDir  string
	pending []module.Reference
}

// NewWeakLinker creates a WeakLinker for bin. Slices of fat binaries are
// staged in tmpDir while they are rewritten.
func NewWeakLinker(bin, tmpDir string) *WeakLinker {
	return &WeakLinker{bin: bin, tmpDir: tmpDir}
}

// AddWeak queues a weak load command for ref.
func (w *WeakLinker) AddWeak(_ context.Context, ref module.Reference) error {
	if !slices.Contains(w.pending, ref) {
		w.pending = append(w.pending, ref)
	}
	return nil
}

// Flush writes every queued reference into each slice of the executable.
// The existing code signature is dropped; the caller re-signs afterwards.
// Nothing is written when any slice lacks the header padding to hold the
// new commands.
func (w *WeakLinker) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fat, err := gomacho.OpenFat(w.bin)
	if err == nil {
		return w.flushFat(fat)
	}
	if !errors.Is(err, gomacho.ErrNotFat) {
		return &NotMachOError{Path: w.bin, Err: err}
	}

	m, err := gomacho.Open(w.bin)
	if err != nil {
		return &NotMachOError{Path: w.bin, Err: err}
	}
	defer m.Close()
	if err := w.addLoads(m); err != nil {
		return err
	}
	if err := m.Save(w.bin); err != nil {
		return fmt.Errorf("failed to save patched executable: %w", err)
	}
	w.pending = nil
	return nil
}

func (w *WeakLinker) flushFat(fat *gomacho.FatFile) error {
	defer fat.Close()

	for _, arch := range fat.Arches {
		if err := w.addLoads(arch.File); err != nil {
			return err
		}
	}

	var paths []string
	defer func() {
		for _, p := range paths {
			_ = os.Remove(p)
		}
	}()
	for _, arch := range fat.Arches {
		tmp, err := os.CreateTemp(w.tmpDir, "macho_"+arch.File.CPU.String())
		if err != nil {
			return fmt.Errorf("failed to create temp file: %w", err)
		}
		paths = append(paths, tmp.Name())
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("failed to close temp file: %w", err)
		}
		if err := arch.File.Save(tmp.Name()); err != nil {
			return fmt.Errorf("failed to save %s slice: %w", arch.File.CPU, err)
		}
	}
	fat.Close()

	ff, err := gomacho.CreateFat(w.bin, paths...)
	if err != nil {
		return fmt.Errorf("failed to create fat file: %w", err)
	}
	if err := ff.Close(); err != nil {
		return err
	}
	w.pending = nil
	return nil
}

// addLoads drops LC_CODE_SIGNATURE and appends the missing weak loads to m,
// then checks that the grown command block still ends before any content.
func (w *WeakLinker) addLoads(m *gomacho.File) error {
	existing := map[module.Reference]bool{}
	for _, l := range loads(m) {
		existing[l.Reference] = true
	}
	for i := len(m.Loads) - 1; i >= 0; i-- {
		if lc := m.Loads[i]; lc.Command() == types.LC_CODE_SIGNATURE {
			m.RemoveLoad(lc)
		}
	}

	var vers types.Version
	vers.Set("0.0.0")
	for _, ref := range w.pending {
		if existing[ref] {
			slog.Debug("load command already present", "reference", ref)
			continue
		}
		existing[ref] = true
		name := ref.String()
		m.AddLoad(&gomacho.WeakDylib{Dylib: gomacho.Dylib{
			DylibCmd: types.DylibCmd{
				LoadCmd:        types.LC_LOAD_WEAK_DYLIB,
				Len:            pointerAlign(uint32(dylibCmdSize + len(name) + 1)),
				NameOffset:     0x18,
				Timestamp:      2,
				CurrentVersion: vers,
				CompatVersion:  vers,
			},
			Name: name,
		}})
	}

	need := loadCommandsEnd(m)
	if free := contentStart(m); need > free {
		return &NoHeaderSpaceError{Path: w.bin, Arch: m.CPU.String(), Need: need, Free: free}
	}
	return nil
}

// loadCommandsEnd is the offset where File.Save stops writing load commands.
// Save always writes the 64-bit header layout.
func loadCommandsEnd(m *gomacho.File) uint64 {
	return uint64(binary.Size(m.FileHeader)) + uint64(m.SizeCommands)
}

// contentStart is the lowest file offset of section data inside __TEXT, or
// the end of __TEXT when it has none. Save copies __TEXT from the end of the
// load commands onward, so it only works when __TEXT starts the file.
func contentStart(m *gomacho.File) uint64 {
	text := m.Segment("__TEXT")
	if text == nil || text.Offset != 0 {
		return 0
	}
	start := text.Offset + text.Filesz
	for _, sec := range m.Sections {
		if sec.Offset != 0 && uint64(sec.Offset) < start {
			start = uint64(sec.Offset)
		}
	}
	return start
}

func pointerAlign(sz uint32) uint32 {
	if (sz % 8) != 0 {
		sz += 8 - (sz % 8)
	}
	return sz
}
