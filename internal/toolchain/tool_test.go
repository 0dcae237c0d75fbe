// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// recorder captures invocations and replays a canned shell script for each one.
type recorder struct {
	calls  [][]string
	script string
}

func (r *recorder) exec(ctx context.Context, name string, args ...string) *exec.Cmd {
	r.calls = append(r.calls, append([]string{name}, args...))
	return exec.CommandContext(ctx, "sh", "-c", r.script)
}

func TestToolNotFound(t *testing.T) {
	t.Parallel()

	tool := NewTool(LdidName, filepath.Join(t.TempDir(), "ldid"))
	_, err := tool.Run(context.Background(), "-S", "bin")
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Run() error = %v, want ErrToolNotFound", err)
	}
	var nf *ToolNotFoundError
	if !errors.As(err, &nf) || nf.Name != LdidName {
		t.Errorf("error = %#v, want ToolNotFoundError for ldid", err)
	}
}

func TestToolErrorCarriesOutput(t *testing.T) {
	t.Parallel()

	rec := &recorder{script: "echo boom >&2; exit 3"}
	tool := NewTool(OtoolName, "/tools/otool", WithExecCommand(rec.exec))

	_, err := tool.Run(context.Background(), "-L", "bin")
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("Run() error = %v, want ErrToolFailed", err)
	}
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("error %T is not a *ToolError", err)
	}
	if !strings.Contains(string(te.Output), "boom") {
		t.Errorf("Output = %q, want it to contain boom", te.Output)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("underlying error = %v, want exit status 3", err)
	}
}

func TestToolCanceledContext(t *testing.T) {
	t.Parallel()

	rec := &recorder{script: "sleep 5"}
	tool := NewTool(LipoName, "/tools/lipo", WithExecCommand(rec.exec))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tool.Run(ctx, "-info", "bin"); err == nil {
		t.Fatal("Run() with canceled context should fail")
	}
}

func TestLdidArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call func(context.Context, *Ldid) error
		want []string
	}{
		{
			name: "adhoc",
			call: func(ctx context.Context, l *Ldid) error { return l.Sign(ctx, "/app/bin", SignAdHoc) },
			want: []string{"/tools/ldid", "-S", "/app/bin"},
		},
		{
			name: "adhoc merge",
			call: func(ctx context.Context, l *Ldid) error { return l.Sign(ctx, "/app/bin", SignAdHocMerge) },
			want: []string{"/tools/ldid", "-S", "-M", "/app/bin"},
		},
		{
			name: "restore",
			call: func(ctx context.Context, l *Ldid) error {
				return l.RestoreEntitlements(ctx, "/app/bin", "/app/cyan.entitlements")
			},
			want: []string{"/tools/ldid", "-S/app/cyan.entitlements", "/app/bin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{script: "true"}
			l := NewLdid("/tools/ldid", WithExecCommand(rec.exec))
			if err := tt.call(context.Background(), l); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if len(rec.calls) != 1 || !slices.Equal(rec.calls[0], tt.want) {
				t.Errorf("calls = %v, want [%v]", rec.calls, tt.want)
			}
		})
	}
}

func TestLdidRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	rec := &recorder{script: "true"}
	l := NewLdid("/tools/ldid", WithExecCommand(rec.exec))
	err := l.Sign(context.Background(), "bin", SignMode("bogus"))
	if !errors.Is(err, ErrInvalidSignMode) {
		t.Fatalf("Sign() error = %v, want ErrInvalidSignMode", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("ldid should not run for an invalid mode, got %v", rec.calls)
	}
}

func TestLdidExtractEntitlements(t *testing.T) {
	t.Parallel()

	plist := `<?xml version="1.0"?><plist><dict/></plist>`
	rec := &recorder{script: "printf '%s' '" + plist + "'"}
	l := NewLdid("/tools/ldid", WithExecCommand(rec.exec))

	got, err := l.ExtractEntitlements(context.Background(), "/app/bin")
	if err != nil {
		t.Fatalf("ExtractEntitlements() error = %v", err)
	}
	if string(got) != plist {
		t.Errorf("entitlements = %q, want %q", got, plist)
	}
	if want := []string{"/tools/ldid", "-e", "/app/bin"}; !slices.Equal(rec.calls[0], want) {
		t.Errorf("call = %v, want %v", rec.calls[0], want)
	}
}

func TestLdidExtractEntitlementsUnsigned(t *testing.T) {
	t.Parallel()

	rec := &recorder{script: "echo 'no signature' >&2; exit 1"}
	l := NewLdid("/tools/ldid", WithExecCommand(rec.exec))

	got, err := l.ExtractEntitlements(context.Background(), "/app/bin")
	if err != nil {
		t.Fatalf("ExtractEntitlements() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("entitlements = %q, want none", got)
	}
}

func TestInstallNameTool(t *testing.T) {
	t.Parallel()

	rec := &recorder{script: "true"}
	n := NewInstallNameTool("/tools/install_name_tool", WithExecCommand(rec.exec))

	if err := n.Rewrite(context.Background(), "/w/Foo.dylib", "/Library/Frameworks/CydiaSubstrate.framework/CydiaSubstrate", "@rpath/CydiaSubstrate.framework/CydiaSubstrate"); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	want := []string{
		"/tools/install_name_tool", "-change",
		"/Library/Frameworks/CydiaSubstrate.framework/CydiaSubstrate",
		"@rpath/CydiaSubstrate.framework/CydiaSubstrate",
		"/w/Foo.dylib",
	}
	if !slices.Equal(rec.calls[0], want) {
		t.Errorf("call = %v, want %v", rec.calls[0], want)
	}
}

func TestBestEffortFailuresAreReported(t *testing.T) {
	t.Parallel()

	rec := &recorder{script: "echo 'would duplicate path' >&2; exit 1"}
	n := NewInstallNameTool("/tools/install_name_tool", WithExecCommand(rec.exec))
	res := n.AddRpath(context.Background(), "/app/bin", FrameworksRpath)
	if res.OK() {
		t.Fatal("AddRpath() should report the failure")
	}
	if !errors.Is(res.Err, ErrToolFailed) {
		t.Errorf("Err = %v, want ErrToolFailed", res.Err)
	}

	rec = &recorder{script: "true"}
	lipo := NewLipo("/tools/lipo", WithExecCommand(rec.exec))
	if res := lipo.Thin(context.Background(), "/app/bin", ThinArch); !res.OK() {
		t.Errorf("Thin() = %+v, want OK", res)
	}
	if want := []string{"/tools/lipo", "-thin", "arm64", "/app/bin", "-output", "/app/bin"}; !slices.Equal(rec.calls[0], want) {
		t.Errorf("call = %v, want %v", rec.calls[0], want)
	}
}

func TestInsertDylib(t *testing.T) {
	t.Parallel()

	rec := &recorder{script: "true"}
	inj := NewInsertDylib("/tools/insert_dylib", "/app/bin", WithExecCommand(rec.exec))
	ctx := context.Background()
	if err := inj.AddWeak(ctx, "@rpath/Foo.dylib"); err != nil {
		t.Fatalf("AddWeak() error = %v", err)
	}
	if err := inj.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	want := []string{"/tools/insert_dylib", "--weak", "--inplace", "--no-strip-codesig", "--all-yes", "@rpath/Foo.dylib", "/app/bin"}
	if len(rec.calls) != 1 || !slices.Equal(rec.calls[0], want) {
		t.Errorf("calls = %v, want [%v]", rec.calls, want)
	}
}
