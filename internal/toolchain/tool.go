// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

const (
	// LdidName is the file name of the signing tool.
	LdidName = "ldid"
	// InstallNameToolName is the file name of the reference rewriting tool.
	InstallNameToolName = "install_name_tool"
	// OtoolName is the file name of the load command listing tool.
	OtoolName = "otool"
	// LipoName is the file name of the fat binary tool.
	LipoName = "lipo"
	// InsertDylibName is the file name of the on-device load command injector.
	InsertDylibName = "insert_dylib"
)

var (
	// ErrToolNotFound is returned when a tool binary does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolFailed is the sentinel error wrapped by ToolError.
	ErrToolFailed = errors.New("tool failed")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a Tool.
	Option func(*Tool)

	// Tool is one external executable.
	Tool struct {
		name        string
		path        string
		execCommand ExecCommandFunc
		checkExists bool
	}

	// ToolNotFoundError is returned when the tool binary is missing.
	ToolNotFoundError struct {
		Name string
		Path string
	}

	// ToolError describes a failed tool invocation, including everything it printed.
	ToolError struct {
		Name   string
		Args   []string
		Output []byte
		Err    error
	}
)

// WithExecCommand replaces the command factory.
// Tools created with a custom factory skip the existence check of their binary.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(t *Tool) {
		t.execCommand = fn
		t.checkExists = false
	}
}

// NewTool creates a Tool for the binary at path.
func NewTool(name, path string, opts ...Option) *Tool {
	t := &Tool{name: name, path: path, execCommand: exec.CommandContext, checkExists: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the tool name used in error messages.
func (t *Tool) Name() string { return t.name }

// Path returns the location of the tool binary.
func (t *Tool) Path() string { return t.path }

// Output runs the tool and returns its standard output.
// Standard error is attached to the returned ToolError on failure.
func (t *Tool) Output(ctx context.Context, args ...string) ([]byte, error) {
	cmd, err := t.command(ctx, args)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), t.failed(args, stderr.Bytes(), err)
	}
	return stdout.Bytes(), nil
}

// Run runs the tool and returns its combined output.
func (t *Tool) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd, err := t.command(ctx, args)
	if err != nil {
		return nil, err
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, t.failed(args, out, err)
	}
	return out, nil
}

func (t *Tool) command(ctx context.Context, args []string) (*exec.Cmd, error) {
	if t.checkExists {
		if _, err := os.Stat(t.path); err != nil {
			return nil, &ToolNotFoundError{Name: t.name, Path: t.path}
		}
	}
	slog.Debug("running tool", "tool", t.name, "args", args)
	return t.execCommand(ctx, t.path, args...), nil
}

func (t *Tool) failed(args []string, out []byte, err error) error {
	return &ToolError{Name: t.name, Args: args, Output: out, Err: err}
}

// Error implements the error interface.
func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found at %s", e.Name, e.Path)
}

// Unwrap returns ErrToolNotFound for errors.Is() compatibility.
func (e *ToolNotFoundError) Unwrap() error { return ErrToolNotFound }

// Error implements the error interface.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s failed: %v", e.Name, strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(string(e.Output)); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Unwrap returns both ErrToolFailed and the underlying exec error.
func (e *ToolError) Unwrap() []error { return []error{ErrToolFailed, e.Err} }
