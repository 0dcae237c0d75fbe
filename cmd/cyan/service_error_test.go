// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cyan-tools/cyan/internal/app"
	"github.com/cyan-tools/cyan/internal/config"
	"github.com/cyan-tools/cyan/internal/deb"
	"github.com/cyan-tools/cyan/internal/inject"
	"github.com/cyan-tools/cyan/internal/issue"
	"github.com/cyan-tools/cyan/internal/module"
	"github.com/cyan-tools/cyan/internal/toolchain"
	"github.com/cyan-tools/cyan/pkg/types"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("expected string panic, got %T", r)
		}
		if msg != "ServiceError: Err must not be nil" {
			t.Fatalf("unexpected panic message: %s", msg)
		}
	}()

	newServiceError(nil, 0, types.ExitFailure)
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, 0, types.ExitFailure)

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}

	svcErr.display = "formatted"
	if svcErr.Error() != "formatted" {
		t.Errorf("Error() = %q after rendering, want %q", svcErr.Error(), "formatted")
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	ldidFailure := &inject.CollaboratorError{
		Op:      "sign",
		Subject: "App",
		Err:     &toolchain.ToolError{Name: toolchain.LdidName, Err: errors.New("exit status 1")},
	}
	rewriteFailure := &inject.CollaboratorError{
		Op:      "rewrite",
		Subject: "Tweak.dylib",
		Err:     &toolchain.ToolError{Name: toolchain.InstallNameToolName, Err: errors.New("exit status 1")},
	}

	tests := []struct {
		name      string
		err       error
		wantIssue issue.Id
		wantCode  types.ExitCode
	}{
		{"canceled", fmt.Errorf("run: %w", context.Canceled), 0, types.ExitInterrupted},
		{"bad input path", app.ValidateInput("Demo.zip"), issue.InvalidInputId, types.ExitUsage},
		{"invalid app", &app.InvalidAppError{Path: "x.ipa", Reason: "no Info.plist"}, issue.InvalidAppId, types.ExitUsage},
		{"missing modules", &module.MissingSourcesError{Paths: []string{"a.dylib"}}, issue.ModuleNotFoundId, types.ExitUsage},
		{"resolver input", &inject.UserInputError{Reason: "no modules"}, issue.InvalidInputId, types.ExitUsage},
		{"bad backend", &config.InvalidInjectorBackendError{Value: "x"}, issue.ConfigLoadFailedId, types.ExitUsage},
		{"config file", issue.NewErrorContext().WithOperation("load configuration").Wrap(errors.New("boom")).BuildError(), issue.ConfigLoadFailedId, types.ExitUsage},
		{"tool missing", &inject.CollaboratorError{Op: "sign", Subject: "App", Err: &toolchain.ToolNotFoundError{Name: "ldid", Path: "/x/ldid"}}, issue.ToolNotFoundId, types.ExitFailure},
		{"extra missing", &inject.CollaboratorError{Op: "auto-inject", Subject: "Orion.framework", Err: inject.ErrExtraMissing}, issue.ExtrasMissingId, types.ExitFailure},
		{"deb", &inject.CollaboratorError{Op: "extract", Subject: "t.deb", Err: &deb.ExtractError{Package: "t.deb", Err: deb.ErrNoDataMember}}, issue.ExtractionFailedId, types.ExitFailure},
		{"signing", ldidFailure, issue.SigningFailedId, types.ExitFailure},
		{"other tool", rewriteFailure, 0, types.ExitFailure},
		{"unknown", errors.New("disk full"), 0, types.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classifyError(tt.err)
			if got.IssueID != tt.wantIssue {
				t.Errorf("IssueID = %d, want %d", got.IssueID, tt.wantIssue)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", got.Code, tt.wantCode)
			}
		})
	}
}

func TestRenderServiceError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderServiceError(&buf, nil)
	renderServiceError(&buf, newServiceError(errors.New("x"), 0, types.ExitFailure))
	if buf.Len() != 0 {
		t.Errorf("expected no output without an issue, got %q", buf.String())
	}

	renderServiceError(&buf, newServiceError(errors.New("x"), issue.ModuleNotFoundId, types.ExitUsage))
	if strings.TrimSpace(buf.String()) == "" {
		t.Error("expected the module-not-found help to be rendered")
	}
}
