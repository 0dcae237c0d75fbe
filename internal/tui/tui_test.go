// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestTheme_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		theme   Theme
		want    bool
		wantErr bool
	}{
		{ThemeDefault, true, false},
		{ThemeCharm, true, false},
		{ThemeDracula, true, false},
		{ThemeCatppuccin, true, false},
		{ThemeBase16, true, false},
		{"", false, true},
		{"invalid", false, true},
		{"DEFAULT", false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.theme), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.theme.IsValid()
			if isValid != tt.want {
				t.Errorf("Theme(%q).IsValid() = %v, want %v", tt.theme, isValid, tt.want)
			}
			if tt.wantErr {
				if len(errs) == 0 {
					t.Fatalf("Theme(%q).IsValid() returned no errors, want error", tt.theme)
				}
				if !errors.Is(errs[0], ErrInvalidTheme) {
					t.Errorf("error should wrap ErrInvalidTheme, got: %v", errs[0])
				}
			} else if len(errs) > 0 {
				t.Errorf("Theme(%q).IsValid() returned unexpected errors: %v", tt.theme, errs)
			}
		})
	}
}

func TestHuhThemeNeverNil(t *testing.T) {
	t.Parallel()

	for _, th := range []Theme{ThemeDefault, ThemeCharm, ThemeDracula, ThemeCatppuccin, ThemeBase16, "unknown"} {
		if huhTheme(th) == nil {
			t.Errorf("huhTheme(%q) = nil", th)
		}
	}
}

func TestConfirmAccessible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"explicit no", "n\n", true, false},
		{"explicit yes", "y\n", false, true},
		{"empty keeps default", "\n", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			got, err := Confirm(context.Background(), ConfirmOptions{
				Title:       "Overwrite out.ipa?",
				Description: "The file already exists",
				Default:     tt.def,
				Config: Config{
					Theme:      ThemeDracula,
					Accessible: true,
					Output:     &out,
					Input:      strings.NewReader(tt.input),
				},
			})
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Overwrite out.ipa?") {
				t.Errorf("prompt output = %q, want the title", out.String())
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	t.Parallel()

	if got := orDefault("", "Yes"); got != "Yes" {
		t.Errorf("orDefault(\"\") = %q, want Yes", got)
	}
	if got := orDefault("Replace", "Yes"); got != "Replace" {
		t.Errorf("orDefault(Replace) = %q, want Replace", got)
	}
}
