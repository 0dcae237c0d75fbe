// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("user aborted")

type (
	// ConfirmOptions configures the Confirm component.
	ConfirmOptions struct {
		// Title is the question to display.
		Title string
		// Description provides additional context below the title.
		Description string
		// Affirmative is the text for the affirmative option (default: "Yes").
		Affirmative string
		// Negative is the text for the negative option (default: "No").
		Negative string
		// Default is the preselected answer.
		Default bool
		// Config holds common prompt configuration.
		Config Config
	}
)

// Confirm asks a yes/no question. It returns ErrAborted when the user
// cancels the prompt.
func Confirm(ctx context.Context, opts ConfirmOptions) (bool, error) {
	answer := opts.Default
	form := newConfirmForm(opts, &answer)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrAborted
		}
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return answer, nil
}

func newConfirmForm(opts ConfirmOptions, answer *bool) *huh.Form {
	field := huh.NewConfirm().
		Title(opts.Title).
		Affirmative(orDefault(opts.Affirmative, "Yes")).
		Negative(orDefault(opts.Negative, "No")).
		Value(answer)
	if opts.Description != "" {
		field = field.Description(opts.Description)
	}

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(huhTheme(opts.Config.Theme)).
		WithAccessible(opts.Config.Accessible).
		WithShowHelp(false)
	if opts.Config.Output != nil {
		form = form.WithOutput(opts.Config.Output)
	}
	if opts.Config.Input != nil {
		form = form.WithInput(opts.Config.Input)
	}
	return form
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
