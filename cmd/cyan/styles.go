// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for dark terminal backgrounds. Cyan is the brand color.
var (
	cyan   = lipgloss.Color("#06B6D4")
	gray   = lipgloss.Color("#6B7280")
	silver = lipgloss.Color("#9CA3AF")
	green  = lipgloss.Color("#10B981")
	amber  = lipgloss.Color("#F59E0B")
	blue   = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle heads a report such as "Current Configuration".
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(cyan)
	// SubtitleStyle marks defaults and empty values.
	SubtitleStyle = lipgloss.NewStyle().Foreground(gray)
	// SuccessStyle renders the final injection summary and found tools.
	SuccessStyle = lipgloss.NewStyle().Foreground(green)
	// WarningStyle renders missing tools and missing extras.
	WarningStyle = lipgloss.NewStyle().Foreground(amber)
	// CmdStyle renders keys, paths and load command references.
	CmdStyle = lipgloss.NewStyle().Foreground(blue)
	// VerboseStyle renders the extra lines printed with --verbose.
	VerboseStyle = lipgloss.NewStyle().Foreground(silver)

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(amber)
)
