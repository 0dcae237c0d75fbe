// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/cyan-tools/cyan/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the cyan command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cyan",
		Short: "Inject tweaks, frameworks and extensions into iOS apps",
		Long: TitleStyle.Render("cyan") + SubtitleStyle.Render(" - inject tweaks, frameworks and extensions into iOS apps") + `

cyan copies dylibs, frameworks, app extensions, .deb packages and plain
resources into an .ipa or .app, rewrites their dependencies to load via
@rpath, supplies CydiaSubstrate, Orion and Cephei when they are needed,
weak-links everything into the main executable and restores its
entitlements.

` + SubtitleStyle.Render("Examples:") + `
  cyan inject -i App.ipa -o Patched.ipa -f Tweak.dylib
  cyan inject -i App.ipa -f tweak.deb Prefs.bundle Kit.framework
  cyan deps Payload/App.app/Frameworks/Tweak.dylib
  cyan config show`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is $HOME/.config/cyan/config.cue)")
	rootCmd.PersistentFlags().BoolVarP(&app.flags.assumeYes, "yes", "y", false, "overwrite existing output without asking")

	rootCmd.AddCommand(newInjectCommand(app))
	rootCmd.AddCommand(newDepsCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(int(exitCodeOf(err)))
	}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method, which shows the full chain in
// verbose mode.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
