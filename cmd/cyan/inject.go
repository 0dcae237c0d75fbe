// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	iosapp "github.com/cyan-tools/cyan/internal/app"
	"github.com/cyan-tools/cyan/internal/config"
	"github.com/cyan-tools/cyan/internal/deb"
	"github.com/cyan-tools/cyan/internal/inject"
	"github.com/cyan-tools/cyan/internal/issue"
	"github.com/cyan-tools/cyan/internal/macho"
	"github.com/cyan-tools/cyan/internal/module"
	"github.com/cyan-tools/cyan/internal/toolchain"
	"github.com/cyan-tools/cyan/internal/tui"
)

type (
	// injectFlags are the flags of `cyan inject`.
	injectFlags struct {
		input     string
		output    string
		files     []string
		injector  string
		extractor string
		thin      bool
	}

	// injectService is the production InjectService.
	injectService struct {
		stderr io.Writer
	}

	// encryptionChecker reports whether a binary is still encrypted.
	encryptionChecker interface {
		Encrypted(ctx context.Context, bin string) (bool, error)
	}

	// terminalPrompter asks questions with huh when stdin is a terminal.
	terminalPrompter struct{}
)

// newInjectCommand creates the `cyan inject` command.
func newInjectCommand(app *App) *cobra.Command {
	var f injectFlags

	cmd := &cobra.Command{
		Use:   "inject -i <app|ipa> -f <module>... [module...]",
		Short: "Inject modules into an iOS app",
		Long: `Inject dylibs, frameworks, app extensions, .deb packages and resources into
an .ipa or .app.

Libraries are weak-linked into the main executable, their dependencies on
each other and on CydiaSubstrate, Orion or Cephei are rewritten to @rpath, and
missing runtimes are copied from cyan's extras directory. The executable's
entitlements are restored afterwards.

Module paths may be given with repeated -f flags or as trailing arguments.

` + SubtitleStyle.Render("Examples:") + `
  cyan inject -i App.ipa -o Patched.ipa -f Tweak.dylib
  cyan inject -i App.app -f tweak.deb Widget.appex Settings.bundle
  cyan inject -i App.ipa -f Tweak.dylib --injector insert_dylib --thin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInject(cmd, app, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "", "the app to patch (.ipa or .app)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "where to write the patched app (default: overwrite the input)")
	cmd.Flags().StringArrayVarP(&f.files, "file", "f", nil, "a tweak, framework, extension, .deb or resource to inject (repeatable)")
	cmd.Flags().StringVar(&f.injector, "injector", "", "weak-link backend: auto, macho or insert_dylib (overrides config)")
	cmd.Flags().StringVar(&f.extractor, "extractor", "", "reference reader: macho or otool (overrides config)")
	cmd.Flags().BoolVar(&f.thin, "thin", false, "thin the main executable to arm64 first (overrides config)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runInject(cmd *cobra.Command, app *App, f injectFlags, args []string) error {
	ctx := cmd.Context()

	if err := iosapp.ValidateInput(f.input); err != nil {
		return app.fail(err)
	}
	files := slices.Concat(f.files, args)
	if len(files) == 0 {
		return app.fail(&inject.UserInputError{Reason: "no modules given; pass them with -f"})
	}
	set, err := module.ParseSources(files)
	if err != nil {
		return app.fail(err)
	}

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.fail(err)
	}
	if err := applyInjectFlags(cmd, cfg, f); err != nil {
		return app.fail(err)
	}

	output := f.output
	if output == "" {
		output = f.input
	}
	proceed, err := app.confirmOverwrite(ctx, cfg, output, f.output == "")
	if err != nil {
		return app.fail(err)
	}
	if !proceed {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("quitting."))
		return nil
	}

	report, err := app.Injector.Inject(ctx, InjectRequest{
		Input:   f.input,
		Output:  output,
		Modules: set,
		Config:  cfg,
		Logger:  app.logger(cfg),
	})
	if err != nil {
		return app.fail(err)
	}

	printReport(app.stdout, report, output)
	return nil
}

// applyInjectFlags lets explicitly set flags override the loaded config.
func applyInjectFlags(cmd *cobra.Command, cfg *config.Config, f injectFlags) error {
	if cmd.Flags().Changed("injector") {
		cfg.Injector = config.InjectorBackend(f.injector)
	}
	if cmd.Flags().Changed("extractor") {
		cfg.Extractor = config.ExtractorBackend(f.extractor)
	}
	if cmd.Flags().Changed("thin") {
		cfg.Thin = f.thin
	}
	return cfg.Validate()
}

// confirmOverwrite asks before an existing output is replaced. It answers yes
// without asking under --yes, ui.assume_yes, or when stdin is not a terminal.
func (a *App) confirmOverwrite(ctx context.Context, cfg *config.Config, output string, isInput bool) (bool, error) {
	if _, err := os.Stat(output); err != nil {
		return true, nil
	}
	if a.flags.assumeYes || cfg.UI.AssumeYes {
		return true, nil
	}

	title := output + " already exists, overwrite it?"
	if isInput {
		title = "no output was specified. overwrite the input?"
	}
	ok, err := a.Prompter.Confirm(ctx, title)
	if errors.Is(err, tui.ErrAborted) {
		return false, nil
	}
	return ok, err
}

// Confirm implements Prompter.
func (terminalPrompter) Confirm(ctx context.Context, title string) (bool, error) {
	if !tui.IsInputTerminal() {
		return true, nil
	}
	return tui.Confirm(ctx, tui.ConfirmOptions{Title: title, Default: true, Config: tui.DefaultConfig()})
}

// Inject implements InjectService: it unpacks the app into a scratch
// directory, runs the resolver against it and writes the result.
func (s *injectService) Inject(ctx context.Context, req InjectRequest) (*inject.Report, error) {
	logger := req.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ts, err := config.NewToolset(req.Config)
	if err != nil {
		return nil, err
	}
	tools := toolchain.NewSet(ts)
	logger.Debug("using tools", "dir", ts.ToolsDir(), "injector", ts.Injector(), "extractor", ts.Extractor())

	workDir, err := os.MkdirTemp("", "cyan-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	if iosapp.IsIPA(req.Input) {
		logger.Info("extracting ipa..")
	} else {
		logger.Info("copying app..")
	}
	bundleApp, err := iosapp.Open(ctx, req.Input, workDir)
	if err != nil {
		return nil, err
	}
	exe := bundleApp.Executable()

	var (
		extractor inject.Extractor
		checker   encryptionChecker
	)
	if ts.Extractor() == config.ExtractorOtool {
		extractor, checker = tools.Otool, tools.Otool
	} else {
		inspector := macho.NewInspector()
		extractor, checker = inspector, inspector
	}
	s.warnIfEncrypted(ctx, checker, exe, logger)

	if ts.Thin() {
		if res := tools.Lipo.Thin(ctx, exe, toolchain.ThinArch); res.OK() {
			logger.Info("thinned executable to " + toolchain.ThinArch)
		} else {
			logger.Debug("executable not thinned", "error", res.Err)
		}
	}

	var injector inject.Injector = macho.NewWeakLinker(exe, workDir)
	if ts.Injector() == config.InjectorInsertDylib {
		injector = tools.InsertDylib(exe)
	}

	resolver := inject.NewResolver(inject.Dependencies{
		Extractor: extractor,
		Rewriter:  tools.InstallNameTool,
		Injector:  injector,
		Signer:    tools.Ldid,
		Rpaths:    tools.InstallNameTool,
		Archives:  deb.NewExtractor(logger),
		Extras:    ts.Extra,
	}, logger)

	report, err := resolver.Run(ctx, inject.Request{
		Executable: exe,
		Bundle:     bundleApp.Dir,
		Modules:    req.Modules,
		WorkDir:    workDir,
	})
	if err != nil {
		return report, err
	}

	logger.Info("generating output..")
	if err := bundleApp.Write(ctx, req.Output); err != nil {
		return report, fmt.Errorf("failed to write %s: %w", req.Output, err)
	}
	return report, nil
}

func (s *injectService) warnIfEncrypted(ctx context.Context, checker encryptionChecker, exe string, logger *log.Logger) {
	encrypted, err := checker.Encrypted(ctx, exe)
	if err != nil {
		logger.Debug("encryption check failed", "error", err)
		return
	}
	if !encrypted {
		return
	}
	logger.Warn("main executable is encrypted")
	if rendered, err := issue.Get(issue.EncryptedExecutableId).Render("dark"); err == nil {
		fmt.Fprint(s.stderr, rendered)
	}
}

// printReport prints the summary of a successful run.
func printReport(w io.Writer, report *inject.Report, output string) {
	fmt.Fprintf(w, "%s injected %d module(s) into %s\n",
		SuccessStyle.Render("✓"), len(report.Placements), CmdStyle.Render(output))
	for _, p := range report.Supplied {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("+"), p.Module.Name)
	}
	if n := len(report.Rewrites); n > 0 {
		fmt.Fprintf(w, "  %s\n", VerboseStyle.Render(fmt.Sprintf("%d dependency reference(s) rewritten", n)))
	}
	if replaced := report.Replaced(); len(replaced) > 0 {
		fmt.Fprintf(w, "  %s\n", WarningStyle.Render(fmt.Sprintf("%d existing item(s) replaced", len(replaced))))
	}
}
