// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cyan-tools/cyan/internal/config"
	"github.com/cyan-tools/cyan/internal/inject"
	"github.com/cyan-tools/cyan/internal/module"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra command
	// handler receives an App reference and delegates through its services.
	App struct {
		Config   ConfigProvider
		Injector InjectService
		Prompter Prompter
		stdout   io.Writer
		stderr   io.Writer
		flags    globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Injector InjectService
		Prompter Prompter
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// globalFlags are the persistent flags of the root command.
	globalFlags struct {
		verbose    bool
		configPath string
		assumeYes  bool
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// InjectRequest captures the inputs of one `cyan inject` run.
	InjectRequest struct {
		// Input is the .ipa or .app to patch.
		Input string
		// Output is where the patched application is written.
		Output string
		// Modules are the caller-supplied modules, already checked to exist.
		Modules *module.Set
		// Config is the effective configuration with flag overrides applied.
		Config *config.Config
		// Logger receives progress output.
		Logger *log.Logger
	}

	// InjectService runs the injection pipeline for a request.
	InjectService interface {
		Inject(ctx context.Context, req InjectRequest) (*inject.Report, error)
	}

	// Prompter asks the user a yes/no question.
	Prompter interface {
		Confirm(ctx context.Context, title string) (bool, error)
	}
)

// NewApp creates an App with production defaults for every nil dependency.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Injector == nil {
		deps.Injector = &injectService{stderr: deps.Stderr}
	}
	if deps.Prompter == nil {
		deps.Prompter = &terminalPrompter{}
	}

	return &App{
		Config:   deps.Config,
		Injector: deps.Injector,
		Prompter: deps.Prompter,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}
}

// loadConfig loads the configuration named by --config, or the default file.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
}

// logger returns the progress logger for one command run.
func (a *App) logger(cfg *config.Config) *log.Logger {
	level := log.InfoLevel
	if a.flags.verbose || (cfg != nil && cfg.UI.Verbose) {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}
