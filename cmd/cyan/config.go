// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyan-tools/cyan/internal/config"
	"github.com/cyan-tools/cyan/internal/toolchain"
)

// newConfigCommand creates the `cyan config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cyan configuration",
		Long: `Manage cyan configuration.

Configuration is stored in:
  - Linux: ~/.config/cyan/config.cue
  - macOS: ~/Library/Application Support/cyan/config.cue
  - Windows: %APPDATA%\cyan\config.cue

Every key can also be set from the environment, e.g. CYAN_EXTRACTOR=otool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.fail(err)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	if cfgPath := cfg.Source(); cfgPath != "" {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), cfgPath)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	installRoot := cfg.InstallRoot
	if installRoot == "" {
		installRoot = SubtitleStyle.Render("(directory of the cyan executable)")
	} else {
		installRoot = valueStyle.Render(installRoot)
	}
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("install_root"), installRoot)
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("injector"), valueStyle.Render(cfg.Injector.String()))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("extractor"), valueStyle.Render(cfg.Extractor.String()))
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("thin"), valueStyle.Render(fmt.Sprintf("%v", cfg.Thin)))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(out, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(out, "  assume_yes: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.AssumeYes)))

	ts, err := config.NewToolset(cfg)
	if err != nil {
		return app.fail(err)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("tools"), ts.ToolsDir())
	for _, name := range []string{
		toolchain.LdidName,
		toolchain.InstallNameToolName,
		toolchain.OtoolName,
		toolchain.LipoName,
		toolchain.InsertDylibName,
	} {
		state := SuccessStyle.Render("found")
		if !fileExistsCheck(ts.Tool(name)) {
			state = WarningStyle.Render("missing")
		}
		fmt.Fprintf(out, "  %s: %s\n", name, state)
	}
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("extras"), ts.ExtrasDir())
	fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("effective injector"), valueStyle.Render(ts.Injector().String()))

	return nil
}

func initConfig(app *App) error {
	cfgPath, err := config.CreateDefaultConfig()
	if err != nil {
		return app.fail(fmt.Errorf("failed to create config: %w", err))
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return app.fail(err)
	}
	cfgPath, err := config.FilePath()
	if err != nil {
		return app.fail(err)
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", cfgPath)
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
