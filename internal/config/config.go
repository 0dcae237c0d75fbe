// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/cyan-tools/cyan/internal/issue"
	"github.com/cyan-tools/cyan/pkg/cueutil"
)

const (
	// AppName names the config directory and prefixes environment variables.
	AppName = "cyan"
	// FileName is the config file looked up inside ConfigDir.
	FileName = "config.cue"

	schemaRoot = "#Config"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the per-user cyan config directory: %APPDATA%\cyan on
// Windows, ~/Library/Application Support/cyan on Darwin and iOS, and
// $XDG_CONFIG_HOME/cyan (default ~/.config/cyan) elsewhere.
//
//nolint:revive // config.Dir would read ambiguously next to tools_dir
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	base, err := userConfigBase(runtime.GOOS)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

func userConfigBase(goos string) (string, error) {
	if goos == "windows" {
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
		return filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming"), nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" && goos != "darwin" && goos != "ios" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	if goos == "darwin" || goos == "ios" {
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	return filepath.Join(home, ".config"), nil
}

// FilePath returns ConfigDir joined with FileName.
func FilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// loadWithOptions layers defaults, the config file and CYAN_* variables, in
// that order of precedence from lowest. It also returns the file that was
// read, or "" when none was.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := newViper()

	path, err := resolveFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := mergeCUE(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file is valid CUE and matches the schema printed by 'cyan config dump'").
				WithSuggestion("Run 'cyan config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}

	// CYAN_INJECTOR and CYAN_EXTRACTOR never pass through the CUE schema.
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check CYAN_INJECTOR and CYAN_EXTRACTOR environment variables").
			Wrap(err).
			BuildError()
	}
	return &cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	for key, value := range map[string]any{
		"install_root":  d.InstallRoot,
		"tools_dir":     d.ToolsDir,
		"injector":      d.Injector,
		"extractor":     d.Extractor,
		"thin":          d.Thin,
		"ui.verbose":    d.UI.Verbose,
		"ui.assume_yes": d.UI.AssumeYes,
	} {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// resolveFile picks the config file to read. An explicit --config file must
// exist; the default location is optional.
func resolveFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !isRegularFile(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'cyan config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if path := filepath.Join(dir, FileName); isRegularFile(path) {
		return path, nil
	}
	return "", nil
}

// mergeCUE validates the file at path against #Config and merges it into v.
func mergeCUE(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	values, err := cueutil.DecodeMap(configSchema, data, schemaRoot, cueutil.WithFilename(path))
	if err != nil {
		return err
	}
	return v.MergeConfigMap(values)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CreateDefaultConfig writes the defaults to FilePath unless a file is
// already there, and returns the path either way.
func CreateDefaultConfig() (string, error) {
	path, err := FilePath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return path, nil
	}
	if err != nil {
		return "", fmt.Errorf("create config file: %w", err)
	}
	if _, err := f.WriteString(GenerateCUE(DefaultConfig())); err != nil {
		f.Close()
		return "", fmt.Errorf("write config file: %w", err)
	}
	return path, f.Close()
}

// GenerateCUE renders cfg as a config file that loads back to the same values.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// cyan configuration file\n\n")
	if cfg.InstallRoot != "" {
		fmt.Fprintf(&sb, "install_root: %q\n", cfg.InstallRoot)
	}
	if cfg.ToolsDir != "" {
		fmt.Fprintf(&sb, "tools_dir: %q\n", cfg.ToolsDir)
	}
	fmt.Fprintf(&sb, "injector: %q\nextractor: %q\nthin: %t\n", cfg.Injector, cfg.Extractor, cfg.Thin)
	fmt.Fprintf(&sb, "\nui: {\n\tverbose: %t\n\tassume_yes: %t\n}\n", cfg.UI.Verbose, cfg.UI.AssumeYes)
	return sb.String()
}
