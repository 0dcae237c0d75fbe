// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// Provider resolves the configuration of one command run.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// LoadOptions selects where configuration is read from.
	LoadOptions struct {
		// ConfigFilePath is the file named by --config. It must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir for the lookup of config.cue.
		ConfigDirPath string
	}

	viperProvider struct{}
)

// configDirOverride replaces ConfigDir while set. os.UserHomeDir ignores HOME
// on some platforms, so tests point the lookup at a temp dir instead.
var configDirOverride string

// NewProvider returns the Provider backed by viper and the CUE config file.
func NewProvider() Provider { return viperProvider{} }

// Load merges defaults, the config file and CYAN_* variables. The returned
// Config records the file it came from in Source.
func (viperProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	cfg.source = path
	return cfg, nil
}

// UseConfigDir makes ConfigDir return dir until the returned func is called.
//
//	t.Cleanup(config.UseConfigDir(t.TempDir()))
func UseConfigDir(dir string) (restore func()) {
	prev := configDirOverride
	configDirOverride = dir
	return func() { configDirOverride = prev }
}
