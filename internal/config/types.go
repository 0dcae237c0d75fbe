// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// InjectorAuto picks insert_dylib on iOS hosts and the go-macho linker elsewhere.
	InjectorAuto InjectorBackend = "auto"
	// InjectorMachO batches weak load commands and writes the executable once.
	InjectorMachO InjectorBackend = "macho"
	// InjectorInsertDylib runs insert_dylib once per load command.
	InjectorInsertDylib InjectorBackend = "insert_dylib"

	// ExtractorMachO reads load commands with go-macho.
	ExtractorMachO ExtractorBackend = "macho"
	// ExtractorOtool parses the output of otool -L.
	ExtractorOtool ExtractorBackend = "otool"
)

var (
	// ErrInvalidInjectorBackend is returned when an InjectorBackend value is not recognized.
	ErrInvalidInjectorBackend = errors.New("invalid injector backend")
	// ErrInvalidExtractorBackend is returned when an ExtractorBackend value is not recognized.
	ErrInvalidExtractorBackend = errors.New("invalid extractor backend")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// InjectorBackend selects the Load Injector implementation.
	InjectorBackend string

	// InvalidInjectorBackendError is returned when an InjectorBackend value is not recognized.
	InvalidInjectorBackendError struct {
		Value InjectorBackend
	}

	// ExtractorBackend selects the Dependency Extractor implementation.
	ExtractorBackend string

	// InvalidExtractorBackendError is returned when an ExtractorBackend value is not recognized.
	InvalidExtractorBackendError struct {
		Value ExtractorBackend
	}

	// InvalidConfigError aggregates field validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the root configuration structure.
	Config struct {
		// InstallRoot is the directory holding tools/ and extras/.
		InstallRoot string `json:"install_root" mapstructure:"install_root"`
		// ToolsDir overrides the host-specific tools directory.
		ToolsDir string `json:"tools_dir" mapstructure:"tools_dir"`
		// Injector selects how weak load commands are added.
		Injector InjectorBackend `json:"injector" mapstructure:"injector"`
		// Extractor selects how library references are read.
		Extractor ExtractorBackend `json:"extractor" mapstructure:"extractor"`
		// Thin requests a best-effort arm64 thinning of the main executable.
		Thin bool `json:"thin" mapstructure:"thin"`
		// UI configures terminal behavior.
		UI UIConfig `json:"ui" mapstructure:"ui"`

		source string
	}

	// UIConfig configures terminal behavior.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// AssumeYes answers overwrite prompts with yes.
		AssumeYes bool `json:"assume_yes" mapstructure:"assume_yes"`
	}
)

// Source returns the config file the values were read from, or "" when only
// defaults and environment variables applied.
func (c *Config) Source() string { return c.source }

// String returns the string representation of the InjectorBackend.
func (b InjectorBackend) String() string { return string(b) }

// IsValid returns whether the InjectorBackend is one of the defined backends,
// and a list of validation errors if it is not.
func (b InjectorBackend) IsValid() (bool, []error) {
	switch b {
	case InjectorAuto, InjectorMachO, InjectorInsertDylib:
		return true, nil
	default:
		return false, []error{&InvalidInjectorBackendError{Value: b}}
	}
}

// Error implements the error interface for InvalidInjectorBackendError.
func (e *InvalidInjectorBackendError) Error() string {
	return fmt.Sprintf("invalid injector backend %q (valid: auto, macho, insert_dylib)", e.Value)
}

// Unwrap returns ErrInvalidInjectorBackend for errors.Is() compatibility.
func (e *InvalidInjectorBackendError) Unwrap() error { return ErrInvalidInjectorBackend }

// String returns the string representation of the ExtractorBackend.
func (b ExtractorBackend) String() string { return string(b) }

// IsValid returns whether the ExtractorBackend is one of the defined backends,
// and a list of validation errors if it is not.
func (b ExtractorBackend) IsValid() (bool, []error) {
	switch b {
	case ExtractorMachO, ExtractorOtool:
		return true, nil
	default:
		return false, []error{&InvalidExtractorBackendError{Value: b}}
	}
}

// Error implements the error interface for InvalidExtractorBackendError.
func (e *InvalidExtractorBackendError) Error() string {
	return fmt.Sprintf("invalid extractor backend %q (valid: macho, otool)", e.Value)
}

// Unwrap returns ErrInvalidExtractorBackend for errors.Is() compatibility.
func (e *InvalidExtractorBackendError) Unwrap() error { return ErrInvalidExtractorBackend }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks every enumerated field and returns an InvalidConfigError
// listing all problems, or nil.
func (c *Config) Validate() error {
	var errs []error
	if ok, fieldErrs := c.Injector.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.Extractor.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		InstallRoot: "", // resolved from os.Executable() by NewToolset
		ToolsDir:    "",
		Injector:    InjectorAuto,
		Extractor:   ExtractorMachO,
		Thin:        false,
		UI: UIConfig{
			Verbose:   false,
			AssumeYes: false,
		},
	}
}
