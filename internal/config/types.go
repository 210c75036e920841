// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"

	// RebuildPolicyAsk prompts at the terminal before rebuilding a stale
	// base environment.
	RebuildPolicyAsk RebuildPolicy = "ask"
	// RebuildPolicyAlways rebuilds a stale base environment without prompting.
	RebuildPolicyAlways RebuildPolicy = "always"
	// RebuildPolicyNever keeps using a stale base environment.
	RebuildPolicyNever RebuildPolicy = "never"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultBuildUser is the unprivileged account tool builds run as when
	// the config does not name one.
	DefaultBuildUser BuildUserName = "asdf"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidRebuildPolicy is returned when a RebuildPolicy value is not recognized.
	ErrInvalidRebuildPolicy = errors.New("invalid rebuild policy")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidBuildUserName is returned when a BuildUserName value is empty or whitespace-only.
	ErrInvalidBuildUserName = errors.New("invalid build user name")
	// ErrInvalidOutputDirPath is returned when an OutputDirPath value is whitespace-only.
	ErrInvalidOutputDirPath = errors.New("invalid output dir path")
	// ErrInvalidBuildConfig is the sentinel error wrapped by InvalidBuildConfigError.
	ErrInvalidBuildConfig = errors.New("invalid build config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// RebuildPolicy specifies what happens when the base environment is
	// older than the staleness window at build time.
	RebuildPolicy string

	// InvalidRebuildPolicyError is returned when a RebuildPolicy value is not recognized.
	// It wraps ErrInvalidRebuildPolicy for errors.Is() compatibility.
	InvalidRebuildPolicyError struct {
		Value RebuildPolicy
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// BuildUserName is the account name tool builds run as inside the build
	// container. A valid name must be non-empty and not whitespace-only;
	// the account must exist on the host so its uid:gid can be resolved.
	BuildUserName string

	// InvalidBuildUserNameError is returned when a BuildUserName value is
	// empty or whitespace-only. It wraps ErrInvalidBuildUserName for errors.Is().
	InvalidBuildUserNameError struct {
		Value BuildUserName
	}

	// OutputDirPath is the directory finished .deb artifacts are written to.
	// The zero value ("") is valid and means "use the current directory".
	// Non-zero values must not be whitespace-only.
	OutputDirPath string

	// InvalidOutputDirPathError is returned when an OutputDirPath value is
	// non-empty but whitespace-only.
	InvalidOutputDirPathError struct {
		Value OutputDirPath
	}

	// InvalidBuildConfigError is returned when a BuildConfig has invalid fields.
	// It wraps ErrInvalidBuildConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidBuildConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine specifies whether to use "docker" or "podman"
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// Build configures how packages are built and where artifacts land
		Build BuildConfig `json:"build" mapstructure:"build"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// BuildConfig configures package build behavior.
	BuildConfig struct {
		// User is the unprivileged account tool builds run as inside the container
		User BuildUserName `json:"user" mapstructure:"user"`
		// OutputDir is where finished .deb artifacts are written
		OutputDir OutputDirPath `json:"output_dir" mapstructure:"output_dir"`
		// RebuildPolicy controls whether a stale base environment is rebuilt
		RebuildPolicy RebuildPolicy `json:"rebuild_policy" mapstructure:"rebuild_policy"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// IsValid returns whether the BuildConfig has valid fields.
// It delegates to User.IsValid(), OutputDir.IsValid(), and RebuildPolicy.IsValid().
func (c BuildConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.User.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.OutputDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.RebuildPolicy.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidBuildConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidBuildConfigError.
func (e *InvalidBuildConfigError) Error() string {
	return fmt.Sprintf("invalid build config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidBuildConfig for errors.Is() compatibility.
func (e *InvalidBuildConfigError) Unwrap() error { return ErrInvalidBuildConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to ContainerEngine.IsValid(), Build.IsValid(), and UI.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Build.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the BuildUserName.
func (n BuildUserName) String() string { return string(n) }

// IsValid returns whether the BuildUserName is valid.
// A valid name must be non-empty and not whitespace-only.
func (n BuildUserName) IsValid() (bool, []error) {
	if strings.TrimSpace(string(n)) == "" {
		return false, []error{&InvalidBuildUserNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidBuildUserNameError.
func (e *InvalidBuildUserNameError) Error() string {
	return fmt.Sprintf("invalid build user name %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidBuildUserName for errors.Is() compatibility.
func (e *InvalidBuildUserNameError) Unwrap() error { return ErrInvalidBuildUserName }

// String returns the string representation of the OutputDirPath.
func (p OutputDirPath) String() string { return string(p) }

// IsValid returns whether the OutputDirPath is valid.
// The zero value ("") is valid (means "use the current directory").
// Non-zero values must not be whitespace-only.
func (p OutputDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidOutputDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidOutputDirPathError.
func (e *InvalidOutputDirPathError) Error() string {
	return fmt.Sprintf("invalid output dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidOutputDirPath for errors.Is() compatibility.
func (e *InvalidOutputDirPathError) Unwrap() error { return ErrInvalidOutputDirPath }

// Error implements the error interface for InvalidContainerEngineError.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error {
	return ErrInvalidContainerEngine
}

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine types,
// and a list of validation errors if it is not.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface for InvalidRebuildPolicyError.
func (e *InvalidRebuildPolicyError) Error() string {
	return fmt.Sprintf("invalid rebuild policy %q (valid: ask, always, never)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidRebuildPolicyError) Unwrap() error {
	return ErrInvalidRebuildPolicy
}

// String returns the string representation of the RebuildPolicy.
func (p RebuildPolicy) String() string { return string(p) }

// IsValid returns whether the RebuildPolicy is one of the defined policies,
// and a list of validation errors if it is not.
func (p RebuildPolicy) IsValid() (bool, []error) {
	switch p {
	case RebuildPolicyAsk, RebuildPolicyAlways, RebuildPolicyNever:
		return true, nil
	default:
		return false, []error{&InvalidRebuildPolicyError{Value: p}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineDocker,
		Build: BuildConfig{
			User:          DefaultBuildUser,
			OutputDir:     ".",
			RebuildPolicy: RebuildPolicyAsk,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
