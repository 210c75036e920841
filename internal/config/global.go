// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"asdf2deb/pkg/types"
)

var (
	// globalConfig caches the loaded configuration for Get()/Load().
	globalConfig *Config

	// configPath records which file the cached configuration came from.
	// Empty when the configuration came purely from defaults.
	configPath string

	// errLastLoad stores the most recent load failure so callers that fell
	// back to defaults via Get() can still surface the underlying problem.
	errLastLoad error

	// configFilePathOverride forces loading from a specific file, set by the
	// --config flag.
	configFilePathOverride string

	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably respect
	// the HOME environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string
)

// Load returns the cached configuration, loading it from disk on first use.
// The config file is resolved from the --config override, then the platform
// config directory, then the current directory, falling back to defaults
// when no file exists.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	opts := LoadOptions{}
	if configFilePathOverride != "" {
		opts.ConfigFilePath = types.FilesystemPath(configFilePathOverride)
	}

	cfg, resolvedPath, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		errLastLoad = err
		return nil, err
	}

	globalConfig = cfg
	configPath = resolvedPath
	errLastLoad = nil
	return cfg, nil
}

// Get returns the configuration, falling back to defaults when loading fails.
// The load error, if any, is retrievable via LastLoadError so the CLI can
// warn without refusing to start.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LastLoadError returns the error from the most recent failed load, or nil
// when the last load succeeded.
func LastLoadError() error {
	return errLastLoad
}

// ConfigFilePath returns the path of the config file the cached configuration
// was loaded from, or "" when defaults are in effect.
//
//nolint:revive // ConfigFilePath is more descriptive than FilePath for external callers
func ConfigFilePath() string {
	return configPath
}

// Reset clears the cached configuration and all overrides.
// Call from test cleanup to restore defaults.
func Reset() {
	globalConfig = nil
	configPath = ""
	errLastLoad = nil
	configFilePathOverride = ""
	configDirOverride = ""
}

// ResetCache clears the cached configuration so the next Load() re-reads from
// disk, while preserving any path or directory overrides.
func ResetCache() {
	globalConfig = nil
	configPath = ""
	errLastLoad = nil
}

// SetConfigFilePathOverride forces subsequent loads to use the given config
// file. The cache is cleared so the override takes effect immediately.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
	ResetCache()
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
