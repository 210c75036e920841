// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/asdf2deb/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/asdf2deb/config.cue on macOS, %APPDATA%\asdf2deb\config.cue
// on Windows). The package provides type-safe configuration access and covers container
// engine selection, build settings (build user, output directory, rebuild policy), and
// UI settings.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
