// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for asdf2deb.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"asdf2deb/internal/config"
	"asdf2deb/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// engineName overrides the configured container engine
	engineName string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "asdf2deb",
		Short: "Package asdf-managed tools as Debian archives",
		Long: TitleStyle.Render("asdf2deb") + SubtitleStyle.Render(" - Package asdf-managed tools as Debian archives") + `

asdf2deb turns tools managed by the asdf version manager into installable
.deb packages. Every build runs inside a disposable, capability-restricted
container, so the host needs a container engine and nothing else: no asdf,
no compilers, no root.

Builds start from a base environment, an immutable image holding Debian
unstable, the dpkg toolchain, and a pinned asdf checkout. Base environments
are timestamp-tagged and rebuilt on demand.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Package a tool: asdf2deb build nodejs
  2. Install the result: sudo dpkg -i nodejs_<version>_amd64.deb

` + SubtitleStyle.Render("Examples:") + `
  asdf2deb build nodejs                       Package the latest nodejs
  asdf2deb build terraform --tool-version 1.5.7
  asdf2deb env list                           List base environments
  asdf2deb config show                        Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/asdf2deb/config.cue)")
	rootCmd.PersistentFlags().StringVar(&engineName, "engine", "", "container engine to use: docker or podman (default from config)")

	// Add subcommands
	app := NewApp(Dependencies{})
	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newEnvCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newDocsCommand(app))
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
