// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"asdf2deb/internal/issue"
)

// newEnvCommand creates the `asdf2deb env` command tree.
func newEnvCommand(app *App) *cobra.Command {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Manage base build environments",
		Long: `Manage the base environments package builds run in.

A base environment is an immutable image (asdf-to-deb:<timestamp>) holding
Debian unstable, the dpkg toolchain, and a pinned asdf checkout. Tool builds
never modify it; refreshing the toolchain means building a new one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	envCmd.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Build a fresh base environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvBuild(cmd.Context(), app, verbose, engineName)
		},
	})

	envCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List base environments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvList(cmd.Context(), app, verbose, engineName)
		},
	})

	var pruneAll bool
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old base environments",
		Long: `Remove old base environments from the engine's image store.

The newest environment is kept so the next build does not start from
scratch; --all removes every environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvPrune(cmd.Context(), app, verbose, engineName, pruneAll)
		},
	}
	pruneCmd.Flags().BoolVar(&pruneAll, "all", false, "remove every environment, including the newest")
	envCmd.AddCommand(pruneCmd)

	return envCmd
}

func runEnvBuild(ctx context.Context, app *App, verboseMode bool, engineOverride string) error {
	cfg, err := loadConfigOrDefaults(ctx, app, verboseMode)
	if err != nil {
		return err
	}

	engine, err := resolveEngine(ctx, app, cfg, engineOverride)
	if err != nil {
		return err
	}

	logger := newRunLogger(app.stderr, verboseMode)

	env, err := app.Environments.Build(ctx, EnvironmentRequest{Engine: engine, Logger: logger})
	if err != nil {
		renderIssue(app.stderr, issue.EnvironmentBuildFailedId)
		return err
	}

	fmt.Fprintf(app.stdout, "%s Built base environment %s\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(string(env.Ref())))
	return nil
}

func runEnvList(ctx context.Context, app *App, verboseMode bool, engineOverride string) error {
	cfg, err := loadConfigOrDefaults(ctx, app, verboseMode)
	if err != nil {
		return err
	}

	engine, err := resolveEngine(ctx, app, cfg, engineOverride)
	if err != nil {
		return err
	}

	logger := newRunLogger(app.stderr, verboseMode)

	envs, err := app.Environments.List(ctx, EnvironmentRequest{Engine: engine, Logger: logger})
	if err != nil {
		return err
	}

	if len(envs) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no base environments built yet)"))
		fmt.Fprintf(app.stdout, "Run %s to create one.\n", CmdStyle.Render("asdf2deb env build"))
		return nil
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Base Environments"))
	fmt.Fprintln(app.stdout)

	now := time.Now()
	for _, env := range envs {
		line := fmt.Sprintf("%s  %s",
			CmdStyle.Render(string(env.Ref())),
			SubtitleStyle.Render(formatEnvironmentAge(env.Age(now))))
		if env.IsStale(now) {
			line += "  " + WarningStyle.Render("stale")
		}
		fmt.Fprintln(app.stdout, line)
	}
	return nil
}

func runEnvPrune(ctx context.Context, app *App, verboseMode bool, engineOverride string, all bool) error {
	cfg, err := loadConfigOrDefaults(ctx, app, verboseMode)
	if err != nil {
		return err
	}

	engine, err := resolveEngine(ctx, app, cfg, engineOverride)
	if err != nil {
		return err
	}

	logger := newRunLogger(app.stderr, verboseMode)

	// Removals that happened before a failure are still reported.
	removed, err := app.Environments.Prune(ctx, EnvironmentRequest{Engine: engine, Logger: logger}, !all)
	for _, env := range removed {
		fmt.Fprintf(app.stdout, "%s Removed %s\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(string(env.Ref())))
	}
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("(nothing to prune)"))
	}
	return nil
}

// formatEnvironmentAge renders an environment age as its largest whole unit.
func formatEnvironmentAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "just built"
	case age < time.Hour:
		return pluralizeAge(int(age.Minutes()), "minute")
	case age < 24*time.Hour:
		return pluralizeAge(int(age.Hours()), "hour")
	default:
		return pluralizeAge(int(age.Hours()/24), "day")
	}
}

func pluralizeAge(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s old", unit)
	}
	return fmt.Sprintf("%d %ss old", n, unit)
}
