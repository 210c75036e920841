// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"asdf2deb/internal/config"
	"asdf2deb/internal/issue"
	"asdf2deb/internal/pipeline"
	"asdf2deb/internal/provision"
	"asdf2deb/internal/sandbox"
	"asdf2deb/pkg/types"
)

// buildInputs captures the build command's flags and arguments. Handlers
// receive them as a value so tests can drive runBuild without Cobra.
type buildInputs struct {
	tool        string
	pluginURL   string
	toolVersion string
	outputDir   string
	user        string
	engineName  string
	rebuildBase bool
	assumeYes   bool
	verbose     bool
}

// newBuildCommand creates the `asdf2deb build` command.
func newBuildCommand(app *App) *cobra.Command {
	var (
		pluginURL   string
		toolVersion string
		outputDir   string
		buildUser   string
		rebuildBase bool
		assumeYes   bool
	)

	buildCmd := &cobra.Command{
		Use:   "build <tool>",
		Short: "Build a .deb package for an asdf-managed tool",
		Long: `Build a .deb package for an asdf-managed tool.

The tool is installed with asdf inside a disposable hardened container and
its installation tree is packaged with dpkg-deb. The finished archive lands
in the output directory as <tool>_<version>_amd64.deb.

When that archive already exists the build is skipped; remove the file or
pick another output directory to rebuild.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), app, buildInputs{
				tool:        args[0],
				pluginURL:   pluginURL,
				toolVersion: toolVersion,
				outputDir:   outputDir,
				user:        buildUser,
				engineName:  engineName,
				rebuildBase: rebuildBase,
				assumeYes:   assumeYes,
				verbose:     verbose,
			})
		},
	}

	buildCmd.Flags().StringVar(&pluginURL, "plugin-url", "", "asdf plugin git URL (default is the registry lookup by tool name)")
	buildCmd.Flags().StringVar(&toolVersion, "tool-version", "", "tool version to package (default is the latest asdf reports)")
	buildCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory to write the .deb archive to (default from config)")
	buildCmd.Flags().StringVar(&buildUser, "user", "", "host account whose uid:gid the build runs as (default from config)")
	buildCmd.Flags().BoolVar(&rebuildBase, "rebuild-base", false, "rebuild the base environment before building")
	buildCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to the stale-environment prompt")

	return buildCmd
}

// runBuild packages one tool: load config, resolve the engine, ensure a base
// environment, then run the pipeline in a sandbox.
func runBuild(ctx context.Context, app *App, in buildInputs) error {
	cfg, err := loadConfigOrDefaults(ctx, app, in.verbose)
	if err != nil {
		return err
	}

	req := buildPipelineRequest(cfg, in)
	// Request problems are user errors; catch them before the engine and
	// environment work starts.
	if err := req.Validate(); err != nil {
		return err
	}

	engine, err := resolveEngine(ctx, app, cfg, in.engineName)
	if err != nil {
		return err
	}

	logger := newRunLogger(app.stderr, in.verbose)

	if in.verbose {
		fmt.Fprintf(app.stdout, "%s Using %s engine\n", SuccessStyle.Render("→"), engine.Name())
	}

	env, err := app.Environments.Ensure(ctx, EnvironmentRequest{Engine: engine, Logger: logger}, provision.EnsureOptions{
		ForceRebuild: in.rebuildBase,
		Confirm:      confirmFuncFor(cfg.Build.RebuildPolicy, in.assumeYes, app),
	})
	if err != nil {
		renderIssue(app.stderr, issue.EnvironmentBuildFailedId)
		return err
	}

	if in.verbose {
		fmt.Fprintf(app.stdout, "%s Building '%s' from %s...\n",
			SuccessStyle.Render("→"), in.tool, CmdStyle.Render(string(env.Ref())))
	}

	result, err := app.Builds.Build(ctx, BuildRequest{
		Engine:      engine,
		Logger:      logger,
		Environment: env,
		Pipeline:    req,
	})
	if err != nil {
		return renderBuildFailure(app.stderr, err)
	}

	if result.Skipped {
		fmt.Fprintf(app.stdout, "%s Artifact already present at %s, skipping build\n",
			WarningStyle.Render("!"), CmdStyle.Render(result.ArtifactPath.String()))
		return nil
	}

	fmt.Fprintf(app.stdout, "%s Created %s\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(result.ArtifactPath.String()))
	return nil
}

// buildPipelineRequest merges flags over config defaults into the pipeline
// request. Flags win; the config fills whatever the command line left out.
func buildPipelineRequest(cfg *config.Config, in buildInputs) pipeline.Request {
	outputDir := in.outputDir
	if outputDir == "" {
		outputDir = cfg.Build.OutputDir.String()
	}
	if outputDir == "" {
		outputDir = "."
	}

	user := in.user
	if user == "" {
		user = cfg.Build.User.String()
	}

	return pipeline.Request{
		Tool:      types.ToolName(in.tool),
		PluginURL: in.pluginURL,
		Version:   types.ToolVersion(in.toolVersion),
		OutputDir: types.FilesystemPath(outputDir),
		User:      user,
	}
}

// confirmFuncFor maps the rebuild policy onto the staleness confirmation
// hook. Under "never" no question is ever asked (a nil ConfirmFunc keeps the
// stale environment), so --yes has nothing to affirm; under "ask" the answer
// comes from --yes or the terminal; "always" rebuilds without asking.
func confirmFuncFor(policy config.RebuildPolicy, assumeYes bool, app *App) provision.ConfirmFunc {
	if policy == config.RebuildPolicyNever {
		return nil
	}
	if assumeYes || policy == config.RebuildPolicyAlways {
		return func(string) bool { return true }
	}
	return interactiveConfirm(app.stdin, app.stdout)
}

// interactiveConfirm asks on the terminal and reads a y/n answer. Anything
// but an explicit yes keeps the current environment.
func interactiveConfirm(in io.Reader, out io.Writer) provision.ConfirmFunc {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)

		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && answer == "" {
			return false
		}

		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}

// renderBuildFailure prints the styled card for a failed build and maps the
// failure onto the process exit status. A remote step failure exits with the
// remote status and shows its stderr verbatim; everything else keeps the
// generic failure exit.
func renderBuildFailure(stderr io.Writer, err error) error {
	var stepErr *pipeline.StepError
	if errors.As(err, &stepErr) {
		renderIssue(stderr, issue.ToolBuildFailedId)
		fmt.Fprintf(stderr, "\n%s step %s exited with status %s\n",
			ErrorStyle.Render("Error:"), stepErr.Step, stepErr.ExitCode)
		if stepErr.Stderr != "" {
			fmt.Fprintln(stderr, stepErr.Stderr)
		}
		return &ExitError{Code: stepErr.ExitCode, Err: err}
	}

	switch {
	case errors.Is(err, sandbox.ErrIdentityResolution):
		renderIssue(stderr, issue.IdentityResolutionFailedId)
	case errors.Is(err, sandbox.ErrSandboxCreate):
		renderIssue(stderr, issue.SandboxCreateFailedId)
	case errors.Is(err, pipeline.ErrCopyOut):
		renderIssue(stderr, issue.ArtifactCopyFailedId)
	}
	return err
}
