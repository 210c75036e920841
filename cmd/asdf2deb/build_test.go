// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"asdf2deb/internal/config"
	"asdf2deb/internal/container"
	"asdf2deb/internal/pipeline"
	"asdf2deb/internal/provision"
	"asdf2deb/internal/sandbox"
)

func TestRunBuild_Success(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	if err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs"}); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	if ta.envs.ensureCalls != 1 {
		t.Errorf("Ensure calls = %d, want 1", ta.envs.ensureCalls)
	}
	if ta.builds.calls != 1 {
		t.Errorf("Build calls = %d, want 1", ta.builds.calls)
	}

	req := ta.builds.lastReq
	if req.Environment != ta.envs.env {
		t.Error("build request should carry the ensured environment")
	}
	if req.Engine != ta.engines.engine {
		t.Error("build request should carry the resolved engine")
	}
	if req.Logger == nil {
		t.Error("build request should carry a logger")
	}
	if req.Pipeline.Tool != "nodejs" {
		t.Errorf("Pipeline.Tool = %q, want nodejs", req.Pipeline.Tool)
	}
	if req.Pipeline.User != "asdf" {
		t.Errorf("Pipeline.User = %q, want the config default asdf", req.Pipeline.User)
	}
	if req.Pipeline.OutputDir != "." {
		t.Errorf("Pipeline.OutputDir = %q, want the config default .", req.Pipeline.OutputDir)
	}
	if req.Pipeline.Version != "" {
		t.Errorf("Pipeline.Version = %q, want empty (resolve latest)", req.Pipeline.Version)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, "Created") {
		t.Errorf("stdout should announce the artifact, got %q", out)
	}
	if !strings.Contains(out, "out/nodejs_20.1.0_amd64.deb") {
		t.Errorf("stdout should include the artifact path, got %q", out)
	}
}

func TestRunBuild_FlagsBeatConfig(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.config.cfg = &config.Config{
		ContainerEngine: config.ContainerEnginePodman,
		Build: config.BuildConfig{
			User:          "cfguser",
			OutputDir:     "/cfg/out",
			RebuildPolicy: config.RebuildPolicyNever,
		},
		UI: config.UIConfig{ColorScheme: config.ColorSchemeAuto},
	}

	in := buildInputs{
		tool:        "terraform",
		pluginURL:   "https://example.com/asdf-terraform.git",
		toolVersion: "1.5.7",
		outputDir:   "/flag/out",
		user:        "builder",
	}
	if err := runBuild(t.Context(), ta.app, in); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	req := ta.builds.lastReq.Pipeline
	if req.PluginURL != in.pluginURL {
		t.Errorf("PluginURL = %q, want %q", req.PluginURL, in.pluginURL)
	}
	if req.Version != "1.5.7" {
		t.Errorf("Version = %q, want 1.5.7", req.Version)
	}
	if req.OutputDir != "/flag/out" {
		t.Errorf("OutputDir = %q, want the flag value", req.OutputDir)
	}
	if req.User != "builder" {
		t.Errorf("User = %q, want the flag value", req.User)
	}

	if ta.engines.lastPreferred != config.ContainerEnginePodman {
		t.Errorf("preferred engine = %q, want the configured podman", ta.engines.lastPreferred)
	}
}

func TestRunBuild_EngineOverride(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.config.cfg = config.DefaultConfig()
	ta.config.cfg.ContainerEngine = config.ContainerEnginePodman

	in := buildInputs{tool: "nodejs", engineName: "docker"}
	if err := runBuild(t.Context(), ta.app, in); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	if ta.engines.lastPreferred != config.ContainerEngineDocker {
		t.Errorf("preferred engine = %q, want the --engine override docker", ta.engines.lastPreferred)
	}
}

func TestRunBuild_InvalidEngineOverride(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs", engineName: "qemu"})
	if !errors.Is(err, config.ErrInvalidContainerEngine) {
		t.Fatalf("error = %v, want ErrInvalidContainerEngine", err)
	}
	if ta.engines.calls != 0 {
		t.Error("no engine should be resolved for an invalid override")
	}
	if ta.envs.ensureCalls != 0 {
		t.Error("no environment work should happen for an invalid override")
	}
}

func TestRunBuild_InvalidToolName(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	err := runBuild(t.Context(), ta.app, buildInputs{tool: "NODEJS!"})
	if !errors.Is(err, pipeline.ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
	if ta.engines.calls != 0 || ta.envs.ensureCalls != 0 || ta.builds.calls != 0 {
		t.Error("request validation should fail before any service call")
	}
}

func TestRunBuild_EngineUnavailable(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.engines.err = &container.EngineUnavailableError{
		Engine: container.EngineTypeDocker,
		Reason: "docker is not installed",
	}

	err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs"})
	if !errors.Is(err, container.ErrEngineUnavailable) {
		t.Fatalf("error = %v, want ErrEngineUnavailable", err)
	}
	if ta.envs.ensureCalls != 0 {
		t.Error("no environment work should happen without an engine")
	}
	if ta.stderr.Len() == 0 {
		t.Error("the engine guidance card should be rendered to stderr")
	}
}

func TestRunBuild_EnsureFailure(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.envs.ensureErr = &provision.EnvironmentBuildError{
		Ref:   "asdf-to-deb:2025-06-15-12-00-00",
		Cause: errors.New("network unreachable"),
	}

	err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs"})
	if !errors.Is(err, provision.ErrEnvironmentBuild) {
		t.Fatalf("error = %v, want ErrEnvironmentBuild", err)
	}
	if ta.builds.calls != 0 {
		t.Error("no build should start without an environment")
	}
	if ta.stderr.Len() == 0 {
		t.Error("the environment guidance card should be rendered to stderr")
	}
}

func TestRunBuild_RebuildBase(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	if err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs", rebuildBase: true}); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}
	if !ta.envs.lastEnsureOpts.ForceRebuild {
		t.Error("--rebuild-base should force an environment rebuild")
	}
}

func TestRunBuild_Skip(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.builds.result = &pipeline.Result{
		Tool:         "nodejs",
		Version:      "20.1.0",
		ArtifactPath: "out/nodejs_20.1.0_amd64.deb",
		Skipped:      true,
	}

	if err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs"}); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, "skipping build") {
		t.Errorf("stdout should announce the skip, got %q", out)
	}
	if !strings.Contains(out, "out/nodejs_20.1.0_amd64.deb") {
		t.Errorf("stdout should include the existing artifact path, got %q", out)
	}
	if strings.Contains(out, "Created") {
		t.Errorf("a skipped build must not claim creation, got %q", out)
	}
}

func TestRunBuild_StepFailure(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.builds.err = &pipeline.StepError{
		Step:     pipeline.StepInstall,
		ExitCode: 2,
		Stderr:   "Download failed: connection reset",
	}

	err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs"})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.Code != 2 {
		t.Errorf("exit code = %d, want the remote status 2", exitErr.Code)
	}
	if !errors.Is(err, pipeline.ErrRemoteCommand) {
		t.Error("the step error should stay reachable through the exit error")
	}

	serr := ta.stderr.String()
	if !strings.Contains(serr, "step install") {
		t.Errorf("stderr should name the failing step, got %q", serr)
	}
	if !strings.Contains(serr, "Download failed: connection reset") {
		t.Errorf("stderr should include the remote stderr verbatim, got %q", serr)
	}
}

func TestRunBuild_SandboxCreateFailure(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.builds.err = &sandbox.SandboxCreateError{
		Name:  "asdf-to-deb-nodejs",
		Cause: errors.New("name already in use"),
	}

	err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs"})
	if !errors.Is(err, sandbox.ErrSandboxCreate) {
		t.Fatalf("error = %v, want ErrSandboxCreate", err)
	}
	if ta.stderr.Len() == 0 {
		t.Error("the sandbox guidance card should be rendered to stderr")
	}
}

func TestRunBuild_CopyOutFailure(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.builds.err = &pipeline.CopyOutError{
		ArtifactPath: "out/nodejs_20.1.0_amd64.deb",
		Cause:        errors.New("no space left on device"),
	}

	err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs"})
	if !errors.Is(err, pipeline.ErrCopyOut) {
		t.Fatalf("error = %v, want ErrCopyOut", err)
	}
	if ta.stderr.Len() == 0 {
		t.Error("the copy-out guidance card should be rendered to stderr")
	}
}

func TestRunBuild_VerboseOutput(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	if err := runBuild(t.Context(), ta.app, buildInputs{tool: "nodejs", verbose: true}); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, "Using docker engine") {
		t.Errorf("verbose output should name the engine, got %q", out)
	}
	if !strings.Contains(out, "Building 'nodejs'") {
		t.Errorf("verbose output should announce the build, got %q", out)
	}
	if !strings.Contains(out, "asdf-to-deb:2025-06-15-12-00-00") {
		t.Errorf("verbose output should name the base environment, got %q", out)
	}
}

func TestConfirmFuncFor(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{
		Stdin:  strings.NewReader(""),
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	})

	if confirm := confirmFuncFor(config.RebuildPolicyNever, false, app); confirm != nil {
		t.Error("policy never should disable the prompt")
	}
	// --yes cannot force a rebuild under "never": there is no question to affirm.
	if confirm := confirmFuncFor(config.RebuildPolicyNever, true, app); confirm != nil {
		t.Error("policy never should disable the prompt even with --yes")
	}

	if confirm := confirmFuncFor(config.RebuildPolicyAlways, false, app); confirm == nil || !confirm("rebuild?") {
		t.Error("policy always should affirm without asking")
	}
	if confirm := confirmFuncFor(config.RebuildPolicyAsk, true, app); confirm == nil || !confirm("rebuild?") {
		t.Error("--yes should affirm the ask policy's question")
	}

	// Under ask without --yes, the empty stdin answers no.
	if confirm := confirmFuncFor(config.RebuildPolicyAsk, false, app); confirm == nil || confirm("rebuild?") {
		t.Error("policy ask should consult the terminal and read no from EOF")
	}
}

func TestInteractiveConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "lowercase y", input: "y\n", want: true},
		{name: "yes", input: "yes\n", want: true},
		{name: "uppercase", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty line", input: "\n", want: false},
		{name: "eof", input: "", want: false},
		{name: "eof after answer", input: "y", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			confirm := interactiveConfirm(strings.NewReader(tt.input), &out)

			if got := confirm("Rebuild base environment?"); got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "[y/N]") {
				t.Errorf("the prompt should show the default, got %q", out.String())
			}
		})
	}
}

func TestRenderBuildFailure_PlainError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	plainErr := errors.New("something else")

	if got := renderBuildFailure(&buf, plainErr); got != plainErr {
		t.Errorf("plain errors should pass through unchanged, got %v", got)
	}
	if buf.Len() != 0 {
		t.Errorf("plain errors should render no card, got %q", buf.String())
	}
}
