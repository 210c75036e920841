// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"asdf2deb/internal/config"
	"asdf2deb/internal/container"
	"asdf2deb/internal/pipeline"
	"asdf2deb/internal/provision"
)

// stubEngine satisfies container.Engine for handlers that only need an
// engine value to pass along. Service fakes never invoke it.
type stubEngine struct {
	name string
}

var _ container.Engine = (*stubEngine)(nil)

func (e *stubEngine) Name() string       { return e.name }
func (e *stubEngine) BinaryPath() string { return "/usr/bin/" + e.name }
func (e *stubEngine) Available() bool    { return true }

func (e *stubEngine) Version(context.Context) (string, error) { return "stub", nil }

func (e *stubEngine) Build(context.Context, container.BuildOptions) error { return nil }

func (e *stubEngine) Run(context.Context, container.RunOptions) (string, error) { return "", nil }

func (e *stubEngine) Exec(context.Context, container.ContainerName, []string) (*container.ExecResult, error) {
	return &container.ExecResult{}, nil
}

func (e *stubEngine) CopyFrom(context.Context, container.ContainerName, container.ContainerFilesystemPath, container.HostFilesystemPath) error {
	return nil
}

func (e *stubEngine) Remove(context.Context, container.ContainerName, bool) error { return nil }

func (e *stubEngine) ImageExists(context.Context, container.ImageRef) (bool, error) {
	return false, nil
}

func (e *stubEngine) ImageTags(context.Context, string) ([]string, error) { return nil, nil }

func (e *stubEngine) ImageCreatedAt(context.Context, container.ImageRef) (time.Time, error) {
	return time.Time{}, nil
}

func (e *stubEngine) RemoveImage(context.Context, container.ImageRef, bool) error { return nil }

type fakeConfigProvider struct {
	cfg      *config.Config
	err      error
	lastOpts config.LoadOptions
}

func (p *fakeConfigProvider) Load(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
	p.lastOpts = opts
	if p.err != nil {
		return nil, p.err
	}
	if p.cfg != nil {
		return p.cfg, nil
	}
	return config.DefaultConfig(), nil
}

type fakeEngineProvider struct {
	engine        container.Engine
	err           error
	calls         int
	lastPreferred config.ContainerEngine
}

func (p *fakeEngineProvider) Resolve(_ context.Context, preferred config.ContainerEngine) (container.Engine, error) {
	p.calls++
	p.lastPreferred = preferred
	if p.err != nil {
		return nil, p.err
	}
	return p.engine, nil
}

type fakeEnvironmentService struct {
	env     *provision.Environment
	envs    []*provision.Environment
	removed []*provision.Environment

	buildErr  error
	listErr   error
	pruneErr  error
	ensureErr error

	buildCalls  int
	ensureCalls int

	lastEnsureOpts provision.EnsureOptions
	lastKeepLatest bool
}

func (s *fakeEnvironmentService) Build(_ context.Context, _ EnvironmentRequest) (*provision.Environment, error) {
	s.buildCalls++
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	return s.env, nil
}

func (s *fakeEnvironmentService) List(_ context.Context, _ EnvironmentRequest) ([]*provision.Environment, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.envs, nil
}

func (s *fakeEnvironmentService) Prune(_ context.Context, _ EnvironmentRequest, keepLatest bool) ([]*provision.Environment, error) {
	s.lastKeepLatest = keepLatest
	return s.removed, s.pruneErr
}

func (s *fakeEnvironmentService) Ensure(_ context.Context, _ EnvironmentRequest, opts provision.EnsureOptions) (*provision.Environment, error) {
	s.ensureCalls++
	s.lastEnsureOpts = opts
	if s.ensureErr != nil {
		return nil, s.ensureErr
	}
	return s.env, nil
}

type fakeBuildService struct {
	result  *pipeline.Result
	err     error
	calls   int
	lastReq BuildRequest
}

func (s *fakeBuildService) Build(_ context.Context, req BuildRequest) (*pipeline.Result, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testEnvironment() *provision.Environment {
	return &provision.Environment{
		Repository: provision.ImageRepository,
		Tag:        "2025-06-15-12-00-00",
		CreatedAt:  time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

// testApp bundles an App built entirely from fakes with handles to every
// fake and both output buffers.
type testApp struct {
	app     *App
	config  *fakeConfigProvider
	engines *fakeEngineProvider
	envs    *fakeEnvironmentService
	builds  *fakeBuildService
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	ta := &testApp{
		config:  &fakeConfigProvider{},
		engines: &fakeEngineProvider{engine: &stubEngine{name: "docker"}},
		envs:    &fakeEnvironmentService{env: testEnvironment()},
		builds: &fakeBuildService{result: &pipeline.Result{
			Tool:         "nodejs",
			Version:      "20.1.0",
			ArtifactPath: "out/nodejs_20.1.0_amd64.deb",
		}},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}

	ta.app = NewApp(Dependencies{
		Config:       ta.config,
		Engines:      ta.engines,
		Environments: ta.envs,
		Builds:       ta.builds,
		Stdin:        strings.NewReader(""),
		Stdout:       ta.stdout,
		Stderr:       ta.stderr,
	})
	return ta
}

func TestNewApp_Defaults(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{})

	if app.Config == nil {
		t.Error("Config should have a production default")
	}
	if app.Engines == nil {
		t.Error("Engines should have a production default")
	}
	if app.Environments == nil {
		t.Error("Environments should have a production default")
	}
	if app.Builds == nil {
		t.Error("Builds should have a production default")
	}
	if app.stdin != os.Stdin {
		t.Error("stdin should default to os.Stdin")
	}
	if app.stdout != os.Stdout {
		t.Error("stdout should default to os.Stdout")
	}
	if app.stderr != os.Stderr {
		t.Error("stderr should default to os.Stderr")
	}
}

func TestNewApp_InjectedDependencies(t *testing.T) {
	t.Parallel()

	provider := &fakeConfigProvider{}
	engines := &fakeEngineProvider{}
	envs := &fakeEnvironmentService{}
	builds := &fakeBuildService{}

	app := NewApp(Dependencies{
		Config:       provider,
		Engines:      engines,
		Environments: envs,
		Builds:       builds,
	})

	if app.Config != provider {
		t.Error("injected ConfigProvider was replaced")
	}
	if app.Engines != engines {
		t.Error("injected EngineProvider was replaced")
	}
	if app.Environments != envs {
		t.Error("injected EnvironmentService was replaced")
	}
	if app.Builds != builds {
		t.Error("injected BuildService was replaced")
	}
}

func TestNewRunLogger_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	quiet := newRunLogger(&buf, false)
	quiet.Debug("hidden")
	quiet.Info("shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("default level should pass info but not debug, got %q", out)
	}

	buf.Reset()
	loud := newRunLogger(&buf, true)
	loud.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("verbose level should pass debug, got %q", buf.String())
	}
}
