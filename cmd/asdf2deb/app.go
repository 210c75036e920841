// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"asdf2deb/internal/config"
	"asdf2deb/internal/container"
	"asdf2deb/internal/issue"
	"asdf2deb/internal/pipeline"
	"asdf2deb/internal/provision"
	"asdf2deb/internal/sandbox"
	"asdf2deb/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: all Cobra command handlers receive an App reference and
	// delegate business logic through its service interfaces.
	App struct {
		Config       ConfigProvider
		Engines      EngineProvider
		Environments EnvironmentService
		Builds       BuildService
		stdin        io.Reader
		stdout       io.Writer
		stderr       io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp. Tests can supply mock implementations
	// to isolate specific service behavior.
	Dependencies struct {
		Config       ConfigProvider
		Engines      EngineProvider
		Environments EnvironmentService
		Builds       BuildService
		Stdin        io.Reader
		Stdout       io.Writer
		Stderr       io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources or mock implementations.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// EngineProvider resolves the container engine for one invocation. The
	// choice can change between invocations (--engine flag, config), so
	// nothing engine-bound is cached on the App.
	EngineProvider interface {
		Resolve(ctx context.Context, preferred config.ContainerEngine) (container.Engine, error)
	}

	// EnvironmentRequest carries the per-invocation dependencies of an
	// environment operation: the resolved engine and the run logger.
	EnvironmentRequest struct {
		Engine container.Engine
		Logger *log.Logger
	}

	// EnvironmentService manages base build environments.
	EnvironmentService interface {
		Build(ctx context.Context, req EnvironmentRequest) (*provision.Environment, error)
		List(ctx context.Context, req EnvironmentRequest) ([]*provision.Environment, error)
		Prune(ctx context.Context, req EnvironmentRequest, keepLatest bool) ([]*provision.Environment, error)
		Ensure(ctx context.Context, req EnvironmentRequest, opts provision.EnsureOptions) (*provision.Environment, error)
	}

	// BuildRequest captures all package build inputs as an immutable value.
	// It is the request-scoped data contract between the CLI layer (Cobra handlers)
	// and the BuildService implementation.
	BuildRequest struct {
		// Engine is the container engine resolved for this invocation.
		Engine container.Engine
		// Logger receives build progress; nil disables it.
		Logger *log.Logger
		// Environment is the base environment the sandbox starts from.
		Environment *provision.Environment
		// Pipeline describes the package build itself.
		Pipeline pipeline.Request
	}

	// BuildService runs package builds and returns structured results.
	// Implementations must not write directly to stdout; outcomes are
	// returned for the CLI layer to render.
	BuildService interface {
		Build(ctx context.Context, req BuildRequest) (*pipeline.Result, error)
	}

	// defaultEngineProvider constructs real engines from the CLI binaries on
	// the host, with the cross-engine fallback container.NewEngine applies.
	defaultEngineProvider struct{}

	// appEnvironmentService implements EnvironmentService over per-call
	// provision.Managers. A manager keeps no state outside the engine's
	// image store, so each call builds a fresh one around the request's
	// engine and logger.
	appEnvironmentService struct {
		buildOutput io.Writer
	}

	// appBuildService implements BuildService by running the package
	// pipeline over a per-call sandbox manager.
	appBuildService struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Engines == nil {
		deps.Engines = defaultEngineProvider{}
	}
	if deps.Environments == nil {
		deps.Environments = &appEnvironmentService{buildOutput: deps.Stderr}
	}
	if deps.Builds == nil {
		deps.Builds = &appBuildService{}
	}

	return &App{
		Config:       deps.Config,
		Engines:      deps.Engines,
		Environments: deps.Environments,
		Builds:       deps.Builds,
		stdin:        deps.Stdin,
		stdout:       deps.Stdout,
		stderr:       deps.Stderr,
	}
}

// Resolve returns the preferred engine, or the other CLI when the preferred
// one is not installed. An empty preference auto-detects.
func (defaultEngineProvider) Resolve(_ context.Context, preferred config.ContainerEngine) (container.Engine, error) {
	if preferred == "" {
		return container.AutoDetectEngine()
	}
	return container.NewEngine(container.EngineType(preferred))
}

func (s *appEnvironmentService) manager(req EnvironmentRequest) *provision.Manager {
	return provision.NewManager(req.Engine,
		provision.WithBuildOutput(s.buildOutput),
		provision.WithLogger(req.Logger))
}

// Build creates a fresh base environment.
func (s *appEnvironmentService) Build(ctx context.Context, req EnvironmentRequest) (*provision.Environment, error) {
	return s.manager(req).Build(ctx)
}

// List returns every base environment, newest first.
func (s *appEnvironmentService) List(ctx context.Context, req EnvironmentRequest) ([]*provision.Environment, error) {
	return s.manager(req).List(ctx)
}

// Prune removes base environments, keeping the newest when keepLatest is set.
func (s *appEnvironmentService) Prune(ctx context.Context, req EnvironmentRequest, keepLatest bool) ([]*provision.Environment, error) {
	return s.manager(req).Prune(ctx, keepLatest)
}

// Ensure returns a usable base environment, building one when needed.
func (s *appEnvironmentService) Ensure(ctx context.Context, req EnvironmentRequest, opts provision.EnsureOptions) (*provision.Environment, error) {
	return s.manager(req).Ensure(ctx, opts)
}

// Build runs the package pipeline in a fresh sandbox.
func (s *appBuildService) Build(ctx context.Context, req BuildRequest) (*pipeline.Result, error) {
	sandboxes := sandbox.NewManager(req.Engine, sandbox.WithLogger(req.Logger))
	builder := pipeline.NewBuilder(sandboxes, pipeline.WithLogger(req.Logger))
	return builder.Build(ctx, req.Environment, req.Pipeline)
}

// newRunLogger builds the logger handed to every component of one command
// run. Debug level tracks the --verbose flag; components receiving the
// logger never consult flags or globals themselves.
func newRunLogger(w io.Writer, verboseMode bool) *log.Logger {
	logger := log.New(w)
	if verboseMode {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// loadConfigOrDefaults loads configuration through the App's provider. A
// missing default config file is not an error, and a broken one falls back
// to defaults with a warning so commands stay usable. An explicit --config
// path must load or the command aborts.
func loadConfigOrDefaults(ctx context.Context, app *App, verboseMode bool) (*config.Config, error) {
	opts := config.LoadOptions{}
	if cfgFile != "" {
		opts.ConfigFilePath = types.FilesystemPath(cfgFile)
	}

	cfg, err := app.Config.Load(ctx, opts)
	if err == nil {
		return cfg, nil
	}
	if cfgFile != "" {
		renderIssue(app.stderr, issue.ConfigLoadFailedId)
		return nil, err
	}

	fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verboseMode))
	return config.DefaultConfig(), nil
}

// resolveEngine picks the container engine for this invocation: the --engine
// override when given, the configured engine otherwise. Unavailability is
// rendered as an issue card before the error returns.
func resolveEngine(ctx context.Context, app *App, cfg *config.Config, override string) (container.Engine, error) {
	preferred := cfg.ContainerEngine
	if override != "" {
		preferred = config.ContainerEngine(override)
		if isValid, errs := preferred.IsValid(); !isValid {
			return nil, errs[0]
		}
	}

	engine, err := app.Engines.Resolve(ctx, preferred)
	if err != nil {
		renderIssue(app.stderr, issue.ContainerEngineNotFoundId)
		return nil, err
	}
	return engine, nil
}

// renderIssue prints an issue catalog card to the given writer.
func renderIssue(w io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}

	rendered, err := entry.Render("dark")
	if err != nil {
		// The raw markdown is still better guidance than nothing.
		rendered = string(entry.MarkdownMsg())
	}
	fmt.Fprint(w, rendered)
}
