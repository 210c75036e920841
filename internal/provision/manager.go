// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"asdf2deb/internal/container"
)

// ErrEnvironmentBuild is the sentinel error wrapped by EnvironmentBuildError.
var ErrEnvironmentBuild = errors.New("base environment build failed")

type (
	// ConfirmFunc answers a yes/no question put to whoever drives the
	// manager: an interactive prompt in the CLI, a fixed answer in
	// automation.
	ConfirmFunc func(prompt string) bool

	// EnsureOptions controls how Ensure chooses between reusing and
	// rebuilding.
	EnsureOptions struct {
		// ForceRebuild builds a fresh environment even when a usable one
		// exists.
		ForceRebuild bool
		// Confirm is consulted when the latest environment is stale. Nil
		// keeps the stale environment.
		Confirm ConfirmFunc
	}

	// EnvironmentBuildError is returned when building a base environment
	// fails. It wraps ErrEnvironmentBuild for errors.Is(); the underlying
	// failure is in Cause.
	EnvironmentBuildError struct {
		Ref   container.ImageRef
		Cause error
	}

	// Manager builds and inventories base environments through a container
	// engine. The engine's local image store is the only state; the manager
	// itself keeps none.
	Manager struct {
		engine      container.Engine
		recipe      Recipe
		clock       func() time.Time
		buildOutput io.Writer
		logger      *log.Logger
	}

	// ManagerOption configures a Manager.
	ManagerOption func(*Manager)
)

// Error implements the error interface for EnvironmentBuildError.
func (e *EnvironmentBuildError) Error() string {
	return fmt.Sprintf("building base environment %s: %v", e.Ref, e.Cause)
}

// Unwrap returns ErrEnvironmentBuild for errors.Is() compatibility.
func (e *EnvironmentBuildError) Unwrap() error { return ErrEnvironmentBuild }

// NewManager creates a Manager that builds with the default recipe, the wall
// clock, and engine build progress streamed to stderr.
func NewManager(engine container.Engine, opts ...ManagerOption) *Manager {
	m := &Manager{
		engine:      engine,
		recipe:      DefaultRecipe(),
		clock:       time.Now,
		buildOutput: os.Stderr,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithRecipe overrides the environment recipe.
func WithRecipe(recipe Recipe) ManagerOption {
	return func(m *Manager) { m.recipe = recipe }
}

// WithClock overrides the time source used for minting tags and judging
// staleness.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) { m.clock = clock }
}

// WithBuildOutput redirects engine build progress.
func WithBuildOutput(w io.Writer) ManagerOption {
	return func(m *Manager) { m.buildOutput = w }
}

// WithLogger sets the logger used for environment lifecycle tracing.
// A nil logger disables tracing.
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// Build creates a fresh environment under a new timestamp tag. Existing
// environments are never reused or overwritten; every call produces a new
// image. Failures wrap ErrEnvironmentBuild.
func (m *Manager) Build(ctx context.Context) (*Environment, error) {
	start := m.clock()
	env := &Environment{
		Repository: ImageRepository,
		Tag:        start.Format(TagLayout),
		CreatedAt:  start,
	}

	buildCtx, cleanup, err := m.prepareBuildContext()
	if err != nil {
		return nil, &EnvironmentBuildError{Ref: env.Ref(), Cause: err}
	}
	defer cleanup()

	if m.logger != nil {
		m.logger.Info("building base environment", "ref", env.Ref())
	}

	buildOpts := container.BuildOptions{
		ContextDir: buildCtx,
		Dockerfile: "Dockerfile",
		Tag:        env.Ref(),
		Stdout:     m.buildOutput,
		Stderr:     m.buildOutput,
	}
	if err := m.engine.Build(ctx, buildOpts); err != nil {
		return nil, &EnvironmentBuildError{Ref: env.Ref(), Cause: err}
	}

	// Engine metadata is the source of truth for CreatedAt.
	if createdAt, err := m.engine.ImageCreatedAt(ctx, env.Ref()); err == nil {
		env.CreatedAt = createdAt
	}

	return env, nil
}

// Latest returns the newest environment, or (nil, nil) when none has been
// built yet.
func (m *Manager) Latest(ctx context.Context) (*Environment, error) {
	tags, err := m.environmentTags(ctx)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}

	// Zero-padded timestamp tags make the lexicographic maximum the newest.
	return m.environmentForTag(ctx, slices.Max(tags))
}

// List returns every environment in the repository, newest first.
func (m *Manager) List(ctx context.Context) ([]*Environment, error) {
	tags, err := m.environmentTags(ctx)
	if err != nil {
		return nil, err
	}
	slices.Sort(tags)
	slices.Reverse(tags)

	envs := make([]*Environment, 0, len(tags))
	for _, tag := range tags {
		env, err := m.environmentForTag(ctx, tag)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// Ensure returns an environment ready to open sandboxes from: the latest one
// when it is usable, a fresh build when none exists, when ForceRebuild is
// set, or when the latest is stale and Confirm agrees to replace it. A stale
// environment that Confirm keeps is returned as is.
func (m *Manager) Ensure(ctx context.Context, opts EnsureOptions) (*Environment, error) {
	if opts.ForceRebuild {
		return m.Build(ctx)
	}

	latest, err := m.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return m.Build(ctx)
	}

	if latest.IsStale(m.clock()) && opts.Confirm != nil {
		prompt := fmt.Sprintf("Base environment %s is older than a week. Rebuild?", latest.Ref())
		if opts.Confirm(prompt) {
			return m.Build(ctx)
		}
	}

	if m.logger != nil {
		m.logger.Debug("reusing base environment", "ref", latest.Ref())
	}
	return latest, nil
}

// Prune removes environments from the engine's image store. With keepLatest
// set the newest environment survives; otherwise everything goes. The
// returned slice holds what was removed, including removals that happened
// before a failure.
func (m *Manager) Prune(ctx context.Context, keepLatest bool) ([]*Environment, error) {
	envs, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	victims := envs
	if keepLatest && len(envs) > 0 {
		victims = envs[1:]
	}

	removed := make([]*Environment, 0, len(victims))
	for _, env := range victims {
		if err := m.engine.RemoveImage(ctx, env.Ref(), false); err != nil {
			return removed, fmt.Errorf("removing environment %s: %w", env.Ref(), err)
		}
		removed = append(removed, env)
		if m.logger != nil {
			m.logger.Debug("removed base environment", "ref", env.Ref())
		}
	}
	return removed, nil
}

// environmentTags lists the repository's tags, keeping only the ones minted
// by Build. Dangling "<none>" entries and any manually tagged images in the
// repository are not environments and would corrupt newest-tag selection.
func (m *Manager) environmentTags(ctx context.Context) ([]string, error) {
	raw, err := m.engine.ImageTags(ctx, ImageRepository)
	if err != nil {
		return nil, fmt.Errorf("listing %s images: %w", ImageRepository, err)
	}

	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		if _, err := ParseTag(tag); err == nil {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// environmentForTag resolves a tag into an Environment by reading the
// creation time from the image metadata.
func (m *Manager) environmentForTag(ctx context.Context, tag string) (*Environment, error) {
	env := &Environment{Repository: ImageRepository, Tag: tag}

	createdAt, err := m.engine.ImageCreatedAt(ctx, env.Ref())
	if err != nil {
		return nil, fmt.Errorf("inspecting environment %s: %w", env.Ref(), err)
	}
	env.CreatedAt = createdAt

	return env, nil
}

// prepareBuildContext creates a temporary directory holding the rendered
// Dockerfile and returns it with a cleanup function.
//
// Docker installed via Snap cannot read /tmp (separate namespace) or hidden
// directories in $HOME (home interface restriction), so the context lives in
// a visible directory under the home directory when one exists.
func (m *Manager) prepareBuildContext() (dir container.HostFilesystemPath, cleanup func(), err error) {
	var parent string
	if home, homeErr := os.UserHomeDir(); homeErr == nil {
		if _, statErr := os.Stat(home); statErr == nil {
			parent = filepath.Join(home, "asdf2deb-build")
		}
	}
	if parent == "" {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			parent = filepath.Join(cwd, ".asdf2deb-build")
		} else {
			parent = filepath.Join(os.TempDir(), "asdf2deb-build")
		}
	}

	if mkdirErr := os.MkdirAll(parent, 0o755); mkdirErr != nil {
		return "", nil, fmt.Errorf("failed to create build context parent directory: %w", mkdirErr)
	}

	tmpDir, err := os.MkdirTemp(parent, "env-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create build context directory: %w", err)
	}

	cleanup = func() {
		_ = os.RemoveAll(tmpDir) // Cleanup temp dir; error non-critical
	}

	dockerfilePath := filepath.Join(tmpDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(m.recipe.Render()), 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	return container.HostFilesystemPath(tmpDir), cleanup, nil
}
