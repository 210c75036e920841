// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"asdf2deb/internal/container"
	"asdf2deb/internal/provision"
	"asdf2deb/pkg/types"
)

// containerNamePrefix is what every sandbox container name starts with.
const containerNamePrefix = "asdf-to-deb-"

var (
	// ErrInvalidOpenOptions is the sentinel error wrapped by InvalidOpenOptionsError.
	ErrInvalidOpenOptions = errors.New("invalid sandbox open options")

	// ErrSandboxCreate is the sentinel error wrapped by SandboxCreateError.
	ErrSandboxCreate = errors.New("sandbox creation failed")
)

type (
	// OpenOptions describes the sandbox to open.
	OpenOptions struct {
		// Tool is the asdf tool the sandbox will build. It names the
		// container and selects the build lock.
		Tool types.ToolName
		// Environment is the base environment the container starts from.
		Environment *provision.Environment
		// User is the host account whose uid:gid the container runs as.
		User string
	}

	// InvalidOpenOptionsError is returned when OpenOptions fail validation.
	// It wraps ErrInvalidOpenOptions for errors.Is().
	InvalidOpenOptionsError struct {
		FieldErrors []error
	}

	// SandboxCreateError is returned when the container for a sandbox cannot
	// be started. It wraps ErrSandboxCreate for errors.Is(); the engine
	// failure is in Cause.
	SandboxCreateError struct {
		Name  container.ContainerName
		Cause error
	}

	// Manager opens sandboxes on a container engine.
	Manager struct {
		engine container.Engine
		lookup LookupFunc
		logger *log.Logger
	}

	// ManagerOption configures a Manager.
	ManagerOption func(*Manager)

	// Sandbox is one running build container. It is bound to the environment
	// it was opened from and holds the per-tool build lock until Close.
	Sandbox struct {
		engine      container.Engine
		name        container.ContainerName
		environment *provision.Environment
		identity    Identity
		lock        *buildLock
		logger      *log.Logger
		closeOnce   sync.Once
	}
)

// Error implements the error interface for InvalidOpenOptionsError.
func (e *InvalidOpenOptionsError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid sandbox open options: %s", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid sandbox open options: %d field errors", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidOpenOptions for errors.Is() compatibility.
func (e *InvalidOpenOptionsError) Unwrap() error { return ErrInvalidOpenOptions }

// Error implements the error interface for SandboxCreateError.
func (e *SandboxCreateError) Error() string {
	return fmt.Sprintf("creating sandbox %s: %v", e.Name, e.Cause)
}

// Unwrap returns ErrSandboxCreate for errors.Is() compatibility.
func (e *SandboxCreateError) Unwrap() error { return ErrSandboxCreate }

// Validate returns an error if the OpenOptions are incomplete.
func (o OpenOptions) Validate() error {
	var errs []error
	if isValid, toolErrs := o.Tool.IsValid(); !isValid {
		errs = append(errs, toolErrs...)
	}
	if o.Environment == nil {
		errs = append(errs, errors.New("environment is required"))
	}
	if strings.TrimSpace(o.User) == "" {
		errs = append(errs, errors.New("build user is required"))
	}
	if len(errs) > 0 {
		return &InvalidOpenOptionsError{FieldErrors: errs}
	}
	return nil
}

// SandboxName returns the container name for a tool's sandbox.
func SandboxName(tool types.ToolName) container.ContainerName {
	return container.ContainerName(containerNamePrefix + tool.String())
}

// NewManager creates a Manager that resolves build users against the local
// identity database.
func NewManager(engine container.Engine, opts ...ManagerOption) *Manager {
	m := &Manager{
		engine: engine,
		lookup: user.Lookup,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithLookup overrides how build user names resolve to numeric identities.
func WithLookup(lookup LookupFunc) ManagerOption {
	return func(m *Manager) { m.lookup = lookup }
}

// WithLogger sets the logger used for sandbox lifecycle tracing.
// A nil logger disables tracing.
func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// Open starts a detached sandbox container for one tool build. The per-tool
// build lock is held from before the container starts until Close, so two
// builds of the same tool never race over a container name. On any failure
// the lock is released and no sandbox exists.
func (m *Manager) Open(ctx context.Context, opts OpenOptions) (*Sandbox, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	name := SandboxName(opts.Tool)

	lock, err := acquireBuildLock(opts.Tool)
	if err != nil {
		return nil, fmt.Errorf("acquiring build lock for %s: %w", opts.Tool, err)
	}

	identity, err := ResolveIdentity(m.lookup, opts.User)
	if err != nil {
		_ = lock.Release() // No sandbox was opened; release error is secondary
		return nil, err
	}

	if m.logger != nil {
		m.logger.Debug("opening sandbox",
			"name", name, "image", opts.Environment.Ref(), "user", identity.String())
	}

	runOpts := container.RunOptions{
		Image:        opts.Environment.Ref(),
		Name:         name,
		Detach:       true,
		User:         identity.String(),
		CapDrop:      privilegePolicy.CapDrop,
		CapAdd:       privilegePolicy.CapAdd,
		SecurityOpts: privilegePolicy.SecurityOpts,
		Command:      loginShellCommand("tail -f /dev/null"),
	}

	if _, err := m.engine.Run(ctx, runOpts); err != nil {
		_ = lock.Release()
		return nil, &SandboxCreateError{Name: name, Cause: err}
	}

	return &Sandbox{
		engine:      m.engine,
		name:        name,
		environment: opts.Environment,
		identity:    identity,
		lock:        lock,
		logger:      m.logger,
	}, nil
}

// Name returns the sandbox's container name.
func (s *Sandbox) Name() container.ContainerName { return s.name }

// Environment returns the base environment the sandbox was opened from.
func (s *Sandbox) Environment() *provision.Environment { return s.environment }

// Identity returns the uid:gid the sandbox runs as.
func (s *Sandbox) Identity() Identity { return s.identity }

// Exec runs a script inside the sandbox through the same .bashrc-sourcing
// bash wrapper the keepalive command uses, so the asdf activation applies.
// A non-zero remote exit status comes back in the result, not as an error;
// callers decide what failure means.
func (s *Sandbox) Exec(ctx context.Context, script *Script) (*container.ExecResult, error) {
	text, err := script.Render()
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("sandbox exec", "name", s.name, "script", text)
	}

	return s.engine.Exec(ctx, s.name, loginShellCommand(text))
}

// CopyOut copies a path from the sandbox filesystem onto the host.
func (s *Sandbox) CopyOut(ctx context.Context, src container.ContainerFilesystemPath, dst container.HostFilesystemPath) error {
	if s.logger != nil {
		s.logger.Debug("sandbox copy out", "name", s.name, "src", src, "dst", dst)
	}
	return s.engine.CopyFrom(ctx, s.name, src, dst)
}

// Close force-removes the container and releases the build lock. Exactly one
// Close takes effect per Open; later calls return nil without touching the
// engine. Removal and release errors are joined so neither masks the other.
func (s *Sandbox) Close(ctx context.Context) error {
	var closeErr error
	s.closeOnce.Do(func() {
		var removeErr error
		if err := s.engine.Remove(ctx, s.name, true); err != nil {
			removeErr = fmt.Errorf("removing sandbox %s: %w", s.name, err)
		}

		var releaseErr error
		if err := s.lock.Release(); err != nil {
			releaseErr = fmt.Errorf("releasing build lock: %w", err)
		}

		closeErr = errors.Join(removeErr, releaseErr)
		if s.logger != nil && closeErr == nil {
			s.logger.Debug("sandbox closed", "name", s.name)
		}
	})
	return closeErr
}

// loginShellCommand wraps script text so the image's .bashrc applies; asdf
// is only activated in shells that sourced it.
func loginShellCommand(text string) []string {
	return []string{"bash", "-c", "source ~/.bashrc && " + text}
}
