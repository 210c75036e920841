// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"asdf2deb/pkg/types"
)

const (
	// EngineTypeDocker uses the Docker CLI.
	EngineTypeDocker EngineType = "docker"
	// EngineTypePodman uses the Podman CLI.
	EngineTypePodman EngineType = "podman"
)

// ErrEngineUnavailable is the sentinel error wrapped by EngineUnavailableError.
var ErrEngineUnavailable = errors.New("container engine unavailable")

type (
	// EngineType identifies the container engine CLI to drive.
	EngineType string

	// Engine is the contract every container backend satisfies. All operations
	// are argv-vector invocations of the engine's CLI binary; nothing here talks
	// to a daemon API directly, so the same code path serves Docker and Podman.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// BinaryPath returns the resolved path of the engine binary.
		BinaryPath() string
		// Available reports whether the engine binary exists and responds.
		Available() bool
		// Version returns the engine version string.
		Version(ctx context.Context) (string, error)

		// Build builds an image from a Dockerfile in a context directory.
		Build(ctx context.Context, opts BuildOptions) error
		// Run starts a container and returns the engine-reported container ID.
		Run(ctx context.Context, opts RunOptions) (string, error)
		// Exec runs a command in a running container and captures its output.
		// A non-zero remote exit status is reported in ExecResult, not as an
		// error; the error return is reserved for invocation failures.
		Exec(ctx context.Context, container ContainerName, command []string) (*ExecResult, error)
		// CopyFrom copies a path out of a container onto the host.
		CopyFrom(ctx context.Context, container ContainerName, src ContainerFilesystemPath, dst HostFilesystemPath) error
		// Remove removes a container in any state.
		Remove(ctx context.Context, container ContainerName, force bool) error

		// ImageExists checks if an image reference resolves locally.
		ImageExists(ctx context.Context, image ImageRef) (bool, error)
		// ImageTags lists local tags for a repository, one per line of the
		// engine's own listing output.
		ImageTags(ctx context.Context, repository string) ([]string, error)
		// ImageCreatedAt returns the creation timestamp recorded in the
		// image's metadata.
		ImageCreatedAt(ctx context.Context, image ImageRef) (time.Time, error)
		// RemoveImage removes a local image.
		RemoveImage(ctx context.Context, image ImageRef, force bool) error
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory.
		ContextDir HostFilesystemPath
		// Dockerfile is the Dockerfile path, relative to ContextDir.
		// Empty means the engine's default lookup inside the context.
		Dockerfile HostFilesystemPath
		// Tag is the image reference to tag the result with.
		Tag ImageRef
		// NoCache disables the build cache.
		NoCache bool
		// Stdout is where build progress is streamed.
		Stdout io.Writer
		// Stderr is where build diagnostics are streamed.
		Stderr io.Writer
	}

	// RunOptions contains options for starting a container.
	RunOptions struct {
		// Image is the image reference to run.
		Image ImageRef
		// Name is the container name. Required when Detach is set, since a
		// detached container is only reachable again through its name.
		Name ContainerName
		// Detach starts the container in the background.
		Detach bool
		// User is the uid:gid to run as. Empty means the image default.
		User string
		// CapDrop lists capabilities to drop.
		CapDrop []Capability
		// CapAdd lists capabilities to grant.
		CapAdd []Capability
		// SecurityOpts lists security options (e.g. no-new-privileges).
		SecurityOpts []SecurityOpt
		// Command is the container entrypoint command and its arguments.
		Command []string
	}

	// ExecResult captures the remote outcome of an in-container command.
	ExecResult struct {
		// Stdout is the captured standard output.
		Stdout string
		// Stderr is the captured standard error.
		Stderr string
		// ExitCode is the remote command's exit status.
		ExitCode types.ExitCode
	}

	// EngineUnavailableError is returned when no usable container engine can
	// be constructed. It wraps ErrEngineUnavailable for errors.Is().
	EngineUnavailableError struct {
		Engine EngineType
		Reason string
	}
)

// Success reports whether the remote command exited zero.
func (r *ExecResult) Success() bool { return r.ExitCode.IsSuccess() }

// Error implements the error interface for EngineUnavailableError.
func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("container engine %q is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrEngineUnavailable for errors.Is() compatibility.
func (e *EngineUnavailableError) Unwrap() error { return ErrEngineUnavailable }

// String returns the string representation of the EngineType.
func (t EngineType) String() string { return string(t) }

// NewEngine creates the preferred container engine, falling back to the other
// CLI when the preferred one is not available on this host.
func NewEngine(preferred EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	switch preferred {
	case EngineTypeDocker:
		docker := NewDockerEngine(opts...)
		if docker.Available() {
			return docker, nil
		}
		podman := NewPodmanEngine(opts...)
		if podman.Available() {
			return podman, nil
		}
		return nil, &EngineUnavailableError{
			Engine: EngineTypeDocker,
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	case EngineTypePodman:
		podman := NewPodmanEngine(opts...)
		if podman.Available() {
			return podman, nil
		}
		docker := NewDockerEngine(opts...)
		if docker.Available() {
			return docker, nil
		}
		return nil, &EngineUnavailableError{
			Engine: EngineTypePodman,
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferred)
	}
}

// AutoDetectEngine finds an available container engine, trying Docker first
// (the engine the packaging recipes were written against), then Podman.
func AutoDetectEngine(opts ...BaseCLIEngineOption) (Engine, error) {
	docker := NewDockerEngine(opts...)
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine(opts...)
	if podman.Available() {
		return podman, nil
	}

	return nil, &EngineUnavailableError{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
