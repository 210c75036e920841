// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os/exec"
)

// DockerEngine implements the Engine interface using the Docker CLI.
// It embeds BaseCLIEngine for all shared operations; only availability
// probing and image existence differ from Podman.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a new Docker engine.
func NewDockerEngine(opts ...BaseCLIEngineOption) *DockerEngine {
	path, _ := exec.LookPath("docker")

	allOpts := append([]BaseCLIEngineOption{WithName(string(EngineTypeDocker))}, opts...)

	return &DockerEngine{
		BaseCLIEngine: NewBaseCLIEngine(HostFilesystemPath(path), allOpts...),
	}
}

// Available checks if Docker is available. Querying the server version
// confirms both that the binary runs and that the daemon is reachable.
func (e *DockerEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "version", "--format", "{{.Server.Version}}")
	return cmd.Run() == nil
}

// Version returns the Docker server version.
func (e *DockerEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommand(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get docker version: %w", err)
	}
	return out, nil
}

// ImageExists checks if an image exists locally. Docker has no dedicated
// existence subcommand, so a metadata inspect stands in for one.
func (e *DockerEngine) ImageExists(ctx context.Context, image ImageRef) (bool, error) {
	if err := image.Validate(); err != nil {
		return false, err
	}
	err := e.RunCommandStatus(ctx, "image", "inspect", string(image))
	return err == nil, nil
}
