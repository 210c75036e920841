// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os/exec"
)

// PodmanEngine implements the Engine interface using the Podman CLI.
// It embeds BaseCLIEngine for all shared operations; only availability
// probing and image existence differ from Docker.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := exec.LookPath("podman")

	allOpts := append([]BaseCLIEngineOption{WithName(string(EngineTypePodman))}, opts...)

	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(HostFilesystemPath(path), allOpts...),
	}
}

// Available checks if Podman is available. Podman is daemonless, so the
// client version probe is sufficient.
func (e *PodmanEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "version", "--format", "{{.Version}}")
	return cmd.Run() == nil
}

// Version returns the Podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommand(ctx, "version", "--format", "{{.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return out, nil
}

// ImageExists checks if an image exists locally using Podman's dedicated
// existence subcommand.
func (e *PodmanEngine) ImageExists(ctx context.Context, image ImageRef) (bool, error) {
	if err := image.Validate(); err != nil {
		return false, err
	}
	err := e.RunCommandStatus(ctx, "image", "exists", string(image))
	return err == nil, nil
}
