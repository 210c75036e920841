// SPDX-License-Identifier: MPL-2.0

// Package container provides a unified abstraction layer for container engines (Docker/Podman).
//
// The Engine interface defines the core operations: Build, Run, Exec, CopyFrom, Remove, and
// the image queries (ImageExists, ImageTags, ImageCreatedAt, RemoveImage). Two implementations
// are provided: DockerEngine and PodmanEngine, both embedding BaseCLIEngine for shared CLI
// argument construction and command execution.
//
// Every operation shells out to the engine's own CLI binary; nothing here speaks to a daemon
// API directly. That keeps Docker and Podman on one code path and lets processes confined by
// Flatpak or Snap reach the host engine through the spawn portal.
//
// Engine selection uses NewEngine(EngineType) with automatic fallback if the preferred engine
// is unavailable, or AutoDetectEngine() for preference-less detection (Docker is tried first).
package container
