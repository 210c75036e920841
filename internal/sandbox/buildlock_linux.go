// SPDX-License-Identifier: MPL-2.0

//go:build linux

package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"asdf2deb/pkg/types"
)

// buildLock holds a blocking exclusive flock on a per-tool file, serializing
// builds of the same tool across processes. The zero-byte lock file is
// harmless if orphaned; the kernel releases the flock when the fd closes,
// including on process crash.
type buildLock struct {
	file *os.File
}

// acquireBuildLock blocks until the calling process holds the exclusive
// build lock for the tool.
func acquireBuildLock(tool types.ToolName) (*buildLock, error) {
	return acquireBuildLockAt(buildLockPath(tool))
}

// acquireBuildLockAt acquires the exclusive flock on a specific path.
func acquireBuildLockAt(lockPath string) (*buildLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", lockPath, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		_ = f.Close() // Lock was never acquired; close error is secondary
		return nil, fmt.Errorf("flock %s: %w", lockPath, err)
	}

	return &buildLock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe to call multiple times;
// subsequent calls are no-ops.
func (l *buildLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	// LOCK_UN before Close for explicitness; Close also releases the flock.
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		return fmt.Errorf("unlock build lock: %w", unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close build lock: %w", closeErr)
	}
	return nil
}

// buildLockPath returns the per-tool lock file path. Prefers
// $XDG_RUNTIME_DIR (per-user tmpfs, auto-cleaned), falls back to
// os.TempDir().
func buildLockPath(tool types.ToolName) string {
	return buildLockPathWith(os.Getenv, tool)
}

// buildLockPathWith computes the lock path using the provided getenv
// function, so tests need not mutate process-global environment state.
func buildLockPathWith(getenv func(string) string, tool types.ToolName) string {
	dir := getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "asdf2deb", fmt.Sprintf("build-%s.lock", tool))
}
