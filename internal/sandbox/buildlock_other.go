// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package sandbox

import (
	"sync"

	"asdf2deb/pkg/types"
)

// Per-tool mutexes for platforms without flock. Serialization is
// process-local only; separate processes building the same tool are not
// coordinated here.
var (
	buildLocksMu sync.Mutex
	buildLocks   = make(map[types.ToolName]*sync.Mutex)
)

// buildLock holds the process-local named mutex for one tool.
type buildLock struct {
	mu *sync.Mutex
}

// acquireBuildLock blocks until the calling goroutine holds the build lock
// for the tool.
func acquireBuildLock(tool types.ToolName) (*buildLock, error) {
	buildLocksMu.Lock()
	mu, ok := buildLocks[tool]
	if !ok {
		mu = &sync.Mutex{}
		buildLocks[tool] = mu
	}
	buildLocksMu.Unlock()

	mu.Lock()
	return &buildLock{mu: mu}, nil
}

// Release unlocks the named mutex. Safe to call multiple times; subsequent
// calls are no-ops.
func (l *buildLock) Release() error {
	if l == nil || l.mu == nil {
		return nil
	}
	l.mu.Unlock()
	l.mu = nil
	return nil
}
