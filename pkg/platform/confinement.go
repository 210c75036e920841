// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

// Confinement type constants.
const (
	// ConfinementNone indicates no application confinement detected.
	ConfinementNone Confinement = ""
	// ConfinementFlatpak indicates a Flatpak application sandbox.
	ConfinementFlatpak Confinement = "flatpak"
	// ConfinementSnap indicates a Snap application sandbox.
	ConfinementSnap Confinement = "snap"
)

// detectOnce caches the confinement detection result for the lifetime of the
// process. The detection is performed once on first access using real OS lookups.
//
// INVARIANT: detectConfinementFrom MUST NOT panic. Unlike sync.Once (where Do
// treats a panic as "returned" and silently no-ops on subsequent calls),
// sync.OnceValue propagates the panic on every call, creating a persistent
// crash condition.
// Confinement is immutable during process lifetime, making process-wide caching safe.
var detectOnce = sync.OnceValue(func() Confinement {
	return detectConfinementFrom(os.Getenv, statFile)
})

// Confinement identifies the application confinement the process runs under,
// if any. Confined processes cannot reach the host's container engine
// directly and must route invocations through the confinement's spawn portal.
type Confinement string

// CurrentConfinement returns the confinement of the current process.
// The result is cached after the first call.
//
// Detection methods:
//   - Flatpak: Checks for existence of /.flatpak-info
//   - Snap: Checks for SNAP_NAME environment variable
func CurrentConfinement() Confinement {
	return detectOnce()
}

// IsConfined returns true if the current process is running under confinement.
func IsConfined() bool {
	return CurrentConfinement() != ConfinementNone
}

// String returns the string representation of the Confinement.
func (c Confinement) String() string { return string(c) }

// HostSpawn returns the command and leading arguments that execute a program
// on the host system from inside this confinement. The program and its own
// arguments should be appended to args.
//
// For Flatpak: "flatpak-spawn", ["--host"].
// For Snap: "snap", ["run", "--shell"].
// For no confinement: "", nil.
//
// This is a pure function of the receiver, making it directly testable
// without process-wide side effects.
func (c Confinement) HostSpawn() (cmd string, args []string) {
	switch c {
	case ConfinementFlatpak:
		return "flatpak-spawn", []string{"--host"}
	case ConfinementSnap:
		return "snap", []string{"run", "--shell"}
	default:
		return "", nil
	}
}

// detectConfinementFrom performs confinement detection using the provided
// lookup functions. Accepting lookupEnv and statFile as parameters allows
// tests to inject custom behavior without mutating process-wide state.
func detectConfinementFrom(lookupEnv func(string) string, statFile func(string) error) Confinement {
	// Check for Flatpak first (takes precedence).
	// The /.flatpak-info file is always present inside Flatpak sandboxes.
	if err := statFile("/.flatpak-info"); err == nil {
		return ConfinementFlatpak
	}

	// Check for Snap.
	// The SNAP_NAME environment variable is set for all snaps.
	if lookupEnv("SNAP_NAME") != "" {
		return ConfinementSnap
	}

	return ConfinementNone
}

// statFile checks for the existence of a file at the given path.
// This is the production adapter for the statFile parameter of
// detectConfinementFrom, wrapping os.Stat to match the func(string) error
// signature.
func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
