// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// This package centralizes runtime.GOOS name constants and detects
// application confinement (Flatpak/Snap), which determines how commands
// must be routed to reach the host's container engine.
package platform
