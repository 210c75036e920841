// SPDX-License-Identifier: MPL-2.0

// Package provision manages the base environments that tool packaging runs
// inside.
//
// A base environment is a locally built container image holding Debian
// unstable, the compiler and dpkg toolchain, and a pinned asdf checkout.
// Every image lives in the asdf-to-deb repository under a timestamp tag, so
// the repository doubles as the build history; the newest tag is the
// environment in use.
//
// The main entry point is the Manager:
//
//	mgr := provision.NewManager(engine)
//	env, err := mgr.Ensure(ctx, provision.EnsureOptions{Confirm: prompt})
//	// env.Ref() is the image to open sandboxes from
//
// Environments are immutable once built. Refreshing the toolchain always
// means building a new tag, never mutating an old one, and an environment
// older than StalenessWindow is only rebuilt when the caller confirms it.
package provision
