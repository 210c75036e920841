// SPDX-License-Identifier: MPL-2.0

// Package pipeline drives the ordered build steps that turn an asdf tool
// into a Debian archive: plugin registration, version resolution, install,
// package tree assembly, archive build and copy-out, all executed inside
// one sandbox.
//
// The pipeline is idempotent per (tool, version): when the target artifact
// already exists on the host, the build is skipped. With a pinned version
// the check runs before any sandbox exists; otherwise it runs as soon as
// the version is resolved. A skipped build is a Result, not an error.
//
// Steps abort on first failure and are never retried; each step mutates
// sandbox state, so recovery is a fresh sandbox. The sandbox is closed on
// every path out of Build.
package pipeline
