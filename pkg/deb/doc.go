// SPDX-License-Identifier: MPL-2.0

// Package deb models the Debian package artifact this tool produces: the
// control descriptor written into the archive tree and the host-side
// artifact naming used to decide whether a build can be skipped entirely.
package deb
