// SPDX-License-Identifier: MPL-2.0

// Package sandbox runs tool builds inside ephemeral hardened containers.
//
// A sandbox is one detached container created from a base environment and
// named after the tool it builds (asdf-to-deb-<tool>). It runs under the
// numeric uid:gid of a host account with every capability dropped except the
// file-ownership grants packaging needs, and with privilege escalation
// disabled. While a sandbox is open, a per-tool build lock serializes
// concurrent builds of the same tool.
//
// The lifecycle is strict: Open acquires the lock and starts the container,
// Exec and CopyOut operate on it, and exactly one Close per Open removes the
// container and releases the lock, on every exit path:
//
//	sb, err := manager.Open(ctx, sandbox.OpenOptions{Tool: tool, Environment: env, User: user})
//	if err != nil {
//		return err
//	}
//	defer func() { err = errors.Join(err, sb.Close(ctx)) }()
//
// Scripts passed to Exec are composed with Script, which keeps code-authored
// shell text and quoted host-provided values apart.
package sandbox
