// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"slices"

	"asdf2deb/internal/container"
)

// PrivilegePolicy is the capability and security-option set a sandbox
// container runs under.
type PrivilegePolicy struct {
	CapDrop      []container.Capability
	CapAdd       []container.Capability
	SecurityOpts []container.SecurityOpt
}

// privilegePolicy is the only policy sandboxes are ever opened with. The
// grants cover the file ownership and id changes packaging performs (chown
// and setuid/setgid handling in install trees and dpkg-deb); everything
// else stays dropped, and no-new-privileges holds the set fixed for the
// container's lifetime.
var privilegePolicy = PrivilegePolicy{
	CapDrop: []container.Capability{container.CapabilityAll},
	CapAdd: []container.Capability{
		container.CapabilityChown,
		container.CapabilityFowner,
		container.CapabilitySetuid,
		container.CapabilitySetgid,
	},
	SecurityOpts: []container.SecurityOpt{container.SecurityOptNoNewPrivileges},
}

// Policy returns a copy of the privilege policy sandboxes run under.
func Policy() PrivilegePolicy {
	return PrivilegePolicy{
		CapDrop:      slices.Clone(privilegePolicy.CapDrop),
		CapAdd:       slices.Clone(privilegePolicy.CapAdd),
		SecurityOpts: slices.Clone(privilegePolicy.SecurityOpts),
	}
}
