// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"errors"
	"fmt"
	"os/user"
)

// ErrIdentityResolution is the sentinel error wrapped by IdentityResolutionError.
var ErrIdentityResolution = errors.New("build user identity resolution failed")

type (
	// LookupFunc resolves an account name against an identity database,
	// normally os/user.Lookup.
	LookupFunc func(username string) (*user.User, error)

	// Identity is the numeric uid:gid a sandbox runs as. Containers have no
	// view of the host's account names, only of numeric ids.
	Identity struct {
		UID string
		GID string
	}

	// IdentityResolutionError is returned when a build user cannot be
	// resolved to an Identity. It wraps ErrIdentityResolution for
	// errors.Is(); the lookup failure is in Cause.
	IdentityResolutionError struct {
		User  string
		Cause error
	}
)

// String returns the identity in the uid:gid form container engines expect.
func (i Identity) String() string { return i.UID + ":" + i.GID }

// Error implements the error interface for IdentityResolutionError.
func (e *IdentityResolutionError) Error() string {
	return fmt.Sprintf("resolving build user %q: %v", e.User, e.Cause)
}

// Unwrap returns ErrIdentityResolution for errors.Is() compatibility.
func (e *IdentityResolutionError) Unwrap() error { return ErrIdentityResolution }

// ResolveIdentity resolves an account name to its numeric identity through
// the given lookup.
func ResolveIdentity(lookup LookupFunc, username string) (Identity, error) {
	u, err := lookup(username)
	if err != nil {
		return Identity{}, &IdentityResolutionError{User: username, Cause: err}
	}
	return Identity{UID: u.Uid, GID: u.Gid}, nil
}
