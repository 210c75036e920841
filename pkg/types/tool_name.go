// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidToolName is the sentinel error wrapped by InvalidToolNameError.
var ErrInvalidToolName = errors.New("invalid tool name")

// toolNamePattern matches Debian source/binary package names: at least two
// characters, lowercase alphanumerics plus '+', '-' and '.', starting with
// an alphanumeric. The tool name becomes the Package field of the built .deb
// (and its filename stem), so the narrowest consumer sets the grammar.
// asdf plugin names ("nodejs", "dotnet-core", ...) all fit this grammar.
var toolNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+.-]+$`)

type (
	// ToolName identifies an asdf-managed tool (equivalently, the asdf plugin
	// that installs it). It flows into the container name, the package
	// control file, and the artifact filename.
	// The zero value ("") is invalid.
	ToolName string

	// InvalidToolNameError is returned when a ToolName does not satisfy the
	// Debian package name grammar.
	InvalidToolNameError struct {
		Value ToolName
	}
)

// String returns the string representation of the ToolName.
func (n ToolName) String() string { return string(n) }

// IsValid returns whether the ToolName is valid.
// A valid name satisfies the Debian package name grammar (see toolNamePattern).
func (n ToolName) IsValid() (bool, []error) {
	if !toolNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidToolNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidToolNameError.
func (e *InvalidToolNameError) Error() string {
	return fmt.Sprintf("invalid tool name %q: must be at least two characters of lowercase letters, digits, '+', '-' or '.', starting with a letter or digit", e.Value)
}

// Unwrap returns ErrInvalidToolName for errors.Is() compatibility.
func (e *InvalidToolNameError) Unwrap() error { return ErrInvalidToolName }
