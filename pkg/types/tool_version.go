// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidToolVersion is the sentinel error wrapped by InvalidToolVersionError.
var ErrInvalidToolVersion = errors.New("invalid tool version")

type (
	// ToolVersion is a tool version string as asdf reports it ("20.11.0",
	// "temurin-21.0.2+13.0.LTS", ...). It flows into the package control
	// file and the artifact filename, so whitespace, '/' and '_' are
	// rejected; asdf itself is the authority on everything else.
	// The zero value ("") is invalid: versions are resolved before use.
	ToolVersion string

	// InvalidToolVersionError is returned when a ToolVersion is empty or
	// contains characters that would corrupt the artifact filename.
	InvalidToolVersionError struct {
		Value ToolVersion
	}
)

// String returns the string representation of the ToolVersion.
func (v ToolVersion) String() string { return string(v) }

// IsValid returns whether the ToolVersion is valid.
// A valid version is non-empty and free of whitespace, '/' and '_'.
func (v ToolVersion) IsValid() (bool, []error) {
	s := string(v)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t\n\r/_") {
		return false, []error{&InvalidToolVersionError{Value: v}}
	}
	return true, nil
}

// Error implements the error interface for InvalidToolVersionError.
func (e *InvalidToolVersionError) Error() string {
	return fmt.Sprintf("invalid tool version %q: must be non-empty and free of whitespace, '/' and '_'", e.Value)
}

// Unwrap returns ErrInvalidToolVersion for errors.Is() compatibility.
func (e *InvalidToolVersionError) Unwrap() error { return ErrInvalidToolVersion }
