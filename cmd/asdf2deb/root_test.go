// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"asdf2deb/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		// Save and restore package-level vars.
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()

		got := formatErrorForDisplay(errors.New("boom"), false)
		if got != "boom" {
			t.Errorf("formatErrorForDisplay() = %q, want %q", got, "boom")
		}
	})

	t.Run("actionable error uses Format", func(t *testing.T) {
		t.Parallel()

		ae := &issue.ActionableError{
			Operation:   "load configuration",
			Resource:    "~/.config/asdf2deb/config.cue",
			Suggestions: []string{"Run asdf2deb config init to recreate it"},
			Cause:       errors.New("syntax error"),
		}

		got := formatErrorForDisplay(ae, false)
		if !strings.Contains(got, "failed to load configuration") {
			t.Errorf("output should carry the operation, got %q", got)
		}
		if !strings.Contains(got, "config init") {
			t.Errorf("output should carry the suggestion, got %q", got)
		}
	})

	t.Run("verbose includes error chain", func(t *testing.T) {
		t.Parallel()

		ae := &issue.ActionableError{
			Operation: "load configuration",
			Cause:     errors.New("syntax error"),
		}

		got := formatErrorForDisplay(ae, true)
		if !strings.Contains(got, "Error chain:") {
			t.Errorf("verbose output should include the chain, got %q", got)
		}
	})
}
