// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"asdf2deb/internal/provision"
)

func TestRunEnvBuild(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	if err := runEnvBuild(t.Context(), ta.app, false, ""); err != nil {
		t.Fatalf("runEnvBuild() error = %v", err)
	}
	if ta.envs.buildCalls != 1 {
		t.Errorf("Build calls = %d, want 1", ta.envs.buildCalls)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, "Built base environment") {
		t.Errorf("stdout should announce the build, got %q", out)
	}
	if !strings.Contains(out, "asdf-to-deb:2025-06-15-12-00-00") {
		t.Errorf("stdout should include the image reference, got %q", out)
	}
}

func TestRunEnvBuild_Failure(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.envs.buildErr = &provision.EnvironmentBuildError{
		Ref:   "asdf-to-deb:2025-06-15-12-00-00",
		Cause: errors.New("apt-get update failed"),
	}

	err := runEnvBuild(t.Context(), ta.app, false, "")
	if !errors.Is(err, provision.ErrEnvironmentBuild) {
		t.Fatalf("error = %v, want ErrEnvironmentBuild", err)
	}
	if ta.stderr.Len() == 0 {
		t.Error("the environment guidance card should be rendered to stderr")
	}
}

func TestRunEnvList_Empty(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.envs.envs = nil

	if err := runEnvList(t.Context(), ta.app, false, ""); err != nil {
		t.Fatalf("runEnvList() error = %v", err)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, "no base environments built yet") {
		t.Errorf("stdout should say the store is empty, got %q", out)
	}
	if !strings.Contains(out, "asdf2deb env build") {
		t.Errorf("stdout should point at env build, got %q", out)
	}
}

func TestRunEnvList(t *testing.T) {
	t.Parallel()

	now := time.Now()
	fresh := &provision.Environment{
		Repository: provision.ImageRepository,
		Tag:        now.Add(-2 * time.Hour).Format(provision.TagLayout),
		CreatedAt:  now.Add(-2 * time.Hour),
	}
	stale := &provision.Environment{
		Repository: provision.ImageRepository,
		Tag:        now.Add(-9 * 24 * time.Hour).Format(provision.TagLayout),
		CreatedAt:  now.Add(-9 * 24 * time.Hour),
	}

	ta := newTestApp(t)
	ta.envs.envs = []*provision.Environment{fresh, stale}

	if err := runEnvList(t.Context(), ta.app, false, ""); err != nil {
		t.Fatalf("runEnvList() error = %v", err)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, "Base Environments") {
		t.Errorf("stdout should carry the heading, got %q", out)
	}
	if !strings.Contains(out, string(fresh.Ref())) || !strings.Contains(out, string(stale.Ref())) {
		t.Errorf("stdout should list both references, got %q", out)
	}
	if !strings.Contains(out, "2 hours old") {
		t.Errorf("stdout should show the fresh age, got %q", out)
	}
	if !strings.Contains(out, "9 days old") {
		t.Errorf("stdout should show the stale age, got %q", out)
	}
	if got := strings.Count(out, "stale"); got != 1 {
		t.Errorf("stale marker count = %d, want exactly 1", got)
	}
}

func TestRunEnvPrune(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.envs.removed = []*provision.Environment{testEnvironment()}

	if err := runEnvPrune(t.Context(), ta.app, false, "", false); err != nil {
		t.Fatalf("runEnvPrune() error = %v", err)
	}
	if !ta.envs.lastKeepLatest {
		t.Error("the default prune should keep the newest environment")
	}

	out := ta.stdout.String()
	if !strings.Contains(out, "Removed") {
		t.Errorf("stdout should report the removal, got %q", out)
	}
	if !strings.Contains(out, "asdf-to-deb:2025-06-15-12-00-00") {
		t.Errorf("stdout should name the removed reference, got %q", out)
	}
}

func TestRunEnvPrune_All(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.envs.removed = []*provision.Environment{testEnvironment()}

	if err := runEnvPrune(t.Context(), ta.app, false, "", true); err != nil {
		t.Fatalf("runEnvPrune() error = %v", err)
	}
	if ta.envs.lastKeepLatest {
		t.Error("--all should not keep the newest environment")
	}
}

func TestRunEnvPrune_NothingToPrune(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.envs.removed = nil

	if err := runEnvPrune(t.Context(), ta.app, false, "", false); err != nil {
		t.Fatalf("runEnvPrune() error = %v", err)
	}
	if !strings.Contains(ta.stdout.String(), "(nothing to prune)") {
		t.Errorf("stdout should say there was nothing to do, got %q", ta.stdout.String())
	}
}

func TestRunEnvPrune_PartialFailure(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.envs.removed = []*provision.Environment{testEnvironment()}
	ta.envs.pruneErr = errors.New("image in use")

	err := runEnvPrune(t.Context(), ta.app, false, "", true)
	if err == nil {
		t.Fatal("the prune failure should be returned")
	}
	// Removals completed before the failure are still reported.
	if !strings.Contains(ta.stdout.String(), "Removed") {
		t.Errorf("stdout should report completed removals, got %q", ta.stdout.String())
	}
}

func TestFormatEnvironmentAge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		age  time.Duration
		want string
	}{
		{age: 30 * time.Second, want: "just built"},
		{age: time.Minute, want: "1 minute old"},
		{age: 5 * time.Minute, want: "5 minutes old"},
		{age: time.Hour, want: "1 hour old"},
		{age: 3 * time.Hour, want: "3 hours old"},
		{age: 26 * time.Hour, want: "1 day old"},
		{age: 8 * 24 * time.Hour, want: "8 days old"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := formatEnvironmentAge(tt.age); got != tt.want {
				t.Errorf("formatEnvironmentAge(%v) = %q, want %q", tt.age, got, tt.want)
			}
		})
	}
}
