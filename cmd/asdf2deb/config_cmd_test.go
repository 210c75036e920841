// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asdf2deb/internal/config"
)

// configDirForTest points the config package at a private directory so these
// tests never touch the real user configuration. Tests using it stay
// sequential: the override is package-level state.
func configDirForTest(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	config.SetConfigDirOverride(dir)
	t.Cleanup(config.Reset)
	return dir
}

func TestShowConfig(t *testing.T) {
	configDirForTest(t)
	ta := newTestApp(t)

	if err := showConfig(t.Context(), ta.app); err != nil {
		t.Fatalf("showConfig() error = %v", err)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, "Current Configuration") {
		t.Errorf("stdout should carry the heading, got %q", out)
	}
	if !strings.Contains(out, "(using defaults)") {
		t.Errorf("stdout should note the missing config file, got %q", out)
	}
	for _, want := range []string{"container_engine", "docker", "rebuild_policy", "ask", "color_scheme", "auto"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout should include %q, got %q", want, out)
		}
	}
}

func TestShowConfig_ReportsFile(t *testing.T) {
	dir := configDirForTest(t)
	path := filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
	if err := os.WriteFile(path, []byte(config.GenerateCUE(config.DefaultConfig())), 0o644); err != nil {
		t.Fatal(err)
	}

	ta := newTestApp(t)
	if err := showConfig(t.Context(), ta.app); err != nil {
		t.Fatalf("showConfig() error = %v", err)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, path) {
		t.Errorf("stdout should show the config file path, got %q", out)
	}
	if strings.Contains(out, "(using defaults)") {
		t.Errorf("an existing file must not be reported as defaults, got %q", out)
	}
}

func TestShowConfig_LoadFailure(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.config.err = errors.New("parse error")

	if err := showConfig(t.Context(), ta.app); err == nil {
		t.Fatal("the load failure should be returned")
	}
	if ta.stderr.Len() == 0 {
		t.Error("the config guidance card should be rendered to stderr")
	}
}

func TestInitConfigFile(t *testing.T) {
	dir := configDirForTest(t)
	ta := newTestApp(t)

	if err := initConfigFile(ta.app); err != nil {
		t.Fatalf("initConfigFile() error = %v", err)
	}

	path := filepath.Join(dir, "config.cue")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("the default config file should exist: %v", err)
	}
	if !strings.Contains(string(data), `container_engine: "docker"`) {
		t.Errorf("the default file should carry the default engine, got %q", data)
	}
	if !strings.Contains(ta.stdout.String(), "Created default configuration") {
		t.Errorf("stdout should announce the creation, got %q", ta.stdout.String())
	}
}

func TestShowConfigPath(t *testing.T) {
	dir := configDirForTest(t)
	ta := newTestApp(t)

	if err := showConfigPath(ta.app); err != nil {
		t.Fatalf("showConfigPath() error = %v", err)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, dir) {
		t.Errorf("stdout should show the config directory, got %q", out)
	}
	if !strings.Contains(out, filepath.Join(dir, "config.cue")) {
		t.Errorf("stdout should show the config file path, got %q", out)
	}
}

func TestSetConfigValue_Saves(t *testing.T) {
	dir := configDirForTest(t)
	ta := newTestApp(t)

	if err := setConfigValue(t.Context(), ta.app, "build.rebuild_policy", "never"); err != nil {
		t.Fatalf("setConfigValue() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.cue"))
	if err != nil {
		t.Fatalf("the config file should be written: %v", err)
	}
	if !strings.Contains(string(data), `rebuild_policy: "never"`) {
		t.Errorf("the saved file should carry the new value, got %q", data)
	}
	if !strings.Contains(ta.stdout.String(), "Set build.rebuild_policy = never") {
		t.Errorf("stdout should confirm the change, got %q", ta.stdout.String())
	}
}

func TestSetConfigValue_InvalidValue(t *testing.T) {
	dir := configDirForTest(t)
	ta := newTestApp(t)

	err := setConfigValue(t.Context(), ta.app, "container_engine", "qemu")
	if !errors.Is(err, config.ErrInvalidContainerEngine) {
		t.Fatalf("error = %v, want ErrInvalidContainerEngine", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "config.cue")); !os.IsNotExist(statErr) {
		t.Error("a rejected value must not be saved")
	}
}

func TestSetConfigValue_UnknownKey(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	err := setConfigValue(t.Context(), ta.app, "no.such.key", "x")
	if err == nil || !strings.Contains(err.Error(), "unknown configuration key") {
		t.Fatalf("error = %v, want the unknown-key message", err)
	}
	if !strings.Contains(err.Error(), "Valid keys") {
		t.Errorf("the error should list valid keys, got %v", err)
	}
}

func TestConfigDump(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	cfgCmd := newConfigCommand(ta.app)
	cfgCmd.SetArgs([]string{"dump"})
	cfgCmd.SetOut(ta.stdout)
	cfgCmd.SetErr(ta.stderr)

	if err := cfgCmd.ExecuteContext(t.Context()); err != nil {
		t.Fatalf("config dump error = %v", err)
	}

	out := ta.stdout.String()
	if !strings.Contains(out, `container_engine: "docker"`) {
		t.Errorf("dump should emit the CUE document, got %q", out)
	}
	if !strings.Contains(out, "rebuild_policy") {
		t.Errorf("dump should include the build block, got %q", out)
	}
}

func TestShowDocs(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.config.cfg = config.DefaultConfig()
	ta.config.cfg.UI.ColorScheme = config.ColorSchemeDark

	if err := showDocs(t.Context(), ta.app); err != nil {
		t.Fatalf("showDocs() error = %v", err)
	}

	out := ta.stdout.String()
	if out == "" {
		t.Fatal("the rendered guide should not be empty")
	}
	if !strings.Contains(out, "asdf2deb") {
		t.Errorf("the guide should mention the tool, got %q", out)
	}
}
