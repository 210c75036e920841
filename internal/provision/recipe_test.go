// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"strings"
	"testing"
)

func TestDefaultRecipe(t *testing.T) {
	t.Parallel()

	recipe := DefaultRecipe()

	if recipe.BaseImage != "debian:unstable" {
		t.Errorf("expected base image 'debian:unstable', got %q", recipe.BaseImage)
	}

	if recipe.AsdfVersion != "v0.10.2" {
		t.Errorf("expected asdf version 'v0.10.2', got %q", recipe.AsdfVersion)
	}

	if recipe.AsdfRepoURL != "https://github.com/asdf-vm/asdf.git" {
		t.Errorf("expected upstream asdf repository URL, got %q", recipe.AsdfRepoURL)
	}

	want := []string{"curl", "git", "build-essential", "fakeroot", "dpkg-dev"}
	if len(recipe.Packages) != len(want) {
		t.Fatalf("expected %d bootstrap packages, got %d", len(want), len(recipe.Packages))
	}
	for i, pkg := range want {
		if recipe.Packages[i] != pkg {
			t.Errorf("expected package %d to be %q, got %q", i, pkg, recipe.Packages[i])
		}
	}
}

func TestRecipe_Render(t *testing.T) {
	t.Parallel()

	dockerfile := DefaultRecipe().Render()

	wantLines := []string{
		"FROM debian:unstable",
		"RUN apt-get update && apt-get install -y curl git build-essential fakeroot dpkg-dev",
		"RUN git clone https://github.com/asdf-vm/asdf.git ~/.asdf --branch v0.10.2",
		"RUN echo '. $HOME/.asdf/asdf.sh' >> ~/.bashrc",
		"RUN echo '. $HOME/.asdf/completions/asdf.bash' >> ~/.bashrc",
		`SHELL ["/bin/bash", "-l", "-c"]`,
	}

	for _, line := range wantLines {
		if !strings.Contains(dockerfile, line+"\n") {
			t.Errorf("Dockerfile missing line %q:\n%s", line, dockerfile)
		}
	}

	if !strings.HasPrefix(dockerfile, "FROM ") {
		t.Error("Dockerfile should start with the FROM instruction")
	}

	if !strings.HasSuffix(dockerfile, "\n") {
		t.Error("Dockerfile should end with a newline")
	}
}

func TestRecipe_Render_InstructionOrder(t *testing.T) {
	t.Parallel()

	dockerfile := DefaultRecipe().Render()

	aptIdx := strings.Index(dockerfile, "apt-get install")
	cloneIdx := strings.Index(dockerfile, "git clone")
	bashrcIdx := strings.Index(dockerfile, "asdf.sh")
	shellIdx := strings.Index(dockerfile, "SHELL ")

	if aptIdx < 0 || cloneIdx < 0 || bashrcIdx < 0 || shellIdx < 0 {
		t.Fatalf("Dockerfile missing expected instructions:\n%s", dockerfile)
	}

	// git must be installed before the clone, and asdf cloned before it is
	// wired into .bashrc.
	if !(aptIdx < cloneIdx && cloneIdx < bashrcIdx && bashrcIdx < shellIdx) {
		t.Errorf("Dockerfile instructions out of order:\n%s", dockerfile)
	}
}

func TestRecipe_Render_CustomBaseImage(t *testing.T) {
	t.Parallel()

	recipe := DefaultRecipe()
	recipe.BaseImage = "debian:stable"

	dockerfile := recipe.Render()

	if !strings.Contains(dockerfile, "FROM debian:stable\n") {
		t.Errorf("expected custom base image in Dockerfile:\n%s", dockerfile)
	}
	if strings.Contains(dockerfile, "unstable") {
		t.Errorf("default base image leaked into Dockerfile:\n%s", dockerfile)
	}
}
