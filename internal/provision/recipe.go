// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"strings"

	"asdf2deb/internal/container"
)

const (
	// DefaultBaseImage is the Debian image environments build on. Unstable
	// carries the toolchains newly released tool versions expect.
	DefaultBaseImage container.ImageRef = "debian:unstable"

	// asdfRepoURL is the upstream asdf git repository.
	asdfRepoURL = "https://github.com/asdf-vm/asdf.git"

	// asdfVersion is the git tag the asdf checkout is pinned to. Bumping it
	// changes how every subsequent environment installs tools.
	asdfVersion = "v0.10.2"
)

// bootstrapPackages are the apt packages every environment carries: fetch
// and clone tooling for asdf plugins, a compiler toolchain for source-built
// tools, and the dpkg tooling that assembles the archive.
var bootstrapPackages = []string{"curl", "git", "build-essential", "fakeroot", "dpkg-dev"}

// Recipe describes the Dockerfile a base environment is built from. The zero
// value is not useful; use DefaultRecipe.
type Recipe struct {
	// BaseImage is the FROM image.
	BaseImage container.ImageRef
	// Packages are the apt packages installed during bootstrap.
	Packages []string
	// AsdfRepoURL is the git URL the asdf checkout is cloned from.
	AsdfRepoURL string
	// AsdfVersion is the git tag the asdf checkout is pinned to.
	AsdfVersion string
}

// DefaultRecipe returns the recipe the packaging pipeline is written against.
func DefaultRecipe() Recipe {
	return Recipe{
		BaseImage:   DefaultBaseImage,
		Packages:    bootstrapPackages,
		AsdfRepoURL: asdfRepoURL,
		AsdfVersion: asdfVersion,
	}
}

// Render produces the Dockerfile content for the recipe.
//
// asdf is activated through ~/.bashrc, so it only exists in login bash
// shells; SHELL keeps image RUN instructions consistent with the login
// shells the packaging steps run in later.
func (r Recipe) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", r.BaseImage)

	fmt.Fprintf(&sb, "RUN apt-get update && apt-get install -y %s\n\n", strings.Join(r.Packages, " "))

	fmt.Fprintf(&sb, "RUN git clone %s ~/.asdf --branch %s\n", r.AsdfRepoURL, r.AsdfVersion)
	sb.WriteString("RUN echo '. $HOME/.asdf/asdf.sh' >> ~/.bashrc\n")
	sb.WriteString("RUN echo '. $HOME/.asdf/completions/asdf.bash' >> ~/.bashrc\n\n")

	sb.WriteString(`SHELL ["/bin/bash", "-l", "-c"]` + "\n")

	return sb.String()
}
