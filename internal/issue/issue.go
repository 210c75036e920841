// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ContainerEngineNotFoundId Id = iota + 1
	ConfigLoadFailedId
	EnvironmentBuildFailedId
	IdentityResolutionFailedId
	SandboxCreateFailedId
	ToolBuildFailedId
	ArtifactCopyFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found!

Building packages requires Docker or Podman, and neither is available.

## Supported container engines:
- **Docker** (the engine the packaging recipes were written against)
- **Podman**

## Things you can try:
- Install Docker:
  - https://docs.docker.com/get-docker/

- Install Podman:
  - Linux: ` + "`sudo apt install podman`" + ` or ` + "`sudo dnf install podman`" + `
  - macOS: ` + "`brew install podman`" + `

- Configure your preferred engine in ~/.config/asdf2deb/config.cue:
~~~cue
container_engine: "docker"  // or "podman"
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the asdf2deb configuration file.

## Configuration file locations:
- Linux: ~/.config/asdf2deb/config.cue
- macOS: ~/Library/Application Support/asdf2deb/config.cue
- Windows: %APPDATA%\asdf2deb\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ asdf2deb config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/asdf2deb/config.cue
~~~

## Example configuration:
~~~cue
container_engine: "docker"

build: {
  user: "asdf"
  output_dir: "."
  rebuild_policy: "ask"
}

ui: {
  color_scheme: "auto"
  verbose: false
}
~~~`,
	}

	environmentBuildFailedIssue = &Issue{
		id: EnvironmentBuildFailedId,
		mdMsg: `
# Base environment build failed!

The Debian base image with asdf preinstalled could not be built.

## Common causes:
- No network access (the build clones asdf and runs apt-get)
- Debian unstable mirror temporarily unavailable
- Disk pressure in the engine's image storage

## Things you can try:
- Re-run with verbose mode to see the full build output:
~~~
$ asdf2deb --verbose env build
~~~

- Retry later if the failure was a mirror or network hiccup
- Free engine storage:
~~~
$ asdf2deb env prune
~~~`,
	}

	identityResolutionFailedIssue = &Issue{
		id: IdentityResolutionFailedId,
		mdMsg: `
# Build user not found!

The user the build sandbox should run as does not exist on this host.

## Things you can try:
- Create the user (the default is 'asdf'):
~~~
$ sudo useradd --system asdf
~~~

- Or build as an existing user:
~~~
$ asdf2deb build <tool> --user $USER
~~~

- Or set it permanently in ~/.config/asdf2deb/config.cue:
~~~cue
build: {
  user: "youruser"
}
~~~`,
	}

	sandboxCreateFailedIssue = &Issue{
		id: SandboxCreateFailedId,
		mdMsg: `
# Build sandbox could not be started!

The per-tool build container failed to start from the base environment.

## Common causes:
- A previous build for the same tool was interrupted and left its
  container behind
- The base environment image was removed after it was selected

## Things you can try:
- Remove a leftover container for the tool:
~~~
$ docker rm -f asdf-to-deb-<tool>
~~~

- Rebuild the base environment:
~~~
$ asdf2deb env build
~~~`,
	}

	toolBuildFailedIssue = &Issue{
		id: ToolBuildFailedId,
		mdMsg: `
# Tool build failed!

A packaging step failed inside the build sandbox. The step name and the
remote stderr are printed above.

## Common causes:
- The asdf plugin does not exist under that name
- The requested version does not exist for the tool
- The tool's own build needs OS packages the base environment lacks

## Things you can try:
- Check the plugin name against the asdf plugin registry
- List versions the plugin knows about before pinning one
- Pass the plugin's git URL explicitly:
~~~
$ asdf2deb build <tool> --plugin-url <git-url>
~~~`,
	}

	artifactCopyFailedIssue = &Issue{
		id: ArtifactCopyFailedId,
		mdMsg: `
# Could not copy the package out of the sandbox!

The .deb archive was built inside the sandbox but copying it to the
output directory failed.

## Things you can try:
- Check the output directory is writable
- Check free disk space on the host
- Point the build at a different output directory:
~~~
$ asdf2deb build <tool> --output-dir /tmp/debs
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- Talking to the container engine requires group membership
- The output directory is not writable

## Things you can try:
- For Docker, ensure you're in the docker group:
~~~
$ sudo usermod -aG docker $USER
~~~

- Use rootless containers with Podman
- Run asdf2deb from a directory you own`,
	}

	issues = map[Id]*Issue{
		containerEngineNotFoundIssue.Id():  containerEngineNotFoundIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		environmentBuildFailedIssue.Id():   environmentBuildFailedIssue,
		identityResolutionFailedIssue.Id(): identityResolutionFailedIssue,
		sandboxCreateFailedIssue.Id():      sandboxCreateFailedIssue,
		toolBuildFailedIssue.Id():          toolBuildFailedIssue,
		artifactCopyFailedIssue.Id():       artifactCopyFailedIssue,
		permissionDeniedIssue.Id():         permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
