// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"asdf2deb/internal/container"
	"asdf2deb/internal/sandbox"
	"asdf2deb/pkg/deb"
	"asdf2deb/pkg/types"
)

const (
	// StepPluginAdd registers the tool's asdf plugin.
	StepPluginAdd StepName = "plugin-add"
	// StepResolveVersion asks asdf for the latest version of the tool.
	StepResolveVersion StepName = "resolve-version"
	// StepInstall installs the resolved version.
	StepInstall StepName = "install"
	// StepSetGlobal marks the installed version as the global default.
	StepSetGlobal StepName = "set-global"
	// StepAssembleTree lays out the package tree: control metadata plus the
	// installed files as payload.
	StepAssembleTree StepName = "assemble-tree"
	// StepBuildArchive runs dpkg-deb over the assembled tree.
	StepBuildArchive StepName = "build-archive"
	// StepCopyOut extracts the built archive onto the host.
	StepCopyOut StepName = "copy-out"
)

// In-sandbox paths of the package tree. dpkg-deb --build writes the archive
// next to the tree it was given, so the archive lands at packageTreePath + ".deb".
const (
	packageTreePath = "/root/debian"
	controlDirPath  = packageTreePath + "/DEBIAN"
	controlFilePath = controlDirPath + "/control"
	payloadDirPath  = packageTreePath + "/usr"

	// installsRoot is asdf's install location convention. $HOME expands
	// inside the sandbox shell, so it stays literal here.
	installsRoot = "$HOME/.asdf/installs"

	archivePath container.ContainerFilesystemPath = packageTreePath + ".deb"
)

// ErrRemoteCommand is the sentinel error wrapped by StepError.
var ErrRemoteCommand = errors.New("remote build command failed")

type (
	// StepName identifies one pipeline step in errors and logs.
	StepName string

	// Step is one remote command of the pipeline: a name for attribution
	// and the script dispatched into the sandbox.
	Step struct {
		Name   StepName
		Script *sandbox.Script
	}

	// StepError is returned when a step's remote command exits non-zero.
	// It wraps ErrRemoteCommand for errors.Is() and carries the remote
	// stderr verbatim for diagnosis.
	StepError struct {
		Step     StepName
		ExitCode types.ExitCode
		Stderr   string
	}
)

// String returns the string representation of the StepName.
func (n StepName) String() string { return string(n) }

// Error implements the error interface for StepError.
func (e *StepError) Error() string {
	msg := fmt.Sprintf("step %s: remote command exited %s", e.Step, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}
	return msg
}

// Unwrap returns ErrRemoteCommand for errors.Is() compatibility.
func (e *StepError) Unwrap() error { return ErrRemoteCommand }

// pluginAddStep registers the tool's plugin, optionally from an explicit
// source URL instead of asdf's default registry lookup.
func pluginAddStep(tool types.ToolName, pluginURL string) Step {
	script := sandbox.NewScript().Text("asdf plugin add ").Value(tool.String())
	if pluginURL != "" {
		script.Text(" ").Value(pluginURL)
	}
	return Step{Name: StepPluginAdd, Script: script}
}

// resolveVersionStep queries the latest available version; the version is
// the trimmed stdout of the remote command.
func resolveVersionStep(tool types.ToolName) Step {
	return Step{
		Name:   StepResolveVersion,
		Script: sandbox.NewScript().Text("asdf latest ").Value(tool.String()),
	}
}

func installStep(tool types.ToolName, version types.ToolVersion) Step {
	return Step{
		Name: StepInstall,
		Script: sandbox.NewScript().
			Text("asdf install ").Value(tool.String()).Text(" ").Value(version.String()),
	}
}

func setGlobalStep(tool types.ToolName, version types.ToolVersion) Step {
	return Step{
		Name: StepSetGlobal,
		Script: sandbox.NewScript().
			Text("asdf global ").Value(tool.String()).Text(" ").Value(version.String()),
	}
}

// assembleTreeStep builds the package tree in one remote script: the
// control directory with the rendered control descriptor, then the
// installed tool's files copied into the payload root. The commands are
// chained with && so a failed copy cannot produce an archivable tree.
func assembleTreeStep(control deb.Control) Step {
	script := sandbox.NewScript().
		Text("mkdir -p " + controlDirPath + " " + payloadDirPath + " && ").
		Text("printf '%s' ").Value(control.Render()).Text(" > " + controlFilePath + " && ").
		Text("cp -R " + installsRoot + "/").Value(control.Package.String()).
		Text("/").Value(control.Version.String()).
		Text("/* " + payloadDirPath + "/")
	return Step{Name: StepAssembleTree, Script: script}
}

func buildArchiveStep() Step {
	return Step{
		Name:   StepBuildArchive,
		Script: sandbox.NewScript().Text("dpkg-deb --build " + packageTreePath),
	}
}
