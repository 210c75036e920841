// SPDX-License-Identifier: MPL-2.0

package deb

import (
	"fmt"
	"os"

	"asdf2deb/pkg/fspath"
	"asdf2deb/pkg/types"
)

// ArtifactName returns the archive file name for a tool at a version,
// following the dpkg naming convention <package>_<version>_<arch>.deb.
func ArtifactName(tool types.ToolName, version types.ToolVersion) string {
	return fmt.Sprintf("%s_%s_%s.deb", tool, version, Arch)
}

// ArtifactPath returns the host path the archive is copied to.
func ArtifactPath(outputDir types.FilesystemPath, tool types.ToolName, version types.ToolVersion) types.FilesystemPath {
	return fspath.JoinStr(outputDir, ArtifactName(tool, version))
}

// ArtifactExists reports whether the archive for tool at version is already
// present under outputDir. Absence is not an error; any other stat failure
// propagates so callers do not rebuild over an unreadable output directory.
func ArtifactExists(outputDir types.FilesystemPath, tool types.ToolName, version types.ToolVersion) (bool, error) {
	path := ArtifactPath(outputDir, tool, version)

	_, err := os.Stat(path.String())
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking artifact %s: %w", path, err)
}

// EnsureOutputDir creates the artifact output directory if it is missing.
func EnsureOutputDir(outputDir types.FilesystemPath) error {
	if err := os.MkdirAll(outputDir.String(), 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", outputDir, err)
	}
	return nil
}
