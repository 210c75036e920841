// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// maxConfigFileBytes caps how large a config file may be before parsing.
// Config files are hand-written and small; anything beyond this is rejected
// rather than fed to the CUE evaluator.
const maxConfigFileBytes int64 = 1 << 20

// checkConfigFileSize rejects config files larger than maxConfigFileBytes.
func checkConfigFileSize(data []byte, path string) error {
	if int64(len(data)) > maxConfigFileBytes {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			path, len(data), maxConfigFileBytes)
	}
	return nil
}

// formatCUEError formats a CUE error with JSON path prefixes so users see
// which field failed, not a raw CUE evaluator trace.
//
// Error format: <file-path>: <json-path>: <message>
//
// Example:
//   - config.cue: build.rebuild_policy: 3 errors in empty disjunction
func formatCUEError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		// Not a CUE error, return as-is with the file prefix.
		return fmt.Errorf("%s: %w", filePath, err)
	}

	var lines []string
	for _, e := range cueErrs {
		pathStr := formatCUEPath(cueerrors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path inside the message itself.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimPrefix(msg, pathStr)
			msg = strings.TrimPrefix(msg, ":")
			msg = strings.TrimSpace(msg)
		}

		if pathStr != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", pathStr, msg))
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// formatCUEPath converts a CUE error path to JSON-path notation.
// CUE reports error paths as flat string slices (e.g., ["build", "user"])
// where purely numeric elements are array indices; the result reads like
// "build.user" or "entries[0].name".
func formatCUEPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	var result strings.Builder
	for i, part := range path {
		isIndex := true
		for _, c := range part {
			if c < '0' || c > '9' {
				isIndex = false
				break
			}
		}

		if isIndex && i > 0 {
			result.WriteString("[")
			result.WriteString(part)
			result.WriteString("]")
		} else {
			if i > 0 {
				result.WriteString(".")
			}
			result.WriteString(part)
		}
	}

	return result.String()
}
