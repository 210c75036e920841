// SPDX-License-Identifier: MPL-2.0

package deb

import (
	"errors"
	"fmt"
	"strings"

	"asdf2deb/pkg/types"
)

const (
	// SectionBase is the control Section emitted for every produced package.
	SectionBase = "base"
	// PriorityOptional is the control Priority emitted for every produced package.
	PriorityOptional = "optional"
	// Arch is the only architecture produced. The install tree is assembled
	// inside an amd64 Debian environment, so the archive is stamped amd64.
	Arch = "amd64"
	// DefaultMaintainer identifies the packaging pipeline in the control file.
	DefaultMaintainer = "ASDF Packager <packager@example.com>"
)

// Control is the descriptor written to DEBIAN/control inside the archive
// tree. Render produces it field by field in the order dpkg expects.
type Control struct {
	Package      types.ToolName
	Version      types.ToolVersion
	Section      string
	Priority     string
	Architecture string
	Maintainer   string
	Description  types.DescriptionText
}

// DefaultControl returns the control descriptor for a tool at a resolved
// version, with the fixed fields this packager always emits.
func DefaultControl(tool types.ToolName, version types.ToolVersion) Control {
	return Control{
		Package:      tool,
		Version:      version,
		Section:      SectionBase,
		Priority:     PriorityOptional,
		Architecture: Arch,
		Maintainer:   DefaultMaintainer,
		Description:  types.DescriptionText(fmt.Sprintf("%s packaged by ASDF", tool)),
	}
}

// Validate returns an error if any control field would produce an invalid
// or empty line. Errors for all invalid fields are joined.
func (c Control) Validate() error {
	var errs []error

	if isValid, fieldErrs := c.Package.IsValid(); !isValid {
		errs = append(errs, fieldErrs...)
	}
	if isValid, fieldErrs := c.Version.IsValid(); !isValid {
		errs = append(errs, fieldErrs...)
	}
	if isValid, fieldErrs := c.Description.IsValid(); !isValid {
		errs = append(errs, fieldErrs...)
	}
	if strings.TrimSpace(c.Section) == "" {
		errs = append(errs, errors.New("control Section must be non-empty"))
	}
	if strings.TrimSpace(c.Priority) == "" {
		errs = append(errs, errors.New("control Priority must be non-empty"))
	}
	if strings.TrimSpace(c.Architecture) == "" {
		errs = append(errs, errors.New("control Architecture must be non-empty"))
	}
	if strings.TrimSpace(c.Maintainer) == "" {
		errs = append(errs, errors.New("control Maintainer must be non-empty"))
	}

	return errors.Join(errs...)
}

// Render produces the control file text: seven newline-terminated
// "Field: value" lines.
func (c Control) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Package: %s\n", c.Package)
	fmt.Fprintf(&sb, "Version: %s\n", c.Version)
	fmt.Fprintf(&sb, "Section: %s\n", c.Section)
	fmt.Fprintf(&sb, "Priority: %s\n", c.Priority)
	fmt.Fprintf(&sb, "Architecture: %s\n", c.Architecture)
	fmt.Fprintf(&sb, "Maintainer: %s\n", c.Maintainer)
	fmt.Fprintf(&sb, "Description: %s\n", c.Description)

	return sb.String()
}
