// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"time"

	"asdf2deb/internal/container"
)

const (
	// ImageRepository is the local image repository every base environment
	// lives under.
	ImageRepository = "asdf-to-deb"

	// TagLayout is the time layout environment tags are minted with. Every
	// field is zero padded, so lexicographic tag order is build order.
	TagLayout = "2006-01-02-15-04-05"

	// StalenessWindow is how old an environment may grow before a rebuild is
	// offered. An environment past the window still works; staleness never
	// blocks a build on its own.
	StalenessWindow = 7 * 24 * time.Hour
)

// Environment is one immutable build of the base image: Debian unstable with
// the dpkg toolchain and a pinned asdf checkout baked in. A toolchain refresh
// is always a new tag in the same repository, never a mutation of an old one.
type Environment struct {
	// Repository is the image repository, normally ImageRepository.
	Repository string
	// Tag is the build timestamp in TagLayout form.
	Tag string
	// CreatedAt is the creation time recorded in the image metadata. The
	// engine metadata, not the tag text, is the source of truth.
	CreatedAt time.Time
}

// Ref returns the full image reference for the environment.
func (e *Environment) Ref() container.ImageRef {
	return container.ImageRef(e.Repository + ":" + e.Tag)
}

// IsStale reports whether the environment is older than StalenessWindow at
// the given instant. An environment exactly StalenessWindow old is not stale.
func (e *Environment) IsStale(now time.Time) bool {
	return now.Sub(e.CreatedAt) > StalenessWindow
}

// Age returns how old the environment is at the given instant.
func (e *Environment) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// ParseTag interprets an environment tag as its build time. Tags that are
// not in TagLayout form belong to other tooling and are not environments.
func ParseTag(tag string) (time.Time, error) {
	return time.Parse(TagLayout, tag)
}
