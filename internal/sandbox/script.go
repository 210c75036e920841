// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Script composes a remote shell command from two kinds of input: trusted
// shell text authored in code, and host-provided values that are quoted into
// single shell words. Values never reach the shell unquoted, so a tool name
// or version can contain shell metacharacters without changing the command.
//
// Methods chain; the first quoting failure sticks and surfaces from Render:
//
//	text, err := sandbox.NewScript().Text("asdf latest ").Value(tool).Render()
type Script struct {
	b   strings.Builder
	err error
}

// NewScript returns an empty script.
func NewScript() *Script { return &Script{} }

// Text appends trusted shell text exactly as given. Only code-authored
// fragments belong here; anything host-provided goes through Value.
func (s *Script) Text(text string) *Script {
	if s.err == nil {
		s.b.WriteString(text)
	}
	return s
}

// Value appends a host-provided value quoted into a single shell word.
// Quoted values concatenate with surrounding Text fragments, so a word may
// mix literal and quoted parts ("$HOME/" + quoted segment).
func (s *Script) Value(value string) *Script {
	if s.err != nil {
		return s
	}

	quoted, err := syntax.Quote(value, syntax.LangBash)
	if err != nil {
		s.err = fmt.Errorf("quoting value %q: %w", value, err)
		return s
	}
	s.b.WriteString(quoted)
	return s
}

// Render returns the composed script text, or the first quoting error.
func (s *Script) Render() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.b.String(), nil
}
