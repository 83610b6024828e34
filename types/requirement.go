// Package types defines core domain types for the pybuild frontend.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"fmt"
	"strings"
)

// ConfigSettings are free-form build arguments forwarded to the backend
// unchanged. A nil map is serialized as null per PROTOCOL.md.
type ConfigSettings map[string]any

// Requirement is a parsed dependency specifier as returned by a build
// backend, e.g. "setuptools >= 40.8.0" or "tomli; python_version < '3.11'".
//
// Requirements are value objects: parsed once, compared and rendered as
// specifiers, never executed. The zero value is not valid; use
// ParseRequirement.
type Requirement struct {
	// Name is the distribution name.
	Name string
	// Extras are the requested extras, in declaration order.
	Extras []string
	// Specifier is the version specifier text, e.g. ">=40.8.0". May be empty.
	Specifier string
	// Marker is the environment marker text after ";". May be empty.
	Marker string
}

// ParseRequirement parses a dependency specifier string.
//
// The grammar accepted here is the practical subset emitted by build
// backends: NAME ["[" extras "]"] [specifier] [";" marker]. The specifier
// is kept as text; no version comparison happens frontend-side.
func ParseRequirement(s string) (Requirement, error) {
	var r Requirement

	rest := strings.TrimSpace(s)
	if rest == "" {
		return r, fmt.Errorf("empty requirement")
	}

	// Split off the environment marker first; specifiers never contain ";".
	if i := strings.Index(rest, ";"); i >= 0 {
		r.Marker = strings.TrimSpace(rest[i+1:])
		rest = strings.TrimSpace(rest[:i])
		if r.Marker == "" {
			return r, fmt.Errorf("requirement %q: empty environment marker", s)
		}
	}

	// Distribution name: letters, digits, and ._- per the naming rules.
	end := 0
	for end < len(rest) && isNameByte(rest[end]) {
		end++
	}
	if end == 0 {
		return r, fmt.Errorf("requirement %q: missing distribution name", s)
	}
	r.Name = rest[:end]
	rest = strings.TrimSpace(rest[end:])

	// Optional extras.
	if strings.HasPrefix(rest, "[") {
		closing := strings.Index(rest, "]")
		if closing < 0 {
			return r, fmt.Errorf("requirement %q: unterminated extras", s)
		}
		for _, extra := range strings.Split(rest[1:closing], ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" {
				return r, fmt.Errorf("requirement %q: empty extra", s)
			}
			r.Extras = append(r.Extras, extra)
		}
		rest = strings.TrimSpace(rest[closing+1:])
	}

	// Whatever remains is the version specifier, possibly parenthesized.
	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
	r.Specifier = strings.TrimSpace(rest)

	return r, nil
}

// ParseRequirements parses a list of specifier strings, failing on the
// first malformed entry.
func ParseRequirements(specs []string) ([]Requirement, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]Requirement, 0, len(specs))
	for _, spec := range specs {
		r, err := ParseRequirement(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// String renders the canonical specifier form.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteString("]")
	}
	if r.Specifier != "" {
		b.WriteString(r.Specifier)
	}
	if r.Marker != "" {
		b.WriteString("; ")
		b.WriteString(r.Marker)
	}
	return b.String()
}

func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '-':
		return true
	}
	return false
}
