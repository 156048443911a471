// Package mapping holds the pure rules that relate logical address roles to
// host record fields and shape resolved address lines.
package mapping

import (
	"fmt"
	"strings"
)

// Role is one logical address component.
type Role string

const (
	RolePostcode Role = "postcode"
	RoleStreet   Role = "street"
	RoleCity     Role = "city"
	RoleCounty   Role = "county"
	RoleCountry  Role = "country"
)

const (
	maxStreetLines  = 4
	streetSeparator = ", "
)

var roles = []Role{RolePostcode, RoleStreet, RoleCity, RoleCounty, RoleCountry}

// Roles returns every role in canonical order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// ParseRole converts a role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown address role %q", s)
}

// Binding maps roles to external field identifiers. It is immutable once built.
type Binding struct {
	fields map[Role]string
}

// NewBinding builds a binding, dropping blank identifiers and unknown roles.
func NewBinding(fields map[Role]string) Binding {
	b := Binding{fields: make(map[Role]string, len(fields))}
	for _, r := range roles {
		if f := strings.TrimSpace(fields[r]); f != "" {
			b.fields[r] = f
		}
	}
	return b
}

// Field returns the external field bound to role, if any.
func (b Binding) Field(role Role) (string, bool) {
	f, ok := b.fields[role]
	return f, ok
}

// Fields returns the bound external field identifiers in role order.
func (b Binding) Fields() []string {
	out := make([]string, 0, len(b.fields))
	for _, r := range roles {
		if f, ok := b.fields[r]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Bound returns the bound roles in canonical order.
func (b Binding) Bound() []Role {
	out := make([]Role, 0, len(b.fields))
	for _, r := range roles {
		if _, ok := b.fields[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ConcatenateStreetLines joins up to four address lines with ", ", skipping
// nil and whitespace-only lines. Extra lines are ignored.
func ConcatenateStreetLines(lines ...*string) string {
	if len(lines) > maxStreetLines {
		lines = lines[:maxStreetLines]
	}

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == nil || strings.TrimSpace(*line) == "" {
			continue
		}
		parts = append(parts, *line)
	}
	return strings.Join(parts, streetSeparator)
}

// ResolveCity returns primary when set, otherwise fallback.
func ResolveCity(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}
