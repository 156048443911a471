// Package widgets loads widget definitions: which host object a widget
// edits and which record fields its address roles are bound to.
package widgets

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"address_lookup_backend/internal/addresslookup/mapping"
	"address_lookup_backend/platform/validator"

	"gopkg.in/yaml.v3"
)

// Field binds one address role to a host record field.
type Field struct {
	Name string `yaml:"name" json:"name" validate:"required,notblank"`
	// Rule is an optional validator tag applied on save, e.g. "required,max=10".
	Rule string `yaml:"rule,omitempty" json:"rule,omitempty"`
}

// Definition is one configured widget.
type Definition struct {
	Name       string           `yaml:"name" json:"name" validate:"required,notblank"`
	ObjectType string           `yaml:"objectType" json:"objectType" validate:"required,notblank"`
	Title      string           `yaml:"title" json:"title"`
	Fields     map[string]Field `yaml:"fields" json:"fields" validate:"dive"`
}

// Binding returns the role-to-field binding for the widget.
func (d Definition) Binding() mapping.Binding {
	bound := make(map[mapping.Role]string, len(d.Fields))
	for role, f := range d.Fields {
		bound[mapping.Role(role)] = f.Name
	}
	return mapping.NewBinding(bound)
}

// Rules returns the per-role validation rules.
func (d Definition) Rules() map[mapping.Role]string {
	rules := make(map[mapping.Role]string, len(d.Fields))
	for role, f := range d.Fields {
		if strings.TrimSpace(f.Rule) != "" {
			rules[mapping.Role(role)] = f.Rule
		}
	}
	return rules
}

type file struct {
	Widgets []Definition `yaml:"widgets"`
}

// Registry holds widget definitions by name.
type Registry struct {
	byName map[string]Definition
}

// Load reads and parses a widgets file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read widgets file: %w", err)
	}
	return Parse(data)
}

// Parse decodes widget definitions from YAML. Role keys are normalized to
// lower case; unknown roles, duplicate names, roles bound twice and invalid
// rules are rejected.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode widgets file: %w", err)
	}

	val := validator.New()
	reg := &Registry{byName: make(map[string]Definition, len(f.Widgets))}
	for i, def := range f.Widgets {
		def.Name = strings.TrimSpace(def.Name)
		def.ObjectType = strings.TrimSpace(def.ObjectType)
		if err := val.Struct(def); err != nil {
			return nil, fmt.Errorf("widget %d: %w", i, err)
		}
		if _, dup := reg.byName[def.Name]; dup {
			return nil, fmt.Errorf("widget %q defined twice", def.Name)
		}

		fields := make(map[string]Field, len(def.Fields))
		for key, field := range def.Fields {
			role, err := mapping.ParseRole(key)
			if err != nil {
				return nil, fmt.Errorf("widget %q: %w", def.Name, err)
			}
			if _, dup := fields[string(role)]; dup {
				return nil, fmt.Errorf("widget %q binds role %s twice", def.Name, role)
			}
			if field.Rule != "" {
				if err := checkRule(val, field.Rule); err != nil {
					return nil, fmt.Errorf("widget %q role %s: %w", def.Name, role, err)
				}
			}
			field.Name = strings.TrimSpace(field.Name)
			fields[string(role)] = field
		}
		def.Fields = fields
		reg.byName[def.Name] = def
	}
	return reg, nil
}

// checkRule dry-runs a tag; the validator panics on unknown tags.
func checkRule(val *validator.Validator, rule string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid rule %q: %v", rule, r)
		}
	}()
	_ = val.Var("", rule)
	return nil
}

// Get returns the definition named name.
func (r *Registry) Get(name string) (Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.byName))
	for _, def := range r.byName {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
