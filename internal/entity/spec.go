// Package entity describes the tenant-scoped farm entities: their backend
// table, local mirror key and the column names the dashboard renames.
package entity

import (
	"errors"
	"sort"
)

// DefaultTenantColumn is the scoping column used when a Spec leaves it empty
const DefaultTenantColumn = "tenant_id"

// ErrUnknownEntity is returned when no Spec is registered under a name
var ErrUnknownEntity = errors.New("unknown entity")

// FieldPair maps a backend column to the field name the dashboard uses
type FieldPair struct {
	Backend string `json:"backend"`
	UI      string `json:"ui"`
}

// Spec declares one scoped entity
type Spec struct {
	Name         string      `json:"name"`
	Table        string      `json:"table"`
	MirrorKey    string      `json:"mirror_key"`
	TenantColumn string      `json:"tenant_column"`
	Fields       []FieldPair `json:"fields,omitempty"`
}

// Tenant returns the scoping column name
func (s Spec) Tenant() string {
	if s.TenantColumn == "" {
		return DefaultTenantColumn
	}
	return s.TenantColumn
}

// ToUI renames backend columns to dashboard field names. The input is not modified.
func (s Spec) ToUI(r Record) Record {
	out := r.Clone()
	for _, p := range s.Fields {
		if v, ok := out[p.Backend]; ok {
			delete(out, p.Backend)
			out[p.UI] = v
		}
	}
	return out
}

// ToBackend renames dashboard field names to backend columns. It is the exact
// inverse of ToUI because both read the same pairs.
func (s Spec) ToBackend(r Record) Record {
	out := r.Clone()
	for _, p := range s.Fields {
		if v, ok := out[p.UI]; ok {
			delete(out, p.UI)
			out[p.Backend] = v
		}
	}
	return out
}

// Registry holds the known entity specs by name
type Registry struct {
	specs map[string]Spec
}

// NewRegistry builds a registry from specs. Later specs replace earlier ones
// with the same name.
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		r.specs[s.Name] = s
	}
	return r
}

// Lookup returns the spec registered under name
func (r *Registry) Lookup(name string) (Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return Spec{}, ErrUnknownEntity
	}
	return s, nil
}

// All returns every spec sorted by name
func (r *Registry) All() []Spec {
	out := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
