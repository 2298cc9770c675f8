// Package theme maps theme names to the CSS custom properties the dashboard
// applies to its root element.
package theme

import (
	"sort"
	"strings"
)

// Tokens maps a custom property name (without the leading --) to its value
type Tokens map[string]string

// Theme is a named token set
type Theme struct {
	Name   string `json:"name"`
	Tokens Tokens `json:"tokens"`
}

var builtin = map[string]Tokens{
	"light": {
		"background":         "#ffffff",
		"foreground":         "#1f2933",
		"primary":            "#2f855a",
		"primary-foreground": "#ffffff",
		"secondary":          "#f6e05e",
		"muted":              "#f1f5f9",
		"border":             "#e2e8f0",
		"danger":             "#c53030",
		"radius":             "0.5rem",
	},
	"dark": {
		"background":         "#111827",
		"foreground":         "#f9fafb",
		"primary":            "#48bb78",
		"primary-foreground": "#111827",
		"secondary":          "#d69e2e",
		"muted":              "#1f2937",
		"border":             "#374151",
		"danger":             "#f56565",
		"radius":             "0.5rem",
	},
	"savane": {
		"background":         "#fdf8ee",
		"foreground":         "#3e2c1c",
		"primary":            "#b7791f",
		"primary-foreground": "#ffffff",
		"secondary":          "#38a169",
		"muted":              "#f5ebd6",
		"border":             "#e6d3ad",
		"danger":             "#c05621",
		"radius":             "0.75rem",
	},
}

// Registry resolves theme names, falling back to a default theme
type Registry struct {
	themes   map[string]Tokens
	fallback string
}

// NewRegistry creates a registry over the built-in themes. An unknown
// fallback name is replaced with "light".
func NewRegistry(fallback string) *Registry {
	if _, ok := builtin[fallback]; !ok {
		fallback = "light"
	}
	return &Registry{themes: builtin, fallback: fallback}
}

// Names lists the known themes, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.themes))
	for name := range r.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the theme called name, or the fallback theme
func (r *Registry) Resolve(name string) Theme {
	name = strings.ToLower(strings.TrimSpace(name))
	tokens, ok := r.themes[name]
	if !ok {
		name = r.fallback
		tokens = r.themes[name]
	}

	copied := make(Tokens, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return Theme{Name: name, Tokens: copied}
}

// CSS renders tokens as a :root rule with properties in name order
func CSS(tokens Tokens) string {
	keys := make([]string, 0, len(tokens))
	for k := range tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root{")
	for _, k := range keys {
		b.WriteString("--")
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(tokens[k])
		b.WriteByte(';')
	}
	b.WriteString("}")
	return b.String()
}
