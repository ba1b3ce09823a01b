// Package templates manages the named filtering rules applied to command
// output. A fixed set of built-in templates ships with cmdsieve; projects
// add or override templates in a .cmdsieve/config.yaml file found by
// walking up from the working directory.
package templates

import (
	"sort"

	"github.com/samber/lo"
)

// Template is a named filtering rule.
type Template struct {
	Description    string `yaml:"description" json:"description"`
	IncludeRegex   string `yaml:"include_regex" json:"include_regex"`
	TailParagraphs int    `yaml:"tail_paragraphs" json:"tail_paragraphs"`

	// SuppressOutputOnSuccess overrides the caller's suppression flag when set.
	SuppressOutputOnSuccess *bool `yaml:"suppress_output_on_success,omitempty" json:"suppress_output_on_success,omitempty"`
}

// Set maps template names to templates. Names are case-sensitive.
type Set map[string]Template

// Clone returns a shallow copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name, tmpl := range s {
		out[name] = tmpl
	}
	return out
}

// Names returns the template names in s, sorted.
func (s Set) Names() []string {
	names := lo.Keys(s)
	sort.Strings(names)
	return names
}

// Merge overlays custom on top of base. A custom template replaces the base
// template of the same name entirely. It returns the merged set and the
// number of base templates that were replaced.
func Merge(base, custom Set) (Set, int) {
	merged := base.Clone()
	overrides := 0
	for name, tmpl := range custom {
		if _, exists := merged[name]; exists {
			overrides++
		}
		merged[name] = tmpl
	}
	return merged, overrides
}

// Bool returns a pointer to b, for building templates with a suppression
// override.
func Bool(b bool) *bool {
	return &b
}
