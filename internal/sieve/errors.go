package sieve

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

const maxSuggestions = 3

// UnknownTemplateError is returned when a request names a template that is
// neither built in nor defined in the project config.
type UnknownTemplateError struct {
	Name        string
	Available   []string
	Suggestions []string
}

func newUnknownTemplateError(name string, available []string) *UnknownTemplateError {
	err := &UnknownTemplateError{
		Name:      name,
		Available: available,
	}
	for _, match := range fuzzy.Find(name, available) {
		if len(err.Suggestions) == maxSuggestions {
			break
		}
		err.Suggestions = append(err.Suggestions, match.Str)
	}
	return err
}

func (e *UnknownTemplateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "template %q not found", e.Name)
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	fmt.Fprintf(&b, "; available templates: %s", strings.Join(e.Available, ", "))
	return b.String()
}
