package templates

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// TemplatesKey is the top-level key holding template definitions.
const TemplatesKey = "templates"

// ErrMissingTemplates is returned when a config file has no template collection.
var ErrMissingTemplates = errors.New("config file has no \"" + TemplatesKey + "\" mapping")

// TemplateError describes a single template definition that was rejected.
type TemplateError struct {
	Name   string
	Reason string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: %s", e.Name, e.Reason)
}

// Loader reads template definitions from YAML config files.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new template loader. The logger may be nil.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
	}
}

// LoadResult contains the templates accepted from a config file and the
// reasons any other definitions were skipped.
type LoadResult struct {
	Templates Set
	Errors    []error
}

// LoadFromFile loads templates from the config file at path.
// Structural problems with the file are returned as an error; invalid
// individual templates are reported in LoadResult.Errors instead.
func (l *Loader) LoadFromFile(path string) (*LoadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := l.LoadFromBytes(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

// LoadFromBytes loads templates from YAML content.
func (l *Loader) LoadFromBytes(content []byte) (*LoadResult, error) {
	var document map[string]yaml.Node
	if err := yaml.Unmarshal(content, &document); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	node, ok := document[TemplatesKey]
	if !ok {
		return nil, ErrMissingTemplates
	}
	collection := resolveAlias(&node)
	if collection == nil || collection.Kind != yaml.MappingNode {
		return nil, ErrMissingTemplates
	}

	result := &LoadResult{
		Templates: make(Set),
		Errors:    []error{},
	}

	for _, entry := range mappingEntries(collection, 0) {
		tmpl, err := parseTemplate(entry.key, entry.value)
		if err != nil {
			l.logger.Warn("skipping invalid template", zap.String("template", entry.key), zap.Error(err))
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Templates[entry.key] = tmpl
	}

	return result, nil
}

// maxMergeDepth bounds how deeply merge keys are followed, which also stops
// self-referencing anchors.
const maxMergeDepth = 16

type mappingEntry struct {
	key   string
	value *yaml.Node
}

// resolveAlias follows alias nodes to the node they refer to.
func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// mappingEntries returns the key/value pairs of a mapping in document order
// with aliases resolved and "<<" merge keys expanded. Keys written in the
// mapping itself win over merged ones; among merged mappings the first one
// listed wins.
func mappingEntries(node *yaml.Node, depth int) []mappingEntry {
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode || depth > maxMergeDepth {
		return nil
	}

	var explicit, merged []mappingEntry
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.ShortTag() == "!!merge" {
			merged = append(merged, mergedEntries(value, depth+1)...)
			continue
		}
		explicit = append(explicit, mappingEntry{key: key.Value, value: resolveAlias(value)})
	}

	seen := make(map[string]bool, len(explicit))
	entries := make([]mappingEntry, 0, len(explicit)+len(merged))
	for _, entry := range append(explicit, merged...) {
		if seen[entry.key] {
			continue
		}
		seen[entry.key] = true
		entries = append(entries, entry)
	}
	return entries
}

func mergedEntries(value *yaml.Node, depth int) []mappingEntry {
	value = resolveAlias(value)
	if value == nil {
		return nil
	}
	if value.Kind == yaml.SequenceNode {
		var entries []mappingEntry
		for _, item := range value.Content {
			entries = append(entries, mappingEntries(item, depth)...)
		}
		return entries
	}
	return mappingEntries(value, depth)
}

func parseTemplate(name string, node *yaml.Node) (Template, error) {
	invalid := func(format string, args ...any) (Template, error) {
		return Template{}, &TemplateError{Name: name, Reason: fmt.Sprintf(format, args...)}
	}

	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return invalid("definition must be a mapping")
	}

	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for _, entry := range mappingEntries(node, 0) {
		fields[entry.key] = entry.value
	}

	var tmpl Template

	description, ok := fields["description"]
	if !ok || description.ShortTag() != "!!str" {
		return invalid("description must be a string")
	}
	tmpl.Description = description.Value

	include, ok := fields["include_regex"]
	if !ok || include.ShortTag() != "!!str" {
		return invalid("include_regex must be a string")
	}
	if _, err := regexp.Compile(include.Value); err != nil {
		return invalid("include_regex does not compile: %v", err)
	}
	tmpl.IncludeRegex = include.Value

	tail, ok := fields["tail_paragraphs"]
	if !ok || tail.ShortTag() != "!!int" {
		return invalid("tail_paragraphs must be an integer")
	}
	if err := tail.Decode(&tmpl.TailParagraphs); err != nil {
		return invalid("tail_paragraphs: %v", err)
	}
	if tmpl.TailParagraphs < 0 {
		return invalid("tail_paragraphs must not be negative, got %d", tmpl.TailParagraphs)
	}

	if suppress, ok := fields["suppress_output_on_success"]; ok {
		if suppress.ShortTag() != "!!bool" {
			return invalid("suppress_output_on_success must be a boolean")
		}
		var value bool
		if err := suppress.Decode(&value); err != nil {
			return invalid("suppress_output_on_success: %v", err)
		}
		tmpl.SuppressOutputOnSuccess = &value
	}

	return tmpl, nil
}
