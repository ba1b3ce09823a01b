package filter

import (
	"regexp"
	"strings"

	"github.com/atinylittleshell/cmdsieve/internal/templates"
	"github.com/samber/lo"
)

// Apply reduces raw to the lines selected by tmpl: every line matching
// IncludeRegex, followed by every line of the last TailParagraphs
// paragraphs, deduplicated by exact text with the first occurrence kept.
//
// If the pattern does not compile, raw is returned unchanged. Templates are
// validated when loaded, so this only happens for hand-built values.
func Apply(raw string, tmpl templates.Template) string {
	if isBlank(raw) {
		return ""
	}

	paragraphs := ParseParagraphs(raw)
	if len(paragraphs) == 0 {
		return ""
	}

	pattern, err := regexp.Compile(tmpl.IncludeRegex)
	if err != nil {
		return raw
	}

	var matched []string
	for _, paragraph := range paragraphs {
		for _, line := range paragraph {
			if pattern.MatchString(line) {
				matched = append(matched, line)
			}
		}
	}

	combined := append(matched, tailLines(paragraphs, tmpl.TailParagraphs)...)

	return strings.Join(lo.Uniq(combined), "\n")
}

// tailLines flattens the last n paragraphs. A non-positive n selects none.
func tailLines(paragraphs []Paragraph, n int) []string {
	n = max(0, n)
	if n > len(paragraphs) {
		n = len(paragraphs)
	}

	var lines []string
	for _, paragraph := range paragraphs[len(paragraphs)-n:] {
		lines = append(lines, paragraph...)
	}
	return lines
}

// Stats describes how much a filter pass reduced the output.
type Stats struct {
	RawLines      int
	FilteredLines int
}

// Measure counts the lines of raw and filtered output.
func Measure(raw, filtered string) Stats {
	return Stats{
		RawLines:      countLines(raw),
		FilteredLines: countLines(filtered),
	}
}

// countLines counts lines the way an editor shows them; a trailing newline
// does not start another line.
func countLines(s string) int {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
