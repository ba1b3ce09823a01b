// Package filter reduces raw command output to the lines a template selects.
// Output is segmented into paragraphs (runs of non-blank lines); lines that
// match the template's pattern are kept together with the trailing
// paragraphs, which usually carry the final summary of a tool run.
package filter

import "strings"

// Paragraph is an ordered run of non-blank lines. Lines are kept verbatim
// apart from a CRLF line ending.
type Paragraph []string

// ParseParagraphs splits text into paragraphs. One or more blank lines end
// the current paragraph; leading and trailing blank runs produce nothing.
// Both "\n" and "\r\n" end a line.
func ParseParagraphs(text string) []Paragraph {
	var paragraphs []Paragraph
	var current Paragraph

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if isBlank(line) {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}

	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}

	return paragraphs
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
