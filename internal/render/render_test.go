package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/atinylittleshell/cmdsieve/internal/history"
	"github.com/atinylittleshell/cmdsieve/internal/sieve"
	"github.com/atinylittleshell/cmdsieve/internal/templates"
	"github.com/stretchr/testify/assert"
)

func TestRenderer_Templates(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	r.Templates([]sieve.TemplateInfo{
		{Name: "go_test", Description: "go tests", IncludeRegex: "^FAIL", TailParagraphs: 1},
		{Name: "tail", Description: "last lines", IncludeRegex: "$^", TailParagraphs: 3, SuppressOutputOnSuccess: templates.Bool(false)},
	}, "/project/.cmdsieve/config.yaml")

	expected := `custom templates from /project/.cmdsieve/config.yaml

go_test
  go tests
  include_regex:   ^FAIL
  tail_paragraphs: 1

tail
  last lines
  include_regex:   $^
  tail_paragraphs: 3
  suppress_output_on_success: false
`
	assert.Equal(t, expected, buf.String())
}

func TestRenderer_TemplatesBuiltinOnly(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf, false).Templates(nil, "")

	assert.Equal(t, "built-in templates only\n", buf.String())
}

func TestRenderer_History(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	r.History([]history.HistoryEntry{
		{
			CreatedAt:     time.Now().Add(-2 * time.Hour),
			Command:       "go test ./...",
			Template:      "go_test",
			ExitCode:      1,
			Duration:      1234567 * time.Microsecond,
			RawBytes:      2000,
			OutputBytes:   100,
			RawLines:      50,
			FilteredLines: 3,
		},
		{
			CreatedAt: time.Now(),
			Command:   "make",
		},
	})

	out := buf.String()
	assert.Contains(t, out, "✗ go test ./...\n")
	assert.Contains(t, out, "2 hours ago · exit 1 · 1.235s · 2.0 kB → 100 B · 50 → 3 lines · template go_test")
	assert.Contains(t, out, "✓ make\n")
	assert.Contains(t, out, "template -")
	assert.Contains(t, out, "id 0 · run ")
}

func TestRenderer_Entry(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	NewRenderer(&buf, false).Entry(&history.HistoryEntry{
		ID:            7,
		CreatedAt:     created,
		RunID:         "run-123",
		Command:       "make build",
		Directory:     "/project",
		ExitCode:      2,
		Duration:      1500 * time.Millisecond,
		RawBytes:      3000,
		OutputBytes:   120,
		RawLines:      40,
		FilteredLines: 2,
	})

	expected := `✗ make build
  id:          7
  run:         run-123
  directory:   /project
  started:     2026-10-18T09:30:00Z
  duration:    1.5s
  exit code:   2
  template:    -
  output:      3.0 kB → 120 B, 40 → 2 lines
  output file: -
`
	assert.Equal(t, expected, buf.String())
}

func TestRenderer_HistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf, false).History(nil)

	assert.Equal(t, "no history\n", buf.String())
}

func TestRenderer_RunSummary(t *testing.T) {
	name := "go_test"
	path := "/tmp/out.log"
	problem := "permission denied"

	tests := []struct {
		name     string
		resp     *sieve.Response
		expected string
	}{
		{
			name:     "success",
			resp:     &sieve.Response{Result: sieve.ResultSuccess},
			expected: "✓ success (exit code 0, template none)\n",
		},
		{
			name:     "failure with output file",
			resp:     &sieve.Response{Result: sieve.ResultFailure, ExitCode: 2, TemplateUsed: &name, OutputFile: &path},
			expected: "✗ failure (exit code 2, template go_test) raw output saved to /tmp/out.log\n",
		},
		{
			name:     "output file error",
			resp:     &sieve.Response{Result: sieve.ResultSuccess, OutputFileError: &problem},
			expected: "✓ success (exit code 0, template none) output file not written: permission denied\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewRenderer(&buf, false).RunSummary(tt.resp)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}
