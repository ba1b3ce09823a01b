package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atinylittleshell/cmdsieve/internal/history"
	"github.com/atinylittleshell/cmdsieve/internal/sieve"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// Renderer writes human-readable listings. Styling is only applied when the
// destination is a terminal.
type Renderer struct {
	w      io.Writer
	styled bool
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer, styled bool) *Renderer {
	return &Renderer{w: w, styled: styled}
}

// NewTerminalRenderer creates a Renderer for w, styled if w is a terminal.
func NewTerminalRenderer(w io.Writer) *Renderer {
	f, ok := w.(*os.File)
	return NewRenderer(w, ok && term.IsTerminal(int(f.Fd())))
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) status(success bool) string {
	if r.styled {
		return StatusSymbol(success)
	}
	if success {
		return SymbolSuccess
	}
	return SymbolError
}

// Templates lists templates with their pattern and tail size.
func (r *Renderer) Templates(infos []sieve.TemplateInfo, configPath string) {
	if configPath != "" {
		fmt.Fprintln(r.w, r.style(DimStyle, "custom templates from "+configPath))
	} else {
		fmt.Fprintln(r.w, r.style(DimStyle, "built-in templates only"))
	}

	for _, info := range infos {
		fmt.Fprintf(r.w, "\n%s\n", r.style(HeaderStyle, info.Name))
		fmt.Fprintf(r.w, "  %s\n", info.Description)
		fmt.Fprintf(r.w, "  include_regex:   %s\n", info.IncludeRegex)
		fmt.Fprintf(r.w, "  tail_paragraphs: %d\n", info.TailParagraphs)
		if info.SuppressOutputOnSuccess != nil {
			fmt.Fprintf(r.w, "  suppress_output_on_success: %t\n", *info.SuppressOutputOnSuccess)
		}
	}
}

// History lists past executions, oldest first.
func (r *Renderer) History(entries []history.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(r.w, r.style(DimStyle, "no history"))
		return
	}

	for _, entry := range entries {
		template := entry.Template
		if template == "" {
			template = "-"
		}

		meta := fmt.Sprintf("%s · exit %d · %s · %s → %s · %d → %d lines · template %s · id %d · run %s",
			humanize.Time(entry.CreatedAt),
			entry.ExitCode,
			entry.Duration.Round(time.Millisecond),
			humanize.Bytes(uint64(entry.RawBytes)),
			humanize.Bytes(uint64(entry.OutputBytes)),
			entry.RawLines,
			entry.FilteredLines,
			template,
			entry.ID,
			entry.RunID,
		)

		fmt.Fprintf(r.w, "%s %s\n  %s\n", r.status(entry.ExitCode == 0), entry.Command, r.style(DimStyle, meta))
	}
}

// Entry shows every recorded field of a single execution.
func (r *Renderer) Entry(entry *history.HistoryEntry) {
	template := entry.Template
	if template == "" {
		template = "-"
	}
	outputFile := entry.OutputFile
	if outputFile == "" {
		outputFile = "-"
	}

	fmt.Fprintf(r.w, "%s %s\n", r.status(entry.ExitCode == 0), r.style(HeaderStyle, entry.Command))
	rows := [][2]string{
		{"id", fmt.Sprintf("%d", entry.ID)},
		{"run", entry.RunID},
		{"directory", entry.Directory},
		{"started", entry.CreatedAt.Format(time.RFC3339)},
		{"duration", entry.Duration.Round(time.Millisecond).String()},
		{"exit code", fmt.Sprintf("%d", entry.ExitCode)},
		{"template", template},
		{"output", fmt.Sprintf("%s → %s, %d → %d lines",
			humanize.Bytes(uint64(entry.RawBytes)),
			humanize.Bytes(uint64(entry.OutputBytes)),
			entry.RawLines,
			entry.FilteredLines,
		)},
		{"output file", outputFile},
	}
	for _, row := range rows {
		fmt.Fprintf(r.w, "  %s %s\n", r.style(DimStyle, fmt.Sprintf("%-12s", row[0]+":")), row[1])
	}
}

// RunSummary describes a finished run in one line.
func (r *Renderer) RunSummary(resp *sieve.Response) {
	line := []string{r.status(resp.ExitCode == 0), r.style(DimStyle, resp.Summary())}
	if resp.OutputFile != nil {
		line = append(line, r.style(DimStyle, "raw output saved to "+*resp.OutputFile))
	}
	if resp.OutputFileError != nil {
		line = append(line, r.style(ErrorStyle, "output file not written: "+*resp.OutputFileError))
	}
	fmt.Fprintln(r.w, strings.Join(line, " "))
}
