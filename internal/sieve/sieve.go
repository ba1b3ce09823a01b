// Package sieve runs a command and turns its output into the structured
// response handed back to callers: the output is reduced with the selected
// template, replaced by a short notice when a successful run needs no
// attention, and optionally saved unfiltered to a file.
package sieve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atinylittleshell/cmdsieve/internal/bash"
	"github.com/atinylittleshell/cmdsieve/internal/filter"
	"github.com/atinylittleshell/cmdsieve/internal/history"
	"github.com/atinylittleshell/cmdsieve/internal/outputfile"
	"github.com/atinylittleshell/cmdsieve/internal/templates"
	"go.uber.org/zap"
)

// SuppressedOutputMessage replaces the output of successful commands when
// suppression is in effect.
const SuppressedOutputMessage = "Command completed successfully (exit code 0). Output suppressed."

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ErrCommandRequired is returned when a request has no command to run.
var ErrCommandRequired = errors.New("command is required")

// Request describes one command invocation.
type Request struct {
	Command                 string `json:"command"`
	Template                string `json:"template,omitempty"`
	SuppressOutputOnSuccess *bool  `json:"suppress_output_on_success,omitempty"`
	OutputFile              string `json:"output_file,omitempty"`
}

// Response is the structured result of Run.
type Response struct {
	Result          string  `json:"result"`
	ExitCode        int     `json:"exit_code"`
	Output          string  `json:"output"`
	TemplateUsed    *string `json:"template_used"`
	OutputFile      *string `json:"output_file,omitempty"`
	OutputFileError *string `json:"output_file_error,omitempty"`
}

// TemplateInfo describes a template in listings.
type TemplateInfo struct {
	Name                    string `json:"name"`
	Description             string `json:"description"`
	IncludeRegex            string `json:"include_regex"`
	TailParagraphs          int    `json:"tail_paragraphs"`
	SuppressOutputOnSuccess *bool  `json:"suppress_output_on_success,omitempty"`
}

// Executor runs a shell command.
type Executor interface {
	Execute(ctx context.Context, command string) bash.ExecutionResult
}

// TemplateSource resolves templates by name.
type TemplateSource interface {
	GetTemplate(name string) (templates.Template, bool)
	GetAvailableTemplates() templates.Set
	Names() []string
	Reload()
}

// Recorder stores finished executions.
type Recorder interface {
	Record(entry *history.HistoryEntry) error
}

// Options configures a Service.
type Options struct {
	Logger    *zap.Logger
	Executor  Executor
	Templates TemplateSource

	// History is optional; when nil, executions are not recorded.
	History Recorder

	// Now replaces the clock, mainly for tests.
	Now func() time.Time

	// Getwd resolves the directory recorded with history entries.
	// Defaults to os.Getwd.
	Getwd func() (string, error)
}

// Service runs commands and shapes their output.
type Service struct {
	logger    *zap.Logger
	executor  Executor
	templates TemplateSource
	history   Recorder
	now       func() time.Time
	getwd     func() (string, error)
}

// NewService creates a Service.
func NewService(opts Options) (*Service, error) {
	if opts.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if opts.Templates == nil {
		return nil, errors.New("template source is required")
	}

	s := &Service{
		logger:    opts.Logger,
		executor:  opts.Executor,
		templates: opts.Templates,
		history:   opts.History,
		now:       opts.Now,
		getwd:     opts.Getwd,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.getwd == nil {
		s.getwd = os.Getwd
	}
	return s, nil
}

// Run executes the requested command and builds its response.
//
// Caller mistakes (no command, unknown template) are returned as errors and
// no command is run. A command that fails, or cannot be started, is an
// ordinary response with a non-zero exit code.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Command) == "" {
		return nil, ErrCommandRequired
	}

	var tmpl *templates.Template
	if req.Template != "" {
		found, ok := s.templates.GetTemplate(req.Template)
		if !ok {
			return nil, newUnknownTemplateError(req.Template, s.templates.Names())
		}
		tmpl = &found
	}

	start := s.now()
	result := s.executor.Execute(ctx, req.Command)
	duration := s.now().Sub(start)

	output := result.Output
	if tmpl != nil {
		output = filter.Apply(result.Output, *tmpl)
	}
	stats := filter.Measure(result.Output, output)

	suppress := true
	if req.SuppressOutputOnSuccess != nil {
		suppress = *req.SuppressOutputOnSuccess
	}
	var override *bool
	if tmpl != nil {
		override = tmpl.SuppressOutputOnSuccess
	}
	output = ApplySuppression(result.ExitCode, output, suppress, override)

	resp := &Response{
		Result:   ResultFailure,
		ExitCode: result.ExitCode,
		Output:   output,
	}
	if result.ExitCode == 0 {
		resp.Result = ResultSuccess
	}
	if tmpl != nil {
		name := req.Template
		resp.TemplateUsed = &name
	}

	if req.OutputFile != "" {
		s.writeOutputFile(resp, req.OutputFile, result.Output)
	}

	s.logger.Info("command completed",
		zap.String("command", req.Command),
		zap.String("template", req.Template),
		zap.Int("exitCode", result.ExitCode),
		zap.Duration("duration", duration),
		zap.Int("rawLines", stats.RawLines),
		zap.Int("filteredLines", stats.FilteredLines),
	)

	s.record(req, resp, result, stats, duration)

	return resp, nil
}

// ApplySuppression replaces output with SuppressedOutputMessage when the
// command succeeded and suppression is in effect. A template override, when
// present, takes precedence over the caller's flag.
func ApplySuppression(exitCode int, output string, suppress bool, override *bool) string {
	if override != nil {
		suppress = *override
	}
	if suppress && exitCode == 0 {
		return SuppressedOutputMessage
	}
	return output
}

// ListTemplates describes every template in the merged set, sorted by name.
func (s *Service) ListTemplates() []TemplateInfo {
	set := s.templates.GetAvailableTemplates()
	infos := make([]TemplateInfo, 0, len(set))
	for _, name := range set.Names() {
		tmpl := set[name]
		infos = append(infos, TemplateInfo{
			Name:                    name,
			Description:             tmpl.Description,
			IncludeRegex:            tmpl.IncludeRegex,
			TailParagraphs:          tmpl.TailParagraphs,
			SuppressOutputOnSuccess: tmpl.SuppressOutputOnSuccess,
		})
	}
	return infos
}

// ReloadTemplates forces the template set to be loaded again on next use.
func (s *Service) ReloadTemplates() {
	s.templates.Reload()
}

func (s *Service) writeOutputFile(resp *Response, target, raw string) {
	path, err := outputfile.Write(target, raw, s.now())
	if err != nil {
		s.logger.Warn("failed to write output file", zap.String("target", target), zap.Error(err))
		message := err.Error()
		resp.OutputFileError = &message
		return
	}
	resp.OutputFile = &path
}

func (s *Service) record(req Request, resp *Response, result bash.ExecutionResult, stats filter.Stats, duration time.Duration) {
	if s.history == nil {
		return
	}

	dir, err := s.getwd()
	if err != nil {
		s.logger.Debug("cannot determine working directory for history entry", zap.Error(err))
		dir = ""
	}
	entry := &history.HistoryEntry{
		Command:       req.Command,
		Directory:     dir,
		Template:      req.Template,
		ExitCode:      result.ExitCode,
		Duration:      duration,
		RawBytes:      len(result.Output),
		OutputBytes:   len(resp.Output),
		RawLines:      stats.RawLines,
		FilteredLines: stats.FilteredLines,
	}
	if resp.OutputFile != nil {
		entry.OutputFile = *resp.OutputFile
	}

	if err := s.history.Record(entry); err != nil {
		s.logger.Warn("failed to record history entry", zap.Error(err))
	}
}

// Summary renders a response for logs and terminals.
func (r *Response) Summary() string {
	template := "none"
	if r.TemplateUsed != nil {
		template = *r.TemplateUsed
	}
	return fmt.Sprintf("%s (exit code %d, template %s)", r.Result, r.ExitCode, template)
}
