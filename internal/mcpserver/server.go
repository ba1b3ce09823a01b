// Package mcpserver exposes cmdsieve over the Model Context Protocol so
// agents can run commands and receive filtered output.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/atinylittleshell/cmdsieve/internal/sieve"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	ServerName = "cmdsieve"

	RunCommandTool      = "run_command"
	ListTemplatesTool   = "list_templates"
	ReloadTemplatesTool = "reload_templates"
)

// RunCommandInput is the argument object of the run_command tool.
type RunCommandInput struct {
	Command                 string `json:"command" jsonschema:"the shell command to execute"`
	Template                string `json:"template,omitempty" jsonschema:"name of the output filtering template to apply"`
	SuppressOutputOnSuccess *bool  `json:"suppress_output_on_success,omitempty" jsonschema:"replace the output with a short notice when the command exits with 0 (default true)"`
	OutputFile              string `json:"output_file,omitempty" jsonschema:"file or directory to save the raw unfiltered output to"`
}

// ListTemplatesOutput is the result of the list_templates tool.
type ListTemplatesOutput struct {
	Templates []sieve.TemplateInfo `json:"templates"`
}

// ReloadTemplatesOutput is the result of the reload_templates tool.
type ReloadTemplatesOutput struct {
	Templates []string `json:"templates"`
}

// Server serves the cmdsieve tools.
type Server struct {
	service *sieve.Service
	logger  *zap.Logger
	server  *mcp.Server
}

// New creates a Server backed by service. The logger may be nil.
func New(service *sieve.Service, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		service: service,
		logger:  logger,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        RunCommandTool,
		Description: s.runCommandDescription(),
	}, s.handleRunCommand)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ListTemplatesTool,
		Description: "List the output filtering templates available to run_command, including project-defined ones.",
	}, s.handleListTemplates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ReloadTemplatesTool,
		Description: "Reload the template definitions from the project config file.",
	}, s.handleReloadTemplates)
}

func (s *Server) runCommandDescription() string {
	names := make([]string, 0)
	for _, info := range s.service.ListTemplates() {
		names = append(names, info.Name)
	}
	return fmt.Sprintf(
		"Execute a shell command and return its exit code with a reduced view of its output. "+
			"Name a template to keep only relevant lines (errors, failures, summaries). "+
			"Output of successful commands is suppressed unless suppress_output_on_success is false. "+
			"Templates at startup: %s.",
		strings.Join(names, ", "),
	)
}

// Run serves requests on transport until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("mcp server starting")
	return s.server.Run(ctx, transport)
}

// connect serves a single session on transport without blocking.
func (s *Server) connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) handleRunCommand(ctx context.Context, req *mcp.CallToolRequest, input RunCommandInput) (
	*mcp.CallToolResult,
	sieve.Response,
	error,
) {
	resp, err := s.service.Run(ctx, sieve.Request{
		Command:                 input.Command,
		Template:                input.Template,
		SuppressOutputOnSuccess: input.SuppressOutputOnSuccess,
		OutputFile:              input.OutputFile,
	})
	if err != nil {
		s.logger.Info("run_command rejected", zap.Error(err))
		return nil, sieve.Response{}, err
	}
	return nil, *resp, nil
}

func (s *Server) handleListTemplates(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (
	*mcp.CallToolResult,
	ListTemplatesOutput,
	error,
) {
	return nil, ListTemplatesOutput{Templates: s.service.ListTemplates()}, nil
}

func (s *Server) handleReloadTemplates(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (
	*mcp.CallToolResult,
	ReloadTemplatesOutput,
	error,
) {
	s.service.ReloadTemplates()

	names := make([]string, 0)
	for _, info := range s.service.ListTemplates() {
		names = append(names, info.Name)
	}
	return nil, ReloadTemplatesOutput{Templates: names}, nil
}
