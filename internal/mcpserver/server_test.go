package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/atinylittleshell/cmdsieve/internal/bash"
	"github.com/atinylittleshell/cmdsieve/internal/sieve"
	"github.com/atinylittleshell/cmdsieve/internal/templates"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	result bash.ExecutionResult
	calls  int
}

func (e *stubExecutor) Execute(ctx context.Context, command string) bash.ExecutionResult {
	e.calls++
	return e.result
}

func newTestSession(t *testing.T, exec *stubExecutor) *mcp.ClientSession {
	t.Helper()

	manager := templates.NewManager(templates.ManagerOptions{
		StartDir: t.TempDir(),
		Discover: func(string) (string, bool) { return "", false },
	})
	service, err := sieve.NewService(sieve.Options{Executor: exec, Templates: manager})
	require.NoError(t, err)

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	server := New(service, nil, "test")
	serverSession, err := server.connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func decodeStructured(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestServer_ListsTools(t *testing.T) {
	session := newTestSession(t, &stubExecutor{})

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{RunCommandTool, ListTemplatesTool, ReloadTemplatesTool}, names)
}

func TestServer_RunCommand(t *testing.T) {
	exec := &stubExecutor{result: bash.ExecutionResult{
		ExitCode: 1,
		Output:   "=== RUN TestA\n--- FAIL: TestA (0.00s)\n\nFAIL\tpkg\t0.01s\n",
	}}
	session := newTestSession(t, exec)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: RunCommandTool,
		Arguments: map[string]any{
			"command":  "go test ./...",
			"template": "go_test",
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var resp sieve.Response
	decodeStructured(t, result, &resp)
	assert.Equal(t, sieve.ResultFailure, resp.Result)
	assert.Equal(t, 1, resp.ExitCode)
	assert.Contains(t, resp.Output, "--- FAIL: TestA")
	assert.NotContains(t, resp.Output, "=== RUN")
	require.NotNil(t, resp.TemplateUsed)
	assert.Equal(t, "go_test", *resp.TemplateUsed)
	assert.Equal(t, 1, exec.calls)
}

func TestServer_RunCommandSuppressesSuccess(t *testing.T) {
	exec := &stubExecutor{result: bash.ExecutionResult{ExitCode: 0, Output: "ok\n"}}
	session := newTestSession(t, exec)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      RunCommandTool,
		Arguments: map[string]any{"command": "true"},
	})
	require.NoError(t, err)

	var resp sieve.Response
	decodeStructured(t, result, &resp)
	assert.Equal(t, sieve.ResultSuccess, resp.Result)
	assert.Equal(t, sieve.SuppressedOutputMessage, resp.Output)
	assert.Nil(t, resp.TemplateUsed)
}

func TestServer_UnknownTemplateIsToolError(t *testing.T) {
	exec := &stubExecutor{}
	session := newTestSession(t, exec)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: RunCommandTool,
		Arguments: map[string]any{
			"command":  "go test ./...",
			"template": "no_such_template",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `template "no_such_template" not found`)
	assert.Contains(t, text.Text, "go_test")
	assert.Equal(t, 0, exec.calls)
}

func TestServer_ListTemplates(t *testing.T) {
	session := newTestSession(t, &stubExecutor{})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ListTemplatesTool,
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ListTemplatesOutput
	decodeStructured(t, result, &out)
	require.Len(t, out.Templates, len(templates.Builtins()))

	var names []string
	for _, info := range out.Templates {
		names = append(names, info.Name)
	}
	assert.Equal(t, templates.Builtins().Names(), names)
}

func TestServer_ReloadTemplates(t *testing.T) {
	session := newTestSession(t, &stubExecutor{})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      ReloadTemplatesTool,
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out ReloadTemplatesOutput
	decodeStructured(t, result, &out)
	assert.Equal(t, templates.Builtins().Names(), out.Templates)
}
