package bash

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/interp"
)

func TestExecutor_Execute(t *testing.T) {
	tests := []struct {
		name             string
		command          string
		expectedExitCode int
		expectedOutput   string
	}{
		{
			name:             "simple echo",
			command:          "echo hello",
			expectedExitCode: 0,
			expectedOutput:   "hello\n",
		},
		{
			name:             "stdout and stderr in order",
			command:          "echo out; echo err 1>&2; echo out2",
			expectedExitCode: 0,
			expectedOutput:   "out\nerr\nout2\n",
		},
		{
			name:             "explicit exit code",
			command:          "echo failing; exit 3",
			expectedExitCode: 3,
			expectedOutput:   "failing\n",
		},
		{
			name:             "false builtin",
			command:          "false",
			expectedExitCode: 1,
			expectedOutput:   "",
		},
		{
			name:             "operators",
			command:          "false || echo recovered && echo done",
			expectedExitCode: 0,
			expectedOutput:   "recovered\ndone\n",
		},
		{
			name:             "pipeline",
			command:          "printf 'a\\nb\\nc\\n' | grep b",
			expectedExitCode: 0,
			expectedOutput:   "b\n",
		},
		{
			name:             "empty command",
			command:          "",
			expectedExitCode: 0,
			expectedOutput:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := NewExecutor(nil)
			result := exec.Execute(context.Background(), tt.command)
			assert.Equal(t, tt.expectedExitCode, result.ExitCode)
			assert.Equal(t, tt.expectedOutput, result.Output)
		})
	}
}

func TestExecutor_ExternalProgramStreams(t *testing.T) {
	exec := NewExecutor(zap.NewNop())

	result := exec.Execute(context.Background(), "sh -c 'echo one; echo two >&2; exit 4'")

	assert.Equal(t, 4, result.ExitCode)
	assert.Contains(t, result.Output, "one\n")
	assert.Contains(t, result.Output, "two\n")
}

func TestExecutor_CommandNotFound(t *testing.T) {
	exec := NewExecutor(nil)

	result := exec.Execute(context.Background(), "cmdsieve-definitely-not-a-command --flag")

	assert.Equal(t, 127, result.ExitCode)
	assert.Contains(t, result.Output, "cmdsieve-definitely-not-a-command")
}

func TestExecutor_ParseErrorIsSpawnFailure(t *testing.T) {
	exec := NewExecutor(nil)

	result := exec.Execute(context.Background(), `echo "unterminated`)

	assert.Equal(t, SpawnFailureExitCode, result.ExitCode)
	assert.True(t, strings.HasPrefix(result.Output, "Error executing command: "), result.Output)
}

func TestExecutor_StdinNotConnected(t *testing.T) {
	exec := NewExecutor(nil)

	result := exec.Execute(context.Background(), "cat; echo after")

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "after\n", result.Output)
}

func TestExecutor_ConcurrentInvocationsAreIndependent(t *testing.T) {
	exec := NewExecutor(nil)

	var wg sync.WaitGroup
	results := make([]ExecutionResult, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = exec.Execute(context.Background(), fmt.Sprintf("X=%d; echo value $X; exit %d", i, i))
		}(i)
	}
	wg.Wait()

	for i, result := range results {
		assert.Equal(t, i, result.ExitCode)
		assert.Equal(t, fmt.Sprintf("value %d\n", i), result.Output)
	}
}

func TestExecutor_VariablesDoNotLeakBetweenCalls(t *testing.T) {
	exec := NewExecutor(nil)

	first := exec.Execute(context.Background(), "CMDSIEVE_TEST_VAR=set")
	require.Equal(t, 0, first.ExitCode)

	second := exec.Execute(context.Background(), `echo "[$CMDSIEVE_TEST_VAR]"`)
	assert.Equal(t, "[]\n", second.Output)
}

func TestExecutor_ExecMiddleware(t *testing.T) {
	var mu sync.Mutex
	var launched []string
	recorder := func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			mu.Lock()
			launched = append(launched, args[0])
			mu.Unlock()
			return next(ctx, args)
		}
	}

	exec := NewExecutor(nil, NewLoggingExecMiddleware(zap.NewNop()), recorder)
	result := exec.Execute(context.Background(), "echo builtin; sh -c 'echo external'")

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "builtin\nexternal\n", result.Output)
	assert.Equal(t, []string{"sh"}, launched)
}
