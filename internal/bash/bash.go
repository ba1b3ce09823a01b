// Package bash runs shell commands through the mvdan.cc/sh POSIX shell
// interpreter and captures their combined output.
package bash

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// SpawnFailureExitCode is reported when a command could not be run at all.
const SpawnFailureExitCode = 1

// ExecutionResult is the outcome of one command invocation.
type ExecutionResult struct {
	ExitCode int
	Output   string // stdout and stderr, interleaved in arrival order
}

// ExecMiddleware wraps the handler that launches external programs, in the
// same shape as interp.ExecHandlers middleware.
type ExecMiddleware = func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc

// Executor runs commands in fresh shell interpreters. Each call to Execute
// gets its own runner, so concurrent calls share no state.
type Executor struct {
	logger       *zap.Logger
	execHandlers []ExecMiddleware
}

// NewExecutor creates an Executor. The logger is optional (can be nil).
// The execHandlers are optional middleware around external program launches.
func NewExecutor(logger *zap.Logger, execHandlers ...ExecMiddleware) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		logger:       logger,
		execHandlers: execHandlers,
	}
}

// Execute runs command and waits for it to finish. Standard input is not
// connected. It never returns an error: if the command cannot be run, the
// result carries SpawnFailureExitCode and a diagnostic message instead.
func (e *Executor) Execute(ctx context.Context, command string) ExecutionResult {
	output := &threadSafeBuffer{}

	exitCode, err := e.run(ctx, command, output)
	if err != nil {
		e.logger.Warn("command could not be executed", zap.String("command", command), zap.Error(err))
		return ExecutionResult{
			ExitCode: SpawnFailureExitCode,
			Output:   fmt.Sprintf("Error executing command: %v", err),
		}
	}

	e.logger.Debug("command finished", zap.String("command", command), zap.Int("exitCode", exitCode))
	return ExecutionResult{
		ExitCode: exitCode,
		Output:   output.String(),
	}
}

// run returns the command's exit status, or an error if it could not be run.
// A non-zero exit status is not an error.
func (e *Executor) run(ctx context.Context, command string, output *threadSafeBuffer) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return SpawnFailureExitCode, fmt.Errorf("failed to parse command: %w", err)
	}

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, output, output),
		interp.ExecHandlers(e.execHandlers...),
	)
	if err != nil {
		return SpawnFailureExitCode, fmt.Errorf("failed to create shell runner: %w", err)
	}

	err = runner.Run(ctx, prog)
	if err == nil {
		return 0, nil
	}

	var exitStatus interp.ExitStatus
	if errors.As(err, &exitStatus) {
		return int(exitStatus), nil
	}
	return SpawnFailureExitCode, err
}

// threadSafeBuffer provides a thread-safe wrapper around bytes.Buffer.
// Both output streams write to the same buffer.
type threadSafeBuffer struct {
	buffer bytes.Buffer
	mutex  sync.Mutex
}

// Write implements io.Writer interface
func (b *threadSafeBuffer) Write(p []byte) (n int, err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.Write(p)
}

// String returns the contents of the buffer as a string
func (b *threadSafeBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.String()
}
