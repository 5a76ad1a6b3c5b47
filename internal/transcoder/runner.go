package transcoder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"reelforge/internal/services"
)

// killGrace is how long a cancelled process may take to release its pipes.
const killGrace = 5 * time.Second

// Invocation describes one external process run.
type Invocation struct {
	Binary  string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// String renders the command line for logs.
func (i Invocation) String() string {
	return strings.Join(append([]string{i.Binary}, i.Args...), " ")
}

// Completion captures what a process produced.
type Completion struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// Diagnostic returns stderr, or stdout when stderr is empty.
func (c Completion) Diagnostic() string {
	if strings.TrimSpace(c.Stderr) != "" {
		return c.Stderr
	}
	return c.Stdout
}

// Runner executes invocations. Implementations must return a *services.ToolError
// for timeouts and non-zero exits.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Completion, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, inv Invocation) (Completion, error)

func (f RunnerFunc) Run(ctx context.Context, inv Invocation) (Completion, error) {
	return f(ctx, inv)
}

// ExecRunner runs invocations as blocking subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, inv Invocation) (Completion, error) {
	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, inv.Binary, inv.Args...) //nolint:gosec
	cmd.Dir = inv.Dir
	cmd.WaitDelay = killGrace
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	completion := Completion{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}
	if cmd.ProcessState != nil {
		completion.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return completion, nil
	}

	toolErr := &services.ToolError{
		Tool:       inv.Binary,
		ExitCode:   completion.ExitCode,
		Diagnostic: completion.Diagnostic(),
		Err:        err,
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		toolErr.TimedOut = true
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) && !toolErr.TimedOut {
		// The process never started (missing binary, bad dir).
		toolErr.ExitCode = -1
	}
	return completion, toolErr
}
