package rnx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobletlabs/joblet-mcp/internal/procutil"
)

// ExecutionResult captures one finished invocation of the external binary.
type ExecutionResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor runs external-binary invocations to completion. One process per
// call, spawned without a shell; output is captured in full, not streamed.
type Executor struct {
	log zerolog.Logger
}

func NewExecutor(log zerolog.Logger) *Executor {
	return &Executor{log: log}
}

// Run spawns argv[0] with the remaining tokens as arguments and waits for it
// under the given timeout. A nonzero exit is returned as data in the result,
// not as an error; spawn failure, timeout, and caller cancellation are
// errors. The process group is killed on every early-exit path so no
// children are left behind.
func (e *Executor) Run(ctx context.Context, argv []string, timeout time.Duration) (ExecutionResult, error) {
	if len(argv) == 0 {
		return ExecutionResult{}, fmt.Errorf("empty command")
	}

	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Own process group so the whole tree dies on timeout or cancellation.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return procutil.KillGroup(cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 3 * time.Second

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return ExecutionResult{}, &BinaryNotFoundError{Path: argv[0], Err: err}
		}
		return ExecutionResult{}, fmt.Errorf("start %s: %w", argv[0], err)
	}

	waitErr := cmd.Wait()
	res := ExecutionResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	e.log.Debug().
		Str("binary", argv[0]).
		Int("exit_code", res.ExitCode).
		Dur("elapsed", time.Since(start)).
		Msg("rnx invocation finished")

	if waitErr == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		// Caller cancelled; the Cancel hook already reaped the group.
		return ExecutionResult{}, ctx.Err()
	}
	if execCtx.Err() == context.DeadlineExceeded {
		return ExecutionResult{}, &ExecutionTimeoutError{Timeout: timeout}
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		// Nonzero exit: classification belongs to the caller.
		return res, nil
	}
	return ExecutionResult{}, fmt.Errorf("wait %s: %w", argv[0], waitErr)
}
