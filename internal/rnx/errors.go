package rnx

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// UnknownToolError reports a tool name that is not in the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// SchemaValidationError reports a missing or malformed tool argument.
// It is raised before any process is spawned.
type SchemaValidationError struct {
	Tool   string
	Field  string
	Detail string
}

func (e *SchemaValidationError) Error() string {
	if e.Field != "" && e.Detail == "" {
		return fmt.Sprintf("tool %s: missing required argument %q", e.Tool, e.Field)
	}
	if e.Field != "" {
		return fmt.Sprintf("tool %s: argument %q: %s", e.Tool, e.Field, e.Detail)
	}
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Detail)
}

// BinaryNotFoundError reports that the external control binary could not be
// launched at all. Distinct from a nonzero exit so callers can tell tool
// misuse apart from a misconfigured environment.
type BinaryNotFoundError struct {
	Path string
	Err  error
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("rnx binary not found: %s", e.Path)
}

func (e *BinaryNotFoundError) Unwrap() error { return e.Err }

// ExecutionError reports a nonzero exit from the external binary. The message
// is the binary's own stderr text, passed through verbatim so its diagnostics
// stay visible to the caller.
type ExecutionError struct {
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("rnx exited with code %d", e.ExitCode)
	}
	return msg
}

// ExecutionTimeoutError reports that one invocation exceeded its allotted
// time. The process is forcibly terminated before this is returned.
type ExecutionTimeoutError struct {
	Timeout time.Duration
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("rnx execution timed out after %s", e.Timeout)
}

// ResolutionError reports that a shortened job identifier matched zero or
// more than one known full identifier.
type ResolutionError struct {
	Partial string
	Matches []string
}

func (e *ResolutionError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("job %q not found", e.Partial)
	}
	return fmt.Sprintf("job id %q is ambiguous: matches %s", e.Partial, strings.Join(e.Matches, ", "))
}

// Ambiguous reports whether the failure was a multi-match rather than a miss.
func (e *ResolutionError) Ambiguous() bool { return len(e.Matches) > 1 }

// PollTimeoutError reports that a status-polling loop exhausted its wait
// budget without observing a terminal state.
type PollTimeoutError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("job %s did not reach a terminal state within %s", e.JobID, e.Elapsed.Round(time.Millisecond))
}

func IsBinaryNotFound(err error) bool {
	var e *BinaryNotFoundError
	return errors.As(err, &e)
}

func IsExecutionTimeout(err error) bool {
	var e *ExecutionTimeoutError
	return errors.As(err, &e)
}
