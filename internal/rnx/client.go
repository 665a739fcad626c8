package rnx

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Client is the tool-dispatch pipeline: registry lookup, argument
// validation, identifier resolution, command construction, process
// execution, and result normalization. Every call is self-contained; the
// only shared state is the read-only invocation context.
type Client struct {
	registry *Registry
	executor *Executor
	ictx     InvocationContext

	execTimeout  time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	log := cfg.Logger().With().Str("component", "rnx").Logger()
	return &Client{
		registry:     reg,
		executor:     NewExecutor(log),
		ictx:         cfg.Invocation(),
		execTimeout:  cfg.ExecTimeout(),
		pollInterval: cfg.PollInterval(),
		log:          log,
	}, nil
}

// Registry exposes the tool table for transports that advertise it.
func (c *Client) Registry() *Registry { return c.registry }

// Descriptors returns the advertised tool descriptors, sorted by name.
func (c *Client) Descriptors() []ToolDescriptor { return c.registry.Descriptors() }

// CallTool executes one named tool with the given arguments and returns the
// normalized result. A nonzero exit from the binary surfaces as
// ExecutionError carrying the binary's stderr verbatim.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (NormalizedResult, error) {
	d, err := c.registry.Lookup(name)
	if err != nil {
		return NormalizedResult{}, err
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := c.registry.Validate(d, args); err != nil {
		return NormalizedResult{}, err
	}

	args, err = expandArguments(d, args)
	if err != nil {
		return NormalizedResult{}, err
	}
	args, err = c.resolveJobArgument(ctx, d, args)
	if err != nil {
		return NormalizedResult{}, err
	}

	argv, err := BuildCommand(d, args, c.ictx)
	if err != nil {
		return NormalizedResult{}, err
	}
	c.log.Debug().Str("tool", name).Strs("argv", redactArgv(argv)).Msg("dispatching tool call")

	res, err := c.executor.Run(ctx, argv, c.execTimeout)
	if err != nil {
		return NormalizedResult{}, err
	}
	if res.ExitCode != 0 {
		return NormalizedResult{}, &ExecutionError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return NormalizeResult(res.Stdout, d.Structured), nil
}

// resolveJobArgument swaps a shortened job_uuid for its full identifier.
// Full-length identifiers pass through without a listing call.
func (c *Client) resolveJobArgument(ctx context.Context, d ToolDescriptor, args map[string]any) (map[string]any, error) {
	raw, ok := args["job_uuid"]
	if !ok {
		return args, nil
	}
	partial, ok := raw.(string)
	if !ok {
		return nil, &SchemaValidationError{Tool: string(d.Name), Field: "job_uuid", Detail: fmt.Sprintf("expected string, got %T", raw)}
	}
	full, err := ResolveJobID(ctx, partial, c.ListJobIDs)
	if err != nil {
		return nil, err
	}
	if full == partial {
		return args, nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	out["job_uuid"] = full
	return out, nil
}

// ListJobIDs returns every known full job identifier via the list-jobs tool.
func (c *Client) ListJobIDs(ctx context.Context) ([]string, error) {
	res, err := c.CallTool(ctx, string(ToolListJobs), nil)
	if err != nil {
		return nil, err
	}
	return JobIDsFromListResult(res), nil
}

// JobStatus fetches and parses the status field of one job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	res, err := c.CallTool(ctx, string(ToolGetJobStatus), map[string]any{"job_uuid": jobID})
	if err != nil {
		return "", err
	}
	obj, ok := res.Value.(map[string]any)
	if !ok {
		return "", fmt.Errorf("job %s: status result is not an object", jobID)
	}
	s, _ := obj["status"].(string)
	return ParseJobStatus(s)
}

// WaitForJob polls the job's status until it reaches a terminal state or
// maxWait elapses. A non-positive interval uses the configured default. A
// shortened identifier is resolved once, up front, so each poll queries the
// full id directly.
func (c *Client) WaitForJob(ctx context.Context, jobID string, interval, maxWait time.Duration) (JobStatus, error) {
	if interval <= 0 {
		interval = c.pollInterval
	}
	full, err := ResolveJobID(ctx, jobID, c.ListJobIDs)
	if err != nil {
		return "", err
	}
	c.log.Debug().Str("job", full).Dur("interval", interval).Dur("max_wait", maxWait).Msg("waiting for terminal state")
	return AwaitTerminal(ctx, full, c.JobStatus, interval, maxWait)
}

// redactArgv masks secret environment values in logged command lines.
func redactArgv(argv []string) []string {
	out := make([]string, len(argv))
	copy(out, argv)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "--secret-env" {
			out[i+1] = "***"
		}
	}
	return out
}
