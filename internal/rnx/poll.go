package rnx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// JobStatus is the closed set of states a job reports.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusStopped   JobStatus = "stopped"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether polling should stop at this status.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseJobStatus validates a status string from the external binary.
func ParseJobStatus(s string) (JobStatus, error) {
	switch st := JobStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusScheduled, StatusRunning,
		StatusCompleted, StatusFailed, StatusStopped, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown job status %q", s)
	}
}

// StatusQueryFunc fetches the current status of one job, typically by
// issuing the status tool through the same pipeline.
type StatusQueryFunc func(ctx context.Context, jobID string) (JobStatus, error)

var errNotTerminal = errors.New("job not in a terminal state")

// AwaitTerminal polls query at a fixed interval until a terminal status is
// observed or maxWait elapses, whichever comes first. Budget exhaustion is
// reported as PollTimeoutError carrying the job id and the elapsed time. A
// query error is not retried; it propagates immediately. Cancelling ctx
// abandons the loop with the context's error.
func AwaitTerminal(ctx context.Context, jobID string, query StatusQueryFunc, interval, maxWait time.Duration) (JobStatus, error) {
	if interval <= 0 {
		return "", fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	if maxWait <= 0 {
		return "", fmt.Errorf("poll budget must be positive, got %s", maxWait)
	}

	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	var last JobStatus
	op := func() error {
		st, err := query(waitCtx, jobID)
		if err != nil {
			return backoff.Permanent(err)
		}
		last = st
		if st.Terminal() {
			return nil
		}
		return errNotTerminal
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx))
	if err == nil {
		return last, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(err, errNotTerminal) || errors.Is(err, context.DeadlineExceeded) {
		return "", &PollTimeoutError{JobID: jobID, Elapsed: time.Since(start)}
	}
	return "", err
}
