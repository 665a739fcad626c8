package rnx

import (
	"context"
	"strings"
)

// FullJobIDLength is the canonical length of a job UUID. Anything shorter
// is treated as a prefix to be resolved against the known jobs.
const FullJobIDLength = 36

// ListJobIDsFunc returns every known full job identifier, typically by
// issuing the list-jobs tool through the same pipeline.
type ListJobIDsFunc func(ctx context.Context) ([]string, error)

// ResolveJobID resolves a possibly shortened job identifier to exactly one
// full identifier. Full-length input is returned unchanged without a
// lookup. A prefix matching zero or more than one known identifier fails
// with ResolutionError.
func ResolveJobID(ctx context.Context, partial string, list ListJobIDsFunc) (string, error) {
	partial = strings.TrimSpace(partial)
	if len(partial) >= FullJobIDLength {
		return partial, nil
	}

	ids, err := list(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, partial) {
			matches = append(matches, id)
		}
	}
	if len(matches) != 1 {
		return "", &ResolutionError{Partial: partial, Matches: matches}
	}
	return matches[0], nil
}

// jobIDFromObject extracts the job identifier from a decoded run-job or
// list-jobs entry. The external binary is not consistent about the key, so
// both accepted aliases are checked, in order.
func jobIDFromObject(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range []string{"job_uuid", "uuid"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// JobIDFromRunResult pulls the submitted job's identifier out of a
// normalized run-job result.
func JobIDFromRunResult(res NormalizedResult) (string, bool) {
	return jobIDFromObject(res.Value)
}

// JobIDsFromListResult pulls every job identifier out of a normalized
// list-jobs result. Entries without a recognizable identifier are skipped.
func JobIDsFromListResult(res NormalizedResult) []string {
	items, ok := res.Value.([]any)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if id, ok := jobIDFromObject(it); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
