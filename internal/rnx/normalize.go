package rnx

import (
	"encoding/json"
	"strings"
)

// ParseMode tags how a result was interpreted.
type ParseMode string

const (
	ParseJSON   ParseMode = "json"
	ParseNDJSON ParseMode = "ndjson"
	ParseText   ParseMode = "text"
)

// NormalizedResult is the uniform shape returned to callers: a structured
// value when stdout parsed, otherwise the raw text. Text always carries the
// original stdout so nothing is lost in either mode.
type NormalizedResult struct {
	Mode  ParseMode
	Value any
	Text  string
}

// NormalizeResult converts captured stdout into a NormalizedResult. For
// tools with a structured result contract it tries a single JSON value,
// then newline-delimited JSON, then falls back to raw text; a failed parse
// is an observable outcome, never an error. Tools with a plain contract
// return text directly. Only meaningful for zero-exit results.
func NormalizeResult(stdout string, structured bool) NormalizedResult {
	if !structured {
		return NormalizedResult{Mode: ParseText, Text: stdout}
	}

	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return NormalizedResult{Mode: ParseText, Text: stdout}
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return NormalizedResult{Mode: ParseJSON, Value: v, Text: stdout}
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) > 1 {
		values := make([]any, 0, len(lines))
		ok := true
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var lv any
			if err := json.Unmarshal([]byte(line), &lv); err != nil {
				ok = false
				break
			}
			values = append(values, lv)
		}
		if ok && len(values) > 0 {
			return NormalizedResult{Mode: ParseNDJSON, Value: values, Text: stdout}
		}
	}

	return NormalizedResult{Mode: ParseText, Text: stdout}
}
