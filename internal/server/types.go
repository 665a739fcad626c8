package server

// ToolInfo is one entry in the GET /tools listing.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// CallRequest is the POST /tools/{name} body. CallID is optional; when
// empty the server derives one from the argument bytes.
type CallRequest struct {
	CallID    string         `json:"call_id,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallResponse is the success shape for a tool call. Exactly one of Value
// (structured parse) or Text (raw passthrough) carries the payload; Mode
// says which.
type CallResponse struct {
	CallID string `json:"call_id"`
	Tool   string `json:"tool"`
	Mode   string `json:"mode"`
	Value  any    `json:"value,omitempty"`
	Text   string `json:"text,omitempty"`
}

// ErrorResponse is the failure shape for every endpoint.
type ErrorResponse struct {
	CallID string `json:"call_id,omitempty"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

// WaitRequest is the POST /jobs/{id}/wait body. Zero values use the
// server's configured defaults.
type WaitRequest struct {
	IntervalMS int `json:"interval_ms,omitempty"`
	MaxWaitMS  int `json:"max_wait_ms,omitempty"`
}

// WaitResponse reports the terminal status a wait observed.
type WaitResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	ElapsedMS int64  `json:"elapsed_ms"`
}
