package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/zeebo/blake3"

	"github.com/jobletlabs/joblet-mcp/internal/rnx"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	descs := s.client.Descriptors()
	out := make([]ToolInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, ToolInfo{
			Name:        string(d.Name),
			Description: d.Description,
			InputSchema: d.ParametersSchema(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "", "bad_request", "read body: "+err.Error())
		return
	}
	var req CallRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "", "bad_request", "decode body: "+err.Error())
			return
		}
	}
	callID := req.CallID
	if callID == "" {
		callID = "call_" + shortHash(body)
	}

	res, err := s.client.CallTool(r.Context(), name, req.Arguments)
	if err != nil {
		status, kind := classifyError(err)
		s.log.Warn().Str("tool", name).Str("call_id", callID).Str("kind", kind).Msg(err.Error())
		writeError(w, status, callID, kind, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CallResponse{
		CallID: callID,
		Tool:   name,
		Mode:   string(res.Mode),
		Value:  res.Value,
		Text:   res.Text,
	})
}

func (s *Server) handleWaitJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	var req WaitRequest
	if r.Body != nil {
		// An empty body means defaults.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "", "bad_request", "decode body: "+err.Error())
			return
		}
	}
	interval := time.Duration(req.IntervalMS) * time.Millisecond
	maxWait := time.Duration(req.MaxWaitMS) * time.Millisecond
	if maxWait <= 0 {
		maxWait = s.cfg.MaxWait
	}

	start := time.Now()
	status, err := s.client.WaitForJob(r.Context(), jobID, interval, maxWait)
	if err != nil {
		code, kind := classifyError(err)
		writeError(w, code, "", kind, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, WaitResponse{
		JobID:     jobID,
		Status:    string(status),
		ElapsedMS: time.Since(start).Milliseconds(),
	})
}

// classifyError maps the adapter's error taxonomy onto HTTP status codes
// and stable kind tags.
func classifyError(err error) (int, string) {
	var (
		unknownTool *rnx.UnknownToolError
		schemaErr   *rnx.SchemaValidationError
		resolution  *rnx.ResolutionError
		notFound    *rnx.BinaryNotFoundError
		execTimeout *rnx.ExecutionTimeoutError
		pollTimeout *rnx.PollTimeoutError
		execErr     *rnx.ExecutionError
	)
	switch {
	case errors.As(err, &unknownTool):
		return http.StatusNotFound, "unknown_tool"
	case errors.As(err, &schemaErr):
		return http.StatusBadRequest, "invalid_arguments"
	case errors.As(err, &resolution):
		if resolution.Ambiguous() {
			return http.StatusConflict, "ambiguous_job_id"
		}
		return http.StatusNotFound, "job_not_found"
	case errors.As(err, &notFound):
		return http.StatusInternalServerError, "binary_not_found"
	case errors.As(err, &execTimeout):
		return http.StatusGatewayTimeout, "execution_timeout"
	case errors.As(err, &pollTimeout):
		return http.StatusGatewayTimeout, "poll_timeout"
	case errors.As(err, &execErr):
		return http.StatusBadGateway, "execution_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, callID, kind, msg string) {
	writeJSON(w, status, ErrorResponse{CallID: callID, Kind: kind, Error: msg})
}

func shortHash(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
