package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jobletlabs/joblet-mcp/internal/rnx"
)

// fakeClient routes tool calls to scripted responses keyed by tool name.
type fakeClient struct {
	descriptors []rnx.ToolDescriptor
	results     map[string]rnx.NormalizedResult
	errs        map[string]error

	waitStatus rnx.JobStatus
	waitErr    error
	lastWaitID string
}

func (f *fakeClient) Descriptors() []rnx.ToolDescriptor { return f.descriptors }

func (f *fakeClient) CallTool(_ context.Context, name string, _ map[string]any) (rnx.NormalizedResult, error) {
	if err, ok := f.errs[name]; ok {
		return rnx.NormalizedResult{}, err
	}
	return f.results[name], nil
}

func (f *fakeClient) WaitForJob(_ context.Context, jobID string, _, _ time.Duration) (rnx.JobStatus, error) {
	f.lastWaitID = jobID
	return f.waitStatus, f.waitErr
}

func testServer(t *testing.T, fc *fakeClient) http.Handler {
	t.Helper()
	srv := New(Config{Addr: ":0", MaxWait: time.Minute}, fc, zerolog.Nop())
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Body.String(), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	h := testServer(t, &fakeClient{})
	rec, body := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("code=%d body=%v", rec.Code, body)
	}
}

func TestListTools(t *testing.T) {
	client, err := rnx.NewClient(rnx.DefaultConfig())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	h := testServer(t, &fakeClient{descriptors: client.Descriptors()})

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var tools []ToolInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &tools); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tools) != 22 {
		t.Fatalf("tools = %d", len(tools))
	}
	for _, ti := range tools {
		if !strings.HasPrefix(ti.Name, "joblet_") {
			t.Fatalf("unexpected tool name %q", ti.Name)
		}
		if ti.InputSchema["type"] != "object" {
			t.Fatalf("%s schema = %v", ti.Name, ti.InputSchema)
		}
	}
}

func TestCallTool_Success(t *testing.T) {
	fc := &fakeClient{results: map[string]rnx.NormalizedResult{
		"joblet_list_jobs": {
			Mode:  rnx.ParseJSON,
			Value: []any{map[string]any{"uuid": "a"}},
			Text:  `[{"uuid":"a"}]`,
		},
	}}
	h := testServer(t, fc)

	rec, body := doJSON(t, h, http.MethodPost, "/tools/joblet_list_jobs",
		`{"call_id":"call_test1","arguments":{}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %v", rec.Code, body)
	}
	if body["call_id"] != "call_test1" || body["tool"] != "joblet_list_jobs" || body["mode"] != "json" {
		t.Fatalf("body = %v", body)
	}
}

func TestCallTool_DerivedCallID(t *testing.T) {
	fc := &fakeClient{results: map[string]rnx.NormalizedResult{
		"joblet_list_nodes": {Mode: rnx.ParseJSON, Value: []any{}},
	}}
	h := testServer(t, fc)

	_, body := doJSON(t, h, http.MethodPost, "/tools/joblet_list_nodes", `{"arguments":{}}`)
	id, _ := body["call_id"].(string)
	if !strings.HasPrefix(id, "call_") || len(id) != len("call_")+16 {
		t.Fatalf("derived call id = %q", id)
	}
}

func TestCallTool_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"unknown tool", &rnx.UnknownToolError{Name: "joblet_x"}, http.StatusNotFound, "unknown_tool"},
		{"schema", &rnx.SchemaValidationError{Tool: "joblet_run_job", Field: "command"}, http.StatusBadRequest, "invalid_arguments"},
		{"ambiguous", &rnx.ResolutionError{Partial: "ab", Matches: []string{"ab1", "ab2"}}, http.StatusConflict, "ambiguous_job_id"},
		{"not found", &rnx.ResolutionError{Partial: "zz"}, http.StatusNotFound, "job_not_found"},
		{"binary", &rnx.BinaryNotFoundError{Path: "rnx"}, http.StatusInternalServerError, "binary_not_found"},
		{"exec timeout", &rnx.ExecutionTimeoutError{Timeout: time.Second}, http.StatusGatewayTimeout, "execution_timeout"},
		{"exec failed", &rnx.ExecutionError{ExitCode: 1, Stderr: "Error: Job not found"}, http.StatusBadGateway, "execution_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeClient{errs: map[string]error{"joblet_get_job_status": tc.err}}
			h := testServer(t, fc)
			rec, body := doJSON(t, h, http.MethodPost, "/tools/joblet_get_job_status",
				`{"arguments":{"job_uuid":"abcd"}}`)
			if rec.Code != tc.code {
				t.Fatalf("code = %d, want %d", rec.Code, tc.code)
			}
			if body["kind"] != tc.kind {
				t.Fatalf("kind = %v, want %s", body["kind"], tc.kind)
			}
			if body["error"] == "" {
				t.Fatal("empty error message")
			}
		})
	}
}

func TestCallTool_ExecutionErrorPassesStderrThrough(t *testing.T) {
	fc := &fakeClient{errs: map[string]error{
		"joblet_get_job_status": &rnx.ExecutionError{ExitCode: 1, Stderr: "Error: Job not found"},
	}}
	h := testServer(t, fc)
	_, body := doJSON(t, h, http.MethodPost, "/tools/joblet_get_job_status",
		`{"arguments":{"job_uuid":"deadbeef"}}`)
	if body["error"] != "Error: Job not found" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestWaitJob_Success(t *testing.T) {
	fc := &fakeClient{waitStatus: rnx.StatusCompleted}
	h := testServer(t, fc)

	rec, body := doJSON(t, h, http.MethodPost, "/jobs/abcd1234/wait",
		`{"interval_ms":10,"max_wait_ms":1000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body = %v", rec.Code, body)
	}
	if body["job_id"] != "abcd1234" || body["status"] != "completed" {
		t.Fatalf("body = %v", body)
	}
	if fc.lastWaitID != "abcd1234" {
		t.Fatalf("wait id = %q", fc.lastWaitID)
	}
}

func TestWaitJob_EmptyBodyUsesDefaults(t *testing.T) {
	fc := &fakeClient{waitStatus: rnx.StatusFailed}
	h := testServer(t, fc)
	rec, body := doJSON(t, h, http.MethodPost, "/jobs/abcd1234/wait", "")
	if rec.Code != http.StatusOK || body["status"] != "failed" {
		t.Fatalf("code=%d body=%v", rec.Code, body)
	}
}

func TestWaitJob_PollTimeout(t *testing.T) {
	fc := &fakeClient{waitErr: &rnx.PollTimeoutError{JobID: "abcd1234", Elapsed: time.Second}}
	h := testServer(t, fc)
	rec, body := doJSON(t, h, http.MethodPost, "/jobs/abcd1234/wait", `{"max_wait_ms":50}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("code = %d", rec.Code)
	}
	if body["kind"] != "poll_timeout" {
		t.Fatalf("kind = %v", body["kind"])
	}
}

func TestMethodRouting(t *testing.T) {
	h := testServer(t, &fakeClient{})
	req := httptest.NewRequest(http.MethodGet, "/tools/joblet_list_jobs", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("code = %d", rec.Code)
	}
}
