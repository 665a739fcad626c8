// Package server exposes the tool surface over HTTP so a calling agent can
// list the descriptors and invoke tools without linking the adapter
// directly.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/jobletlabs/joblet-mcp/internal/rnx"
)

// ToolClient is the slice of the rnx client the transport needs.
type ToolClient interface {
	Descriptors() []rnx.ToolDescriptor
	CallTool(ctx context.Context, name string, args map[string]any) (rnx.NormalizedResult, error)
	WaitForJob(ctx context.Context, jobID string, interval, maxWait time.Duration) (rnx.JobStatus, error)
}

// Config holds transport configuration.
type Config struct {
	Addr    string // listen address, e.g. ":8377"
	MaxWait time.Duration
}

// Server is the HTTP front for the tool pipeline.
type Server struct {
	cfg     Config
	client  ToolClient
	httpSrv *http.Server
	log     zerolog.Logger
}

func New(cfg Config, client ToolClient, log zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		client: client,
		log:    log.With().Str("component", "server").Logger(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/tools", s.handleListTools).Methods(http.MethodGet)
	r.HandleFunc("/tools/{name}", s.handleCallTool).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}/wait", s.handleWaitJob).Methods(http.MethodPost)
	r.Use(s.requestLog)

	s.httpSrv = &http.Server{
		Addr:        cfg.Addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No write timeout: waits may legitimately outlast any fixed value.
		IdleTimeout: 120 * time.Second,
	}
	return s
}

// ListenAndServe starts the server and blocks until SIGINT/SIGTERM or a
// listener error.
func (s *Server) ListenAndServe() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.log.Info().Str("signal", sig.String()).Msg("shutting down")
		s.Shutdown()
	}()

	s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests with a short grace period.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// requestLog tags every request with a ULID and logs its outcome.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := ulid.Make().String()
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("req_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
