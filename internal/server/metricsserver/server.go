// Package metricsserver provides the HTTP endpoint the agent exposes
// for Prometheus scraping.
//
// It uses the Go standard library net/http, serving /metrics from a
// metric.Registry plus a /healthz liveness probe.
package metricsserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/docmirror/docmirror-go/internal/telemetry/metric"
)

// Server represents the metrics HTTP server.
type Server struct {
	httpServer *http.Server
}

// New creates a new metrics server for the given registry.
func New(addr string, metrics *metric.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", handleHealth)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the server's HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles GET /healthz.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
