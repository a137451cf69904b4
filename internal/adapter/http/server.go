// Package http serves the read entry point and the operational endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/trends-etl-service/internal/domain"
)

// ViewReader returns the window view of a region, nil meaning no data.
// It is implemented by aggregate.Reader and never triggers acquisition.
type ViewReader interface {
	Read(ctx context.Context, region domain.Region, window domain.Window) (*domain.WindowView, error)
}

// BatchStarter launches a collection batch in the background and fails when
// one is already in progress.
type BatchStarter interface {
	StartBatch() error
}

// Server exposes the trends API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	views      ViewReader
	batches    BatchStarter
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/trends/{region}, /healthz,
// /readyz, and /metrics routes. When batches is non-nil it also serves
// POST /v1/collect so an external scheduler can trigger acquisition.
func NewServer(addr string, ready sharedobs.ReadinessChecker, views ViewReader, batches BatchStarter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		views:   views,
		batches: batches,
		logger:  logger,
	}

	mux.HandleFunc("GET /v1/trends/{region}", s.handleTrends)
	if batches != nil {
		mux.HandleFunc("POST /v1/collect", s.handleCollect)
	}
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type noDataResponse struct {
	Region domain.Region `json:"region"`
	Window domain.Window `json:"window"`
	NoData bool          `json:"no_data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	region, err := domain.ParseRegion(r.PathValue("region"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	window, err := domain.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	view, err := s.views.Read(r.Context(), region, window)
	switch {
	case errors.Is(err, domain.ErrInvalidRegion), errors.Is(err, domain.ErrInvalidWindow):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("read window view", "region", region, "window", window, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	case view == nil:
		writeJSON(w, http.StatusOK, noDataResponse{Region: region, Window: window, NoData: true})
	default:
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleCollect(w http.ResponseWriter, _ *http.Request) {
	if err := s.batches.StartBatch(); err != nil {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
