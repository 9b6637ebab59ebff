// Package statusapi serves the monitor's state over HTTP.
package statusapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ddfmonitor/internal/statusapi/handlers"
	"ddfmonitor/internal/statusapi/middleware"
)

// Config wires the server's dependencies.
type Config struct {
	Addr      string
	Reports   handlers.ReportSource
	DB        handlers.Pinger
	BaseDir   string
	Metrics   http.Handler
	RateLimit float64
	Logger    *slog.Logger
}

// Server is the HTTP server for the status API.
type Server struct {
	httpServer *http.Server
}

// New creates a status API server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := handlers.New(cfg.Reports, cfg.DB, cfg.BaseDir, cfg.Logger)
	limit := middleware.NewRateLimiter(cfg.RateLimit).Middleware()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("GET /status", limit(http.HandlerFunc(h.Status)))
	mux.Handle("GET /fields/{id}/logs", limit(http.HandlerFunc(h.FieldLogs)))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      middleware.Logging(cfg.Logger)(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
