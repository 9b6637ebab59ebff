// Package handlers contains HTTP handlers for the monitor's status API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"ddfmonitor/internal/monitor"
	"ddfmonitor/pkg/api"
)

// ReportSource yields the report of the monitor's last completed cycle.
type ReportSource interface {
	LatestReport() (monitor.Report, bool)
}

// Pinger checks the status database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	reports ReportSource
	db      Pinger
	baseDir string
	logger  *slog.Logger
}

// New creates a Handlers instance. baseDir is where runner logs live.
func New(reports ReportSource, db Pinger, baseDir string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{reports: reports, db: db, baseDir: baseDir, logger: logger}
}

func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Warn("failed to encode response", "error", err)
		}
	}
}

func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
