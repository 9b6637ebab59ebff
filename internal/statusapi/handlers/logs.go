package handlers

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"ddfmonitor/internal/runner"
)

// FieldLogs handles GET /fields/{id}/logs?kind=pipeline|upload
// and streams the captured runner output as plain text.
func (h *Handlers) FieldLogs(w http.ResponseWriter, r *http.Request) {
	fieldID := r.PathValue("id")
	if fieldID == "" || strings.ContainsAny(fieldID, `/\`) || strings.Contains(fieldID, "..") {
		h.httpError(w, "Invalid field id", http.StatusBadRequest)
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = runner.KindPipeline
	}
	if kind != runner.KindPipeline && kind != runner.KindUpload {
		h.httpError(w, "Invalid kind, want pipeline or upload", http.StatusBadRequest)
		return
	}

	f, err := os.Open(runner.LogPath(h.baseDir, kind, fieldID))
	if errors.Is(err, fs.ErrNotExist) {
		h.httpError(w, "No logs for field", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to open field log", "field_id", fieldID, "kind", kind, "error", err)
		h.httpError(w, "Failed to read logs", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("failed to stream field log", "field_id", fieldID, "error", err)
	}
}
