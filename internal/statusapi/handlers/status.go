package handlers

import "net/http"

// Status handles GET /status with the last cycle's report.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reports.LatestReport()
	if !ok {
		h.httpError(w, "No cycle completed yet", http.StatusServiceUnavailable)
		return
	}
	h.respondJson(w, http.StatusOK, report.API())
}
