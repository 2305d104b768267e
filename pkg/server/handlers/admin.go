package handlers

import (
	"net/http"
	"time"
)

// Health returns a health check handler
func (h *Handlers) Health(startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(startTime)
		result := map[string]interface{}{
			"status":   "healthy",
			"uptime":   uptime.String(),
			"time":     time.Now().Format(time.RFC3339),
			"counters": h.registry.Len(),
		}
		writeSuccess(w, result)
	}
}

// ListCounters handles GET /_counters, returning a snapshot of all cells.
// Each value is an independent atomic load, not a cross-cell consistent cut.
func (h *Handlers) ListCounters(w http.ResponseWriter, r *http.Request) {
	snapshot := h.registry.Snapshot()
	result := map[string]interface{}{
		"counters": snapshot,
	}
	writeSuccessWithCount(w, result, len(snapshot))
}

// ResetCounters handles DELETE /_counters, removing every cell
func (h *Handlers) ResetCounters(w http.ResponseWriter, r *http.Request) {
	removed := h.registry.Len()
	h.registry.Reset()

	result := map[string]interface{}{
		"reset":   true,
		"removed": removed,
	}
	writeSuccess(w, result)
}
