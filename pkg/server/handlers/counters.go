package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mutating endpoints create the named counter on first use (starting at 0),
// matching registry.Get semantics. Read and delete endpoints return 404 for
// names that were never touched.

// storeRequest is the body for PUT /counters/{name}
type storeRequest struct {
	Value *int32 `json:"value"`
}

// addRequest is the body for POST /counters/{name}/add
type addRequest struct {
	Delta *int32 `json:"delta"`
}

// swapRequest is the body for POST /counters/{name}/swap
type swapRequest struct {
	Value *int32 `json:"value"`
}

// casRequest is the body for POST /counters/{name}/cas
type casRequest struct {
	Old *int32 `json:"old"`
	New *int32 `json:"new"`
}

// watermarkRequest is the body for POST /counters/{name}/watermark
type watermarkRequest struct {
	Value     *int32 `json:"value"`
	Direction string `json:"direction"`
}

// GetCounter handles GET /counters/{name}
func (h *Handlers) GetCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	cell, err := h.lookupCounter(name)
	if err != nil {
		writeError(w, err)
		return
	}

	result := map[string]interface{}{
		"name":  name,
		"value": cell.Load(),
	}
	writeSuccess(w, result)
}

// StoreCounter handles PUT /counters/{name}
func (h *Handlers) StoreCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req storeRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Value == nil {
		writeError(w, &BadRequestError{Message: "missing required field: value"})
		return
	}

	h.registry.Get(name).Store(*req.Value)

	result := map[string]interface{}{
		"name":  name,
		"value": *req.Value,
	}
	writeSuccess(w, result)
}

// RemoveCounter handles DELETE /counters/{name}
func (h *Handlers) RemoveCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if !h.registry.Remove(name) {
		writeError(w, &CounterNotFoundError{Name: name})
		return
	}

	result := map[string]interface{}{
		"name":    name,
		"removed": true,
	}
	writeSuccess(w, result)
}

// AddCounter handles POST /counters/{name}/add
func (h *Handlers) AddCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req addRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Delta == nil {
		writeError(w, &BadRequestError{Message: "missing required field: delta"})
		return
	}

	value := h.registry.Get(name).Add(*req.Delta)

	result := map[string]interface{}{
		"name":  name,
		"value": value,
	}
	writeSuccess(w, result)
}

// IncCounter handles POST /counters/{name}/inc
func (h *Handlers) IncCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	value := h.registry.Get(name).Inc()

	result := map[string]interface{}{
		"name":  name,
		"value": value,
	}
	writeSuccess(w, result)
}

// DecCounter handles POST /counters/{name}/dec
func (h *Handlers) DecCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	value := h.registry.Get(name).Dec()

	result := map[string]interface{}{
		"name":  name,
		"value": value,
	}
	writeSuccess(w, result)
}

// SwapCounter handles POST /counters/{name}/swap
func (h *Handlers) SwapCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req swapRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Value == nil {
		writeError(w, &BadRequestError{Message: "missing required field: value"})
		return
	}

	previous := h.registry.Get(name).Swap(*req.Value)

	result := map[string]interface{}{
		"name":     name,
		"previous": previous,
		"value":    *req.Value,
	}
	writeSuccess(w, result)
}

// CasCounter handles POST /counters/{name}/cas
func (h *Handlers) CasCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req casRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Old == nil || req.New == nil {
		writeError(w, &BadRequestError{Message: "missing required fields: old, new"})
		return
	}

	observed := h.registry.Get(name).CompareAndExchange(*req.Old, *req.New)

	result := map[string]interface{}{
		"name":    name,
		"swapped": observed == *req.Old,
		"value":   observed,
	}
	writeSuccess(w, result)
}

// WatermarkCounter handles POST /counters/{name}/watermark
func (h *Handlers) WatermarkCounter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req watermarkRequest
	if err := parseJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Value == nil {
		writeError(w, &BadRequestError{Message: "missing required field: value"})
		return
	}

	if req.Direction == "" {
		req.Direction = "high"
	}

	cell := h.registry.Get(name)

	var value int32
	switch req.Direction {
	case "high":
		value = cell.SetIfGreater(*req.Value)
	case "low":
		value = cell.SetIfLess(*req.Value)
	default:
		writeError(w, &BadRequestError{Message: "direction must be \"high\" or \"low\""})
		return
	}

	result := map[string]interface{}{
		"name":      name,
		"direction": req.Direction,
		"value":     value,
	}
	writeSuccess(w, result)
}
