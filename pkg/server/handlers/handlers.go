package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mnohosten/atomic32/pkg/atomic32"
	"github.com/mnohosten/atomic32/pkg/registry"
)

// Handlers holds the counter registry and provides HTTP handlers
type Handlers struct {
	registry *registry.Registry
}

// New creates a new Handlers instance
func New(reg *registry.Registry) *Handlers {
	return &Handlers{registry: reg}
}

// lookupCounter retrieves an existing counter by name or returns error
func (h *Handlers) lookupCounter(name string) (*atomic32.Int32, error) {
	cell, ok := h.registry.Lookup(name)
	if !ok {
		return nil, &CounterNotFoundError{Name: name}
	}
	return cell, nil
}

// parseJSONBody parses JSON request body into target interface
func parseJSONBody(r *http.Request, target interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &BadRequestError{Message: "failed to read request body"}
	}
	defer r.Body.Close()

	if len(body) == 0 {
		return &BadRequestError{Message: "request body is empty"}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &BadRequestError{Message: "invalid JSON: " + err.Error()}
	}

	return nil
}

// Error types for consistent error handling

type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

type CounterNotFoundError struct {
	Name string
}

func (e *CounterNotFoundError) Error() string {
	return "counter not found: " + e.Name
}

type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return e.Message
}

// writeError writes an error response with appropriate HTTP status code
func writeError(w http.ResponseWriter, err error) {
	var statusCode int
	var errorType string
	var message string

	switch e := err.(type) {
	case *BadRequestError:
		statusCode = http.StatusBadRequest
		errorType = "BadRequest"
		message = e.Message
	case *CounterNotFoundError:
		statusCode = http.StatusNotFound
		errorType = "CounterNotFound"
		message = e.Error()
	case *InternalError:
		statusCode = http.StatusInternalServerError
		errorType = "InternalError"
		message = e.Message
	default:
		statusCode = http.StatusInternalServerError
		errorType = "InternalError"
		message = err.Error()
	}

	response := map[string]interface{}{
		"ok":      false,
		"error":   errorType,
		"message": message,
		"code":    statusCode,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, result interface{}) {
	response := map[string]interface{}{
		"ok":     true,
		"result": result,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// writeSuccessWithCount writes a success response with count
func writeSuccessWithCount(w http.ResponseWriter, result interface{}, count int) {
	response := map[string]interface{}{
		"ok":     true,
		"result": result,
		"count":  count,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
