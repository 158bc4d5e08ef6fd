package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/internal/runner"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var itemErr *contracts.ItemError

	switch {
	case errors.Is(err, contracts.ErrNotFound), errors.Is(err, runner.ErrNoDiagnostics):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrRunInProgress), errors.Is(err, contracts.ErrNoPrevious):
		return http.StatusConflict
	case errors.Is(err, contracts.ErrUnknownStrategy):
		return http.StatusBadRequest
	case errors.As(err, &itemErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NotFound answers unmatched paths in the API's JSON error shape
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "not found: "+r.URL.Path)
}

// MethodNotAllowed answers known paths requested with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path)
}
