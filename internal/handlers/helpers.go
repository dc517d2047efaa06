// Package handlers implements the HTTP surface. Every handler resolves
// the authenticated owner's session from the store manager and responds
// in the shared envelope format.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nicunursekatie/adhd-planner/internal/request"
	"github.com/nicunursekatie/adhd-planner/internal/store"
	"github.com/nicunursekatie/adhd-planner/internal/validation"
)

// respondJSON sends a success envelope.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage trims error messages before they reach clients.
func sanitizeErrorMessage(message string) string {
	if len(message) > 200 {
		message = message[:200] + "..."
	}
	return message
}

// respondJSONError sends an error envelope.
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondStoreError maps store sentinel errors to HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnauthenticated):
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
	case errors.Is(err, store.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, store.ErrDependencyCycle):
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, store.ErrDependenciesIncomplete):
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, store.ErrNotStarted):
		respondJSONError(w, http.StatusConflict, "Conflict", err.Error())
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Operation failed")
	}
}

// sessionFromRequest resolves the owner's store session. On failure the
// error response has already been written and ok is false.
func sessionFromRequest(w http.ResponseWriter, r *http.Request, sessions *store.Manager) (*store.Store, bool) {
	owner := request.OwnerFromContext(r)
	if owner == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Owner not found in context")
		return nil, false
	}
	st, err := sessions.Get(r.Context(), owner.ID)
	if err != nil {
		respondStoreError(w, err)
		return nil, false
	}
	return st, true
}

// validateRequest runs struct validation and reports the first failing
// field. On failure the error response has been written.
func validateRequest(w http.ResponseWriter, req any) bool {
	if err := validation.Validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request",
				fmt.Sprintf("Validation failed: %s", validationErrors[0].Error()))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return false
	}
	return true
}

// decodeJSON decodes a request body, translating body-size overruns
// into 413. On failure the error response has been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	return true
}
