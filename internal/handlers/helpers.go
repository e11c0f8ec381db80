package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxClientMessageLength bounds error messages sent to clients.
const maxClientMessageLength = 200

// Guards wraps routes with the authentication they need. A nil guard lets
// requests through unchanged.
type Guards struct {
	Required func(http.Handler) http.Handler
	Optional func(http.Handler) http.Handler
}

func (g Guards) required(h http.HandlerFunc) http.Handler {
	if g.Required == nil {
		return h
	}
	return g.Required(h)
}

func (g Guards) optional(h http.HandlerFunc) http.Handler {
	if g.Optional == nil {
		return h
	}
	return g.Optional(h)
}

// respondJSON sends a JSON response
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

// sanitizeErrorMessage strips control characters and bounds the length of
// messages sent to clients.
func sanitizeErrorMessage(message string) string {
	return logpkg.SanitizeString(message, maxClientMessageLength)
}

// respondJSONError sends an error JSON response with sanitized error messages
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

// decodeJSON decodes a JSON body into dst. It writes the error response
// itself and reports whether the caller may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
		case errors.Is(err, io.EOF):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Request body is required")
		default:
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		}
		return false
	}
	return true
}

// validateStruct runs struct validation and answers 400 on failure.
func validateStruct(w http.ResponseWriter, v any) bool {
	if err := validation.Validate.Struct(v); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+validation.FirstError(err))
		return false
	}
	return true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeJSON(w, r, dst) && validateStruct(w, dst)
}

// pathID parses the named mux variable as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
