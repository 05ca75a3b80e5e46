package web

// errors.go provides unified error response handling for the web layer.
//
// Technical details are logged server-side with the request ID for
// correlation; clients get a sanitized JSON body.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caseport/caseport/internal/logging"
	"github.com/caseport/caseport/internal/store"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError logs the technical error and writes a JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	if errors.Is(err, store.ErrNotFound) {
		statusCode = http.StatusNotFound
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
	)

	writeError(w, statusCode, publicMessage(err, statusCode))
}

// writeError writes a JSON error response with the given message.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// publicMessage maps an error to a message safe to show clients.
// Internal failures collapse to a generic message so driver and SQL
// details never leak.
func publicMessage(err error, statusCode int) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not found"
	case statusCode >= 500:
		return "internal server error"
	default:
		return err.Error()
	}
}
