package web

// handlers_import.go implements the bulk import endpoint. The request
// body is a JSON ImportRequest; the response is a Server-Sent Events
// stream of progress frames followed by exactly one terminal frame.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/caseport/caseport/internal/importer"
	"github.com/caseport/caseport/internal/logging"
	"github.com/go-chi/chi/v5"
)

// handleImport runs a bulk import and streams progress as SSE.
// POST /api/projects/{projectID}/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodySize)

	var req importer.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("decode request: %w", err), http.StatusBadRequest)
		return
	}
	req.ProjectID = projectID

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, fmt.Errorf("streaming unsupported"), http.StatusInternalServerError)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, importer.ErrTooManyImports) {
			status = http.StatusTooManyRequests
			w.Header().Set("Retry-After", "30")
		}
		s.respondError(w, r, err, status)
		return
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	actingUser := ActingUserFromContext(r.Context())
	events := s.importer.Run(ctx, req, actingUser)
	log := logging.WithFields(r.Context(), "project", projectID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Warn("marshal import event failed", "error", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}
