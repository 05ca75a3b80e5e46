// Package audit records bulk operations for the audit trail. Recording is
// best-effort: failures are logged and never propagated to the caller.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/caseport/caseport/internal/store"
	"github.com/google/uuid"
)

// ActionBulkCreate marks an import run that created or updated entities.
const ActionBulkCreate = "bulk_create"

// Recorder writes audit entries to the store.
type Recorder struct {
	store store.Store
	log   *slog.Logger
}

// NewRecorder returns a Recorder. A nil logger falls back to slog.Default.
func NewRecorder(st store.Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{store: st, log: log}
}

// RecordBulkCreate records one bulk-create event. Errors are logged, not
// returned.
func (r *Recorder) RecordBulkCreate(ctx context.Context, entityType string, count int, projectID string, metadata map[string]any) {
	var raw json.RawMessage
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			r.log.Warn("audit metadata encode failed", "error", err)
		} else {
			raw = b
		}
	}

	entry := &store.AuditEntry{
		ID:         uuid.New().String(),
		Action:     ActionBulkCreate,
		EntityType: entityType,
		ProjectID:  projectID,
		Count:      count,
		Metadata:   raw,
		CreatedAt:  time.Now(),
	}
	if err := r.store.CreateAuditEntry(ctx, entry); err != nil {
		r.log.Warn("audit record failed", "action", ActionBulkCreate, "project", projectID, "error", err)
	}
}
