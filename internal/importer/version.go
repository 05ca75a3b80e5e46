package importer

// version.go appends an immutable version snapshot after every case write.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caseport/caseport/internal/store"
	"github.com/google/uuid"
)

// caseSnapshot is the JSON shape stored in a version record.
type caseSnapshot struct {
	Name      string         `json:"name"`
	FolderID  *string        `json:"folderId,omitempty"`
	StateID   string         `json:"stateId"`
	Automated bool           `json:"automated"`
	Estimate  *float64       `json:"estimate,omitempty"`
	Forecast  *float64       `json:"forecast,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Steps     int            `json:"steps"`
}

// recordVersion writes the next version for the case. An explicit
// row-supplied version number wins; otherwise latest existing + 1.
func (r *runState) recordVersion(ctx context.Context, c *store.Case, cr *CaseRow) error {
	number := 0
	if cr.Version != nil {
		number = *cr.Version
	} else {
		latest, err := r.store.LatestVersionNumber(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("latest version: %w", err)
		}
		number = latest + 1
	}

	snapshot, err := json.Marshal(caseSnapshot{
		Name:      c.Name,
		FolderID:  c.FolderID,
		StateID:   c.StateID,
		Automated: c.Automated,
		Estimate:  c.Estimate,
		Forecast:  c.Forecast,
		Fields:    cr.Fields,
		Steps:     len(cr.Steps),
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := r.store.CreateCaseVersion(ctx, &store.CaseVersion{
		ID:        uuid.New().String(),
		CaseID:    c.ID,
		Number:    number,
		Snapshot:  snapshot,
		CreatedBy: r.actingUser,
	}); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return nil
}
