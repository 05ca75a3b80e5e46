package importer

// reconcile.go commits one validated row: soft lookups, order assignment,
// create-vs-update reconciliation by external id, field values and steps.
//
// Soft lookups (workflow state, creator, created-at) degrade silently to
// defaults and never raise. Store failures here surface to the orchestrator,
// which records them as per-row commit failures and moves on.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caseport/caseport/internal/store"
	"github.com/google/uuid"
)

// commitRow writes the case for one validated row and returns the case id
// and whether an existing case was updated.
func (r *runState) commitRow(ctx context.Context, cr *CaseRow) (caseID string, updated bool, err error) {
	stateID := r.lookupState(ctx, cr.WorkflowState)
	creator := r.lookupCreator(ctx, cr.CreatedBy)
	createdAt := cr.ParsedCreatedAt(time.Now())

	var existing *store.Case
	if cr.ExternalID != nil {
		existing, err = r.store.GetCase(ctx, r.repo.ID, *cr.ExternalID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return "", false, fmt.Errorf("lookup case %q: %w", *cr.ExternalID, err)
		}
	}

	var c *store.Case
	if existing != nil {
		// Update path: overwrite core scalars, keep order and authorship.
		existing.Name = cr.Name
		existing.FolderID = cr.FolderID
		existing.TemplateID = r.template.ID
		existing.StateID = stateID
		existing.Automated = cr.Automated
		existing.Estimate = cr.Estimate
		existing.Forecast = cr.Forecast
		if err := r.store.UpdateCase(ctx, existing); err != nil {
			return "", false, fmt.Errorf("update case %q: %w", existing.ID, err)
		}
		if err := r.store.DeleteFieldValues(ctx, existing.ID); err != nil {
			return "", false, fmt.Errorf("clear field values: %w", err)
		}
		c = existing
		updated = true
	} else {
		id := uuid.New().String()
		if cr.ExternalID != nil {
			id = *cr.ExternalID
		}
		c = &store.Case{
			ID:           id,
			RepositoryID: r.repo.ID,
			FolderID:     cr.FolderID,
			TemplateID:   r.template.ID,
			StateID:      stateID,
			Name:         cr.Name,
			Order:        r.nextOrder(cr.FolderID),
			Automated:    cr.Automated,
			Estimate:     cr.Estimate,
			Forecast:     cr.Forecast,
			CreatedBy:    creator,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
		if err := r.store.CreateCase(ctx, c); err != nil {
			return "", false, fmt.Errorf("create case: %w", err)
		}
	}

	if err := r.writeFieldValues(ctx, c.ID, cr); err != nil {
		return "", false, err
	}

	if updated {
		if err := r.store.DeleteSteps(ctx, c.ID); err != nil {
			return "", false, fmt.Errorf("clear steps: %w", err)
		}
	}
	for _, step := range cr.Steps {
		if err := r.store.CreateStep(ctx, &store.Step{
			ID:       uuid.New().String(),
			CaseID:   c.ID,
			Order:    step.Order,
			Step:     step.Step,
			Expected: step.Expected,
		}); err != nil {
			return "", false, fmt.Errorf("write step %d: %w", step.Order, err)
		}
	}

	if err := r.recordVersion(ctx, c, cr); err != nil {
		return "", false, err
	}

	return c.ID, updated, nil
}

// lookupState resolves a workflow state by case-insensitive name, falling
// back to the default state on any miss.
func (r *runState) lookupState(_ context.Context, name string) string {
	if name != "" {
		for _, st := range r.workflow.States {
			if strings.EqualFold(st.Name, name) {
				return st.ID
			}
		}
	}
	return r.defaultStateID
}

// lookupCreator resolves a user by name or email, falling back to the
// acting user on any miss.
func (r *runState) lookupCreator(ctx context.Context, q string) string {
	if q == "" {
		return r.actingUser
	}
	u, err := r.store.FindUserByNameOrEmail(ctx, q)
	if err != nil {
		return r.actingUser
	}
	return u.ID
}

// nextOrder advances the run-scoped counter for the folder. Counters were
// seeded from the store before Phase 2 began.
func (r *runState) nextOrder(folderID *string) int {
	if folderID == nil {
		return 0
	}
	r.orders[*folderID]++
	return r.orders[*folderID]
}

func (r *runState) writeFieldValues(ctx context.Context, caseID string, cr *CaseRow) error {
	for fieldID, value := range cr.Fields {
		if value == nil {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode field value: %w", err)
		}
		if err := r.store.CreateFieldValue(ctx, &store.FieldValue{
			ID:      uuid.New().String(),
			CaseID:  caseID,
			FieldID: fieldID,
			Value:   raw,
		}); err != nil {
			return fmt.Errorf("write field value: %w", err)
		}
	}
	return nil
}
