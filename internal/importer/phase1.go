package importer

// phase1.go is the validation phase. Every row is mapped and checked; errors
// aggregate across the whole input and any error rejects the run before a
// single case is written.
//
// Folder resolution happens here too, so folders created for otherwise-valid
// rows survive even when the run is rejected. That mirrors the system this
// replaces; see DESIGN.md before changing it.

import (
	"context"

	"github.com/caseport/caseport/internal/store"
)

// validateRows runs Phase 1 over all decoded rows. Rows with zero field
// errors enter the returned batch; a non-empty error list means the batch
// must not be committed.
func (r *runState) validateRows(ctx context.Context, rows []Row) ([]*CaseRow, []ImportError) {
	mapper := newFieldMapper(r.template, r.req.Mappings)

	var batch []*CaseRow
	var errs []ImportError

	for _, row := range rows {
		cr, rowErrs := mapper.MapRow(row)

		flagged := make(map[string]bool, len(rowErrs))
		for _, e := range rowErrs {
			flagged[e.Field] = true
		}

		if cr.Name == "" {
			rowErrs = append(rowErrs, ImportError{Row: row.Index, Field: "Name", Message: "required field is empty"})
		}

		for _, def := range r.template.Fields {
			if !def.Required || flagged[fieldLabel(def)] {
				continue
			}
			if missingRequiredValue(cr, def) {
				rowErrs = append(rowErrs, ImportError{
					Row:     row.Index,
					Field:   fieldLabel(def),
					Message: "required field is empty",
				})
			}
		}

		if err := r.resolveDestination(ctx, cr); err != nil {
			rowErrs = append(rowErrs, ImportError{Row: row.Index, Field: "Folder", Message: err.Error()})
		}

		if len(rowErrs) == 0 {
			batch = append(batch, cr)
		} else {
			errs = append(errs, rowErrs...)
		}
	}

	return batch, errs
}

func missingRequiredValue(cr *CaseRow, def store.TemplateField) bool {
	if def.Type == store.FieldSteps {
		return len(cr.Steps) == 0
	}
	_, ok := cr.Fields[def.ID]
	return !ok
}

// resolveDestination fills cr.FolderID per the request's import location.
// Folder chains are created as a side effect, even though this runs during
// validation.
func (r *runState) resolveDestination(ctx context.Context, cr *CaseRow) error {
	switch r.req.Location.Mode {
	case LocationSingleFolder:
		id := r.req.Location.FolderID
		cr.FolderID = &id
		return nil

	case LocationRootFolder:
		var base *string
		if r.req.Location.FolderID != "" {
			id := r.req.Location.FolderID
			base = &id
		}
		if cr.FolderPath == "" {
			cr.FolderID = base
			return nil
		}
		id, err := r.resolver.Resolve(ctx, cr.FolderPath, r.req.SplitMode, base)
		if err != nil {
			return err
		}
		cr.FolderID = &id
		return nil

	default: // LocationTopLevel
		if cr.FolderPath == "" {
			return nil
		}
		id, err := r.resolver.Resolve(ctx, cr.FolderPath, r.req.SplitMode, nil)
		if err != nil {
			return err
		}
		cr.FolderID = &id
		return nil
	}
}
