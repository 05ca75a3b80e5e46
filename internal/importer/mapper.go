package importer

// mapper.go applies the configured column mappings to one decoded row,
// producing the CaseRow intermediate. Reserved system targets take loose
// coercion; template-defined targets go through the strict field validator.

import (
	"strings"

	"github.com/caseport/caseport/internal/store"
)

type fieldMapper struct {
	template *store.Template
	mappings []FieldMapping
}

func newFieldMapper(template *store.Template, mappings []FieldMapping) *fieldMapper {
	return &fieldMapper{template: template, mappings: mappings}
}

// MapRow maps one decoded row to a CaseRow, collecting field validation
// errors. The returned CaseRow is usable only when the error list is empty.
func (m *fieldMapper) MapRow(row Row) (*CaseRow, []ImportError) {
	cr := &CaseRow{
		Row:    row.Index,
		Fields: make(map[string]any),
	}
	var errs []ImportError

	for _, mapping := range m.mappings {
		raw, ok := row.Values[mapping.SourceColumn]
		if !ok {
			continue
		}

		if m.applyReserved(cr, mapping.TargetField, raw) {
			continue
		}

		def, ok := m.findField(mapping.TargetField)
		if !ok {
			continue
		}

		value, fe := ValidateField(raw, def)
		if fe != nil {
			errs = append(errs, ImportError{
				Row:     row.Index,
				Field:   fieldLabel(def),
				Message: fe.Message,
			})
			continue
		}
		if value == nil {
			continue
		}

		if def.Type == store.FieldSteps {
			cr.Steps = value.([]StepInput)
		} else {
			cr.Fields[def.ID] = value
		}
	}

	return cr, errs
}

// applyReserved routes reserved system targets; reports false when the
// target is not reserved.
func (m *fieldMapper) applyReserved(cr *CaseRow, target, raw string) bool {
	switch strings.ToLower(target) {
	case "name":
		cr.Name = raw
	case "id":
		if raw != "" {
			id := raw
			cr.ExternalID = &id
		}
	case "estimate":
		// Loose path: parse failure means null, not a validation error.
		cr.Estimate = looseNumber(raw)
	case "forecast":
		cr.Forecast = looseNumber(raw)
	case "automated":
		cr.Automated = looseBool(raw)
	case "folder":
		cr.FolderPath = raw
	case "tags":
		cr.Tags = splitList(raw)
	case "issues":
		cr.Issues = splitList(raw)
	case "testruns":
		cr.Runs = splitList(raw)
	case "attachments":
		cr.Attachments = raw
	case "workflowstate":
		cr.WorkflowState = raw
	case "createdat":
		cr.CreatedAtRaw = raw
	case "createdby":
		cr.CreatedBy = raw
	case "version":
		cr.Version = looseInt(raw)
	case "steps":
		if raw != "" {
			cr.Steps = ParseSteps(raw)
		}
	default:
		return false
	}
	return true
}

// findField matches a mapping target against the template schema by
// case-insensitive system-name or display-name equality.
func (m *fieldMapper) findField(target string) (store.TemplateField, bool) {
	for _, def := range m.template.Fields {
		if strings.EqualFold(def.SystemName, target) || strings.EqualFold(def.DisplayName, target) {
			return def, true
		}
	}
	return store.TemplateField{}, false
}

func fieldLabel(def store.TemplateField) string {
	if def.DisplayName != "" {
		return def.DisplayName
	}
	return def.SystemName
}
