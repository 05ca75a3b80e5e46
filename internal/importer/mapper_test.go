package importer

import (
	"testing"

	"github.com/caseport/caseport/internal/store"
)

func testTemplate() *store.Template {
	return &store.Template{
		ID: "t1",
		Fields: []store.TemplateField{
			{ID: "f_sev", SystemName: "severity", DisplayName: "Severity", Type: store.FieldDropdown,
				Options: []store.FieldOption{{ID: "opt_s1", Name: "S1"}}},
			{ID: "f_steps", SystemName: "test_steps", DisplayName: "Steps", Type: store.FieldSteps},
		},
	}
}

func TestMapRow_ReservedTargets(t *testing.T) {
	mapper := newFieldMapper(testTemplate(), []FieldMapping{
		{SourceColumn: "Title", TargetField: "name"},
		{SourceColumn: "Ref", TargetField: "id"},
		{SourceColumn: "Est", TargetField: "estimate"},
		{SourceColumn: "Auto", TargetField: "automated"},
		{SourceColumn: "Path", TargetField: "folder"},
		{SourceColumn: "Labels", TargetField: "tags"},
		{SourceColumn: "State", TargetField: "workflowstate"},
		{SourceColumn: "By", TargetField: "createdby"},
	})

	cr, errs := mapper.MapRow(Row{Index: 0, Values: map[string]string{
		"Title":  "Login works",
		"Ref":    "TC-9",
		"Est":    "2.5",
		"Auto":   "yes",
		"Path":   "UI/Auth",
		"Labels": "smoke, auth",
		"State":  "Done",
		"By":     "alice@example.com",
	}})
	if len(errs) != 0 {
		t.Fatalf("errs = %v, want none", errs)
	}

	if cr.Name != "Login works" {
		t.Errorf("Name = %q", cr.Name)
	}
	if cr.ExternalID == nil || *cr.ExternalID != "TC-9" {
		t.Errorf("ExternalID = %v, want TC-9", cr.ExternalID)
	}
	if cr.Estimate == nil || *cr.Estimate != 2.5 {
		t.Errorf("Estimate = %v, want 2.5", cr.Estimate)
	}
	if !cr.Automated {
		t.Error("Automated = false, want true")
	}
	if cr.FolderPath != "UI/Auth" {
		t.Errorf("FolderPath = %q", cr.FolderPath)
	}
	if len(cr.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 tokens", cr.Tags)
	}
	if cr.WorkflowState != "Done" {
		t.Errorf("WorkflowState = %q", cr.WorkflowState)
	}
	if cr.CreatedBy != "alice@example.com" {
		t.Errorf("CreatedBy = %q", cr.CreatedBy)
	}
}

func TestMapRow_EmptyIDStaysNil(t *testing.T) {
	mapper := newFieldMapper(testTemplate(), []FieldMapping{
		{SourceColumn: "Ref", TargetField: "id"},
	})
	cr, _ := mapper.MapRow(Row{Values: map[string]string{"Ref": ""}})
	if cr.ExternalID != nil {
		t.Errorf("ExternalID = %v, want nil for an empty cell", *cr.ExternalID)
	}
}

func TestMapRow_TemplateFieldByDisplayName(t *testing.T) {
	mapper := newFieldMapper(testTemplate(), []FieldMapping{
		{SourceColumn: "Sev", TargetField: "Severity"},
	})
	cr, errs := mapper.MapRow(Row{Values: map[string]string{"Sev": "s1"}})
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if cr.Fields["f_sev"] != "opt_s1" {
		t.Errorf("field value = %v, want opt_s1", cr.Fields["f_sev"])
	}
}

func TestMapRow_StepsFieldFillsSteps(t *testing.T) {
	mapper := newFieldMapper(testTemplate(), []FieldMapping{
		{SourceColumn: "S", TargetField: "test_steps"},
	})
	cr, errs := mapper.MapRow(Row{Values: map[string]string{"S": "1. Open | ok\n2. Close"}})
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(cr.Steps) != 2 {
		t.Fatalf("Steps = %d, want 2", len(cr.Steps))
	}
	if _, ok := cr.Fields["f_steps"]; ok {
		t.Error("steps leaked into the scalar field map")
	}
}

func TestMapRow_ValidationErrorCarriesLabel(t *testing.T) {
	mapper := newFieldMapper(testTemplate(), []FieldMapping{
		{SourceColumn: "Sev", TargetField: "severity"},
	})
	_, errs := mapper.MapRow(Row{Index: 4, Values: map[string]string{"Sev": "S9"}})
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one", errs)
	}
	if errs[0].Row != 4 || errs[0].Field != "Severity" {
		t.Errorf("error = %+v, want row 4 field Severity", errs[0])
	}
}

func TestMapRow_UnmappedColumnsIgnored(t *testing.T) {
	mapper := newFieldMapper(testTemplate(), []FieldMapping{
		{SourceColumn: "Title", TargetField: "name"},
		{SourceColumn: "Ghost", TargetField: "no_such_field"},
	})
	cr, errs := mapper.MapRow(Row{Values: map[string]string{
		"Title": "A",
		"Ghost": "whatever",
	}})
	if len(errs) != 0 {
		t.Fatalf("errs = %v, want none for unknown targets", errs)
	}
	if len(cr.Fields) != 0 {
		t.Errorf("Fields = %v, want empty", cr.Fields)
	}
}
