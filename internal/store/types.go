// Package store provides the persistence layer for projects, repositories,
// templates, folders, cases and their related entities.
//
// Domain and web code use only the Store interface; the implementation is
// PostgreSQL (PgStore) or in-memory (MemStore, for tests).
package store

import (
	"encoding/json"
	"time"
)

// FieldType identifies the validation strategy for a template field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldLongText    FieldType = "longtext"
	FieldInteger     FieldType = "integer"
	FieldNumber      FieldType = "number"
	FieldCheckbox    FieldType = "checkbox"
	FieldDropdown    FieldType = "dropdown"
	FieldMultiSelect FieldType = "multiselect"
	FieldLink        FieldType = "link"
	FieldSteps       FieldType = "steps"
)

// FieldOption is one selectable value of a dropdown or multi-select field.
type FieldOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TemplateField defines one custom field of a template.
type TemplateField struct {
	ID          string        `json:"id"`
	SystemName  string        `json:"systemName"`
	DisplayName string        `json:"displayName"`
	Type        FieldType     `json:"type"`
	Required    bool          `json:"required"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
}

// Project is the top-level container. Import runs target one project.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Repository holds the case tree of a project.
type Repository struct {
	ID        string
	ProjectID string
}

// Template is the per-project field schema. Fields keep their defined order.
type Template struct {
	ID        string
	ProjectID string
	Name      string
	Fields    []TemplateField
}

// WorkflowState is one state of a workflow; exactly one carries Default.
type WorkflowState struct {
	ID      string
	Name    string
	Default bool
}

// Workflow groups the states available to a project's cases.
type Workflow struct {
	ID        string
	ProjectID string
	States    []WorkflowState
}

// Folder is one node of the repository folder tree. ParentID is nil for
// top-level folders. Deleted folders stay in place but are never matched.
type Folder struct {
	ID           string
	RepositoryID string
	ParentID     *string
	Name         string
	Deleted      bool
	CreatedAt    time.Time
}

// Case is a single test case. The ID is either caller-supplied (external id)
// or generated; Order is the position inside its folder.
type Case struct {
	ID           string
	RepositoryID string
	FolderID     *string
	TemplateID   string
	StateID      string
	Name         string
	Order        int
	Automated    bool
	Estimate     *float64
	Forecast     *float64
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FieldValue is one scalar custom-field value of a case, stored as JSON.
type FieldValue struct {
	ID      string
	CaseID  string
	FieldID string
	Value   json.RawMessage
}

// Step is one ordered step of a case. Expected may be nil.
type Step struct {
	ID       string
	CaseID   string
	Order    int
	Step     RichDoc
	Expected *RichDoc
}

// CaseVersion is an append-only snapshot of a case after a write.
type CaseVersion struct {
	ID        string
	CaseID    string
	Number    int
	Snapshot  json.RawMessage
	CreatedBy string
	CreatedAt time.Time
}

// Tag is a project-scoped label; missing tags are auto-created on import.
type Tag struct {
	ID        string
	ProjectID string
	Name      string
}

// Issue is an external issue reference known to the project.
type Issue struct {
	ID        string
	ProjectID string
	Name      string
}

// Run is a test run cases can be linked to.
type Run struct {
	ID        string
	ProjectID string
	Name      string
}

// Attachment is a file reference attached to a case.
type Attachment struct {
	ID       string
	CaseID   string
	FileName string
	URL      string
	Size     int64
}

// User is an account that can author cases.
type User struct {
	ID    string
	Name  string
	Email string
}

// AuditEntry records a bulk operation for the audit trail.
type AuditEntry struct {
	ID         string
	Action     string
	EntityType string
	ProjectID  string
	Count      int
	Metadata   json.RawMessage
	CreatedAt  time.Time
}

// RichDoc is the structured rich-text document stored for long-text values
// and step bodies.
type RichDoc struct {
	Type    string        `json:"type"`
	Content []RichContent `json:"content,omitempty"`
}

// RichContent is one node of a RichDoc.
type RichContent struct {
	Type    string        `json:"type"`
	Text    string        `json:"text,omitempty"`
	Content []RichContent `json:"content,omitempty"`
}

// TextDoc wraps plain text as a single-paragraph rich document.
func TextDoc(text string) RichDoc {
	return RichDoc{
		Type: "doc",
		Content: []RichContent{
			{
				Type:    "paragraph",
				Content: []RichContent{{Type: "text", Text: text}},
			},
		},
	}
}

// PlainText flattens a RichDoc back to its text content.
func (d RichDoc) PlainText() string {
	var out string
	var walk func(nodes []RichContent)
	walk = func(nodes []RichContent) {
		for _, n := range nodes {
			if n.Text != "" {
				out += n.Text
			}
			walk(n.Content)
		}
	}
	walk(d.Content)
	return out
}
