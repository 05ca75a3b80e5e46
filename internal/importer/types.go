// Package importer implements the two-phase bulk import pipeline for test
// cases: decode delimited text, map columns onto a template field schema,
// validate and coerce per field type, resolve destination folders, reconcile
// create-vs-update by external id, synchronize relations, snapshot versions
// and stream progress events.
//
// Phase 1 validates every row and aggregates errors; any error rejects the
// whole run before a single case is written. Phase 2 commits validated rows
// one by one, isolating per-row and per-relation-item failures.
package importer

import (
	"time"

	"github.com/caseport/caseport/internal/store"
)

// SplitMode selects how a folder path cell is split into segments.
type SplitMode string

const (
	SplitNone  SplitMode = "none"
	SplitSlash SplitMode = "slash"
	SplitDot   SplitMode = "dot"
	SplitAngle SplitMode = "angle"
)

// Separator returns the path separator for the mode, or "" for SplitNone.
func (m SplitMode) Separator() string {
	switch m {
	case SplitSlash:
		return "/"
	case SplitDot:
		return "."
	case SplitAngle:
		return ">"
	default:
		return ""
	}
}

// LocationMode selects how the destination folder of each row is determined.
type LocationMode string

const (
	// LocationSingleFolder places every row into one fixed folder.
	LocationSingleFolder LocationMode = "single"
	// LocationRootFolder resolves each row's folder path under an optional
	// base folder.
	LocationRootFolder LocationMode = "root"
	// LocationTopLevel resolves each row's folder path from the repository
	// root; rows without a path stay unfiled.
	LocationTopLevel LocationMode = "top"
)

// ImportLocation is the destination variant of an import request.
type ImportLocation struct {
	Mode     LocationMode `json:"mode"`
	FolderID string       `json:"folderId,omitempty"`
}

// FieldMapping associates one input column with a target field. TargetField
// is either a reserved system field name or a template field reference.
type FieldMapping struct {
	SourceColumn string `json:"sourceColumn"`
	TargetField  string `json:"targetField"`
}

// ImportRequest describes one import run.
type ImportRequest struct {
	ProjectID  string         `json:"-"`
	Text       string         `json:"text"`
	Delimiter  string         `json:"delimiter"`
	HasHeader  bool           `json:"hasHeader"`
	TemplateID string         `json:"templateId"`
	Location   ImportLocation `json:"importLocation"`
	Mappings   []FieldMapping `json:"fieldMappings"`
	SplitMode  SplitMode      `json:"folderSplitMode"`
}

// DelimiterRune returns the configured delimiter, defaulting to comma.
func (r ImportRequest) DelimiterRune() rune {
	for _, c := range r.Delimiter {
		return c
	}
	return ','
}

// ImportError is one validation or commit error, addressed to a row and a
// field label.
type ImportError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StepInput is one validated case step awaiting insertion.
type StepInput struct {
	Order    int
	Step     store.RichDoc
	Expected *store.RichDoc
}

// CaseRow is the per-row intermediate produced by the field mapper and
// consumed by the reconciler. It lives only for the duration of one run.
type CaseRow struct {
	Row         int
	Name        string
	ExternalID  *string
	Fields      map[string]any // fieldID -> validated value
	Steps       []StepInput
	Tags        []string
	Attachments string // raw cell, parsed during relation sync
	Issues      []string
	Runs        []string
	FolderID    *string
	FolderPath  string

	// Soft-lookup inputs; all degrade silently to defaults.
	WorkflowState string
	CreatedBy     string
	CreatedAtRaw  string

	Version   *int
	Estimate  *float64
	Forecast  *float64
	Automated bool
}

// ParsedCreatedAt returns the explicit created-at if the raw cell parses,
// or fallback otherwise.
func (r *CaseRow) ParsedCreatedAt(fallback time.Time) time.Time {
	if r.CreatedAtRaw == "" {
		return fallback
	}
	if t, ok := parseDate(r.CreatedAtRaw); ok {
		return t
	}
	return fallback
}
