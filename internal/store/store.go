package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups when no matching row exists.
// Callers distinguish "absent" from real store failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Store is the persistence facade consumed by the import pipeline and the
// web layer. Lookups scoped by project or repository never see rows from
// other scopes.
type Store interface {
	// Run preconditions
	GetProject(ctx context.Context, id string) (*Project, error)
	GetRepositoryByProject(ctx context.Context, projectID string) (*Repository, error)
	GetTemplate(ctx context.Context, id string) (*Template, error)
	GetDefaultWorkflow(ctx context.Context, projectID string) (*Workflow, error)
	ListTemplatesByProject(ctx context.Context, projectID string) ([]*Template, error)

	// Folders
	GetFolder(ctx context.Context, id string) (*Folder, error)
	FindFolder(ctx context.Context, repositoryID string, parentID *string, name string) (*Folder, error)
	CreateFolder(ctx context.Context, f *Folder) error
	ListFoldersByRepository(ctx context.Context, repositoryID string) ([]*Folder, error)

	// Cases
	GetCase(ctx context.Context, repositoryID, id string) (*Case, error)
	CreateCase(ctx context.Context, c *Case) error
	UpdateCase(ctx context.Context, c *Case) error
	MaxOrderInFolder(ctx context.Context, folderID string) (int, error)

	// Field values
	DeleteFieldValues(ctx context.Context, caseID string) error
	CreateFieldValue(ctx context.Context, fv *FieldValue) error
	ListFieldValues(ctx context.Context, caseID string) ([]*FieldValue, error)

	// Steps
	DeleteSteps(ctx context.Context, caseID string) error
	CreateStep(ctx context.Context, s *Step) error
	ListSteps(ctx context.Context, caseID string) ([]*Step, error)

	// Versions
	LatestVersionNumber(ctx context.Context, caseID string) (int, error)
	CreateCaseVersion(ctx context.Context, v *CaseVersion) error

	// Tags
	FindTagByName(ctx context.Context, projectID, name string) (*Tag, error)
	CreateTag(ctx context.Context, t *Tag) error
	ClearCaseTags(ctx context.Context, caseID string) error
	AddCaseTag(ctx context.Context, caseID, tagID string) error
	ListCaseTags(ctx context.Context, caseID string) ([]string, error)

	// Issues
	FindIssueByName(ctx context.Context, projectID, name string) (*Issue, error)
	ClearCaseIssues(ctx context.Context, caseID string) error
	AddCaseIssue(ctx context.Context, caseID, issueID string) error
	ListCaseIssues(ctx context.Context, caseID string) ([]string, error)

	// Linked test runs
	FindRunByName(ctx context.Context, projectID, name string) (*Run, error)
	ClearCaseRunLinks(ctx context.Context, caseID string) error
	AddCaseRunLink(ctx context.Context, caseID, runID string) error
	ListCaseRunLinks(ctx context.Context, caseID string) ([]string, error)

	// Attachments
	DeleteAttachments(ctx context.Context, caseID string) error
	CreateAttachment(ctx context.Context, a *Attachment) error
	ListAttachments(ctx context.Context, caseID string) ([]*Attachment, error)

	// Users
	FindUserByNameOrEmail(ctx context.Context, q string) (*User, error)

	// Audit
	CreateAuditEntry(ctx context.Context, e *AuditEntry) error
}
