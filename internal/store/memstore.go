package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemStore is an in-memory Store for tests. Implements Store.
type MemStore struct {
	mu           sync.Mutex
	projects     map[string]*Project
	repositories map[string]*Repository
	templates    map[string]*Template
	workflows    map[string]*Workflow
	folders      map[string]*Folder
	cases        map[string]*Case
	fieldValues  map[string][]*FieldValue // caseID -> values
	steps        map[string][]*Step       // caseID -> ordered steps
	versions     map[string][]*CaseVersion
	tags         map[string]*Tag
	caseTags     map[string][]string // caseID -> tagIDs
	issues       map[string]*Issue
	caseIssues   map[string][]string
	runs         map[string]*Run
	caseRuns     map[string][]string
	attachments  map[string][]*Attachment
	users        map[string]*User
	audit        []*AuditEntry

	// Call counters some tests assert on.
	CaseCreates   int
	CaseUpdates   int
	FolderCreates int
}

// NewMemStore returns an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{
		projects:     make(map[string]*Project),
		repositories: make(map[string]*Repository),
		templates:    make(map[string]*Template),
		workflows:    make(map[string]*Workflow),
		folders:      make(map[string]*Folder),
		cases:        make(map[string]*Case),
		fieldValues:  make(map[string][]*FieldValue),
		steps:        make(map[string][]*Step),
		versions:     make(map[string][]*CaseVersion),
		tags:         make(map[string]*Tag),
		caseTags:     make(map[string][]string),
		issues:       make(map[string]*Issue),
		caseIssues:   make(map[string][]string),
		runs:         make(map[string]*Run),
		caseRuns:     make(map[string][]string),
		attachments:  make(map[string][]*Attachment),
		users:        make(map[string]*User),
	}
}

// ---------------------------------------------------------------
// Seeding helpers (test setup; not part of the Store interface)
// ---------------------------------------------------------------

func (s *MemStore) AddProject(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
}

func (s *MemStore) AddRepository(r *Repository) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repositories[r.ID] = r
}

func (s *MemStore) AddTemplate(t *Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
}

func (s *MemStore) AddWorkflow(w *Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[w.ID] = w
}

func (s *MemStore) AddIssue(i *Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues[i.ID] = i
}

func (s *MemStore) AddRun(r *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
}

func (s *MemStore) AddUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemStore) AddCase(c *Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = c
}

func (s *MemStore) AddFolder(f *Folder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[f.ID] = f
}

// FolderCount returns the number of folders in a repository.
func (s *MemStore) FolderCount(repositoryID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.folders {
		if f.RepositoryID == repositoryID {
			n++
		}
	}
	return n
}

// Cases returns a snapshot of all stored cases keyed by id.
func (s *MemStore) Cases() map[string]*Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Case, len(s.cases))
	for id, c := range s.cases {
		cp := *c
		out[id] = &cp
	}
	return out
}

// Versions returns the stored versions for a case, ordered by number.
func (s *MemStore) Versions(caseID string) []*CaseVersion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]*CaseVersion(nil), s.versions[caseID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// ---------------------------------------------------------------
// Store implementation
// ---------------------------------------------------------------

func (s *MemStore) GetProject(_ context.Context, id string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemStore) GetRepositoryByProject(_ context.Context, projectID string) (*Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.repositories {
		if r.ProjectID == projectID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) GetTemplate(_ context.Context, id string) (*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemStore) GetDefaultWorkflow(_ context.Context, projectID string) (*Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workflows {
		if w.ProjectID == projectID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) ListTemplatesByProject(_ context.Context, projectID string) ([]*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Template
	for _, t := range s.templates {
		if t.ProjectID == projectID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetFolder(_ context.Context, id string) (*Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.folders[id]; ok && !f.Deleted {
		cp := *f
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemStore) FindFolder(_ context.Context, repositoryID string, parentID *string, name string) (*Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.folders {
		if f.RepositoryID != repositoryID || f.Deleted {
			continue
		}
		if !sameParent(f.ParentID, parentID) {
			continue
		}
		if strings.EqualFold(f.Name, name) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) CreateFolder(_ context.Context, f *Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.folders[f.ID] = &cp
	s.FolderCreates++
	return nil
}

func (s *MemStore) ListFoldersByRepository(_ context.Context, repositoryID string) ([]*Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Folder
	for _, f := range s.folders {
		if f.RepositoryID == repositoryID && !f.Deleted {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) GetCase(_ context.Context, repositoryID, id string) (*Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cases[id]; ok && c.RepositoryID == repositoryID {
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemStore) CreateCase(_ context.Context, c *Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.cases[c.ID] = &cp
	s.CaseCreates++
	return nil
}

func (s *MemStore) UpdateCase(_ context.Context, c *Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	s.cases[c.ID] = &cp
	s.CaseUpdates++
	return nil
}

func (s *MemStore) MaxOrderInFolder(_ context.Context, folderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, c := range s.cases {
		if c.FolderID != nil && *c.FolderID == folderID && c.Order > max {
			max = c.Order
		}
	}
	return max, nil
}

func (s *MemStore) DeleteFieldValues(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fieldValues, caseID)
	return nil
}

func (s *MemStore) CreateFieldValue(_ context.Context, fv *FieldValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *fv
	cp.Value = append(json.RawMessage(nil), fv.Value...)
	s.fieldValues[fv.CaseID] = append(s.fieldValues[fv.CaseID], &cp)
	return nil
}

func (s *MemStore) ListFieldValues(_ context.Context, caseID string) ([]*FieldValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FieldValue, 0, len(s.fieldValues[caseID]))
	for _, fv := range s.fieldValues[caseID] {
		cp := *fv
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) DeleteSteps(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.steps, caseID)
	return nil
}

func (s *MemStore) CreateStep(_ context.Context, st *Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.steps[st.CaseID] = append(s.steps[st.CaseID], &cp)
	return nil
}

func (s *MemStore) ListSteps(_ context.Context, caseID string) ([]*Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]*Step(nil), s.steps[caseID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *MemStore) LatestVersionNumber(_ context.Context, caseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, v := range s.versions[caseID] {
		if v.Number > max {
			max = v.Number
		}
	}
	return max, nil
}

func (s *MemStore) CreateCaseVersion(_ context.Context, v *CaseVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.versions[v.CaseID] = append(s.versions[v.CaseID], &cp)
	return nil
}

func (s *MemStore) FindTagByName(_ context.Context, projectID, name string) (*Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.ProjectID == projectID && t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) CreateTag(_ context.Context, t *Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tags[t.ID] = &cp
	return nil
}

func (s *MemStore) ClearCaseTags(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caseTags, caseID)
	return nil
}

func (s *MemStore) AddCaseTag(_ context.Context, caseID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseTags[caseID] = append(s.caseTags[caseID], tagID)
	return nil
}

func (s *MemStore) ListCaseTags(_ context.Context, caseID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.caseTags[caseID]...), nil
}

func (s *MemStore) FindIssueByName(_ context.Context, projectID, name string) (*Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.issues {
		if i.ProjectID == projectID && i.Name == name {
			cp := *i
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) ClearCaseIssues(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caseIssues, caseID)
	return nil
}

func (s *MemStore) AddCaseIssue(_ context.Context, caseID, issueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseIssues[caseID] = append(s.caseIssues[caseID], issueID)
	return nil
}

func (s *MemStore) ListCaseIssues(_ context.Context, caseID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.caseIssues[caseID]...), nil
}

func (s *MemStore) FindRunByName(_ context.Context, projectID, name string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ProjectID == projectID && r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) ClearCaseRunLinks(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caseRuns, caseID)
	return nil
}

func (s *MemStore) AddCaseRunLink(_ context.Context, caseID, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseRuns[caseID] = append(s.caseRuns[caseID], runID)
	return nil
}

func (s *MemStore) ListCaseRunLinks(_ context.Context, caseID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.caseRuns[caseID]...), nil
}

func (s *MemStore) DeleteAttachments(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attachments, caseID)
	return nil
}

func (s *MemStore) CreateAttachment(_ context.Context, a *Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.attachments[a.CaseID] = append(s.attachments[a.CaseID], &cp)
	return nil
}

func (s *MemStore) ListAttachments(_ context.Context, caseID string) ([]*Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Attachment, 0, len(s.attachments[caseID]))
	for _, a := range s.attachments[caseID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) FindUserByNameOrEmail(_ context.Context, q string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Name, q) || strings.EqualFold(u.Email, q) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) CreateAuditEntry(_ context.Context, e *AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.audit = append(s.audit, &cp)
	return nil
}

// AuditEntries returns all recorded audit entries.
func (s *MemStore) AuditEntries() []*AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*AuditEntry(nil), s.audit...)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
