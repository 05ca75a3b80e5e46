package store

// pgstore.go implements Store on PostgreSQL via pgx.
//
// All queries go through the pool; the import pipeline serializes its own
// writes, so no transactions are opened here beyond single statements.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store backed by a pgx connection pool.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore wraps a connected pool. Call Migrate before first use.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func floatPtr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func toText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toFloat(f *float64) pgtype.Float8 {
	if f == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *f, Valid: true}
}

func (s *PgStore) GetProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

func (s *PgStore) GetRepositoryByProject(ctx context.Context, projectID string) (*Repository, error) {
	var r Repository
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id FROM repositories WHERE project_id = $1`, projectID,
	).Scan(&r.ID, &r.ProjectID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &r, nil
}

func (s *PgStore) GetTemplate(ctx context.Context, id string) (*Template, error) {
	var t Template
	var fields []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, name, fields FROM templates WHERE id = $1`, id,
	).Scan(&t.ID, &t.ProjectID, &t.Name, &fields)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if err := json.Unmarshal(fields, &t.Fields); err != nil {
		return nil, fmt.Errorf("decode template fields: %w", err)
	}
	return &t, nil
}

func (s *PgStore) GetDefaultWorkflow(ctx context.Context, projectID string) (*Workflow, error) {
	var w Workflow
	var states []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, states FROM workflows WHERE project_id = $1`, projectID,
	).Scan(&w.ID, &w.ProjectID, &states)
	if err != nil {
		return nil, mapNoRows(err)
	}
	if err := json.Unmarshal(states, &w.States); err != nil {
		return nil, fmt.Errorf("decode workflow states: %w", err)
	}
	return &w, nil
}

func (s *PgStore) ListTemplatesByProject(ctx context.Context, projectID string) ([]*Template, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, name, fields FROM templates WHERE project_id = $1 ORDER BY name`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		var t Template
		var fields []byte
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &fields); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &t.Fields); err != nil {
			return nil, fmt.Errorf("decode template fields: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *PgStore) GetFolder(ctx context.Context, id string) (*Folder, error) {
	var f Folder
	var parent pgtype.Text
	err := s.pool.QueryRow(ctx,
		`SELECT id, repository_id, parent_id, name, deleted, created_at
		 FROM folders WHERE id = $1 AND NOT deleted`, id,
	).Scan(&f.ID, &f.RepositoryID, &parent, &f.Name, &f.Deleted, &f.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	f.ParentID = textPtr(parent)
	return &f, nil
}

func (s *PgStore) FindFolder(ctx context.Context, repositoryID string, parentID *string, name string) (*Folder, error) {
	var f Folder
	var parent pgtype.Text
	err := s.pool.QueryRow(ctx,
		`SELECT id, repository_id, parent_id, name, deleted, created_at
		 FROM folders
		 WHERE repository_id = $1
		   AND parent_id IS NOT DISTINCT FROM $2
		   AND lower(name) = lower($3)
		   AND NOT deleted
		 LIMIT 1`,
		repositoryID, toText(parentID), name,
	).Scan(&f.ID, &f.RepositoryID, &parent, &f.Name, &f.Deleted, &f.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	f.ParentID = textPtr(parent)
	return &f, nil
}

func (s *PgStore) CreateFolder(ctx context.Context, f *Folder) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO folders (id, repository_id, parent_id, name) VALUES ($1, $2, $3, $4)`,
		f.ID, f.RepositoryID, toText(f.ParentID), f.Name)
	return err
}

func (s *PgStore) ListFoldersByRepository(ctx context.Context, repositoryID string) ([]*Folder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, repository_id, parent_id, name, deleted, created_at
		 FROM folders WHERE repository_id = $1 AND NOT deleted ORDER BY name`, repositoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Folder
	for rows.Next() {
		var f Folder
		var parent pgtype.Text
		if err := rows.Scan(&f.ID, &f.RepositoryID, &parent, &f.Name, &f.Deleted, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.ParentID = textPtr(parent)
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (s *PgStore) GetCase(ctx context.Context, repositoryID, id string) (*Case, error) {
	var c Case
	var folder pgtype.Text
	var estimate, forecast pgtype.Float8
	err := s.pool.QueryRow(ctx,
		`SELECT id, repository_id, folder_id, template_id, state_id, name, case_order,
		        automated, estimate, forecast, created_by, created_at, updated_at
		 FROM cases WHERE repository_id = $1 AND id = $2`,
		repositoryID, id,
	).Scan(&c.ID, &c.RepositoryID, &folder, &c.TemplateID, &c.StateID, &c.Name, &c.Order,
		&c.Automated, &estimate, &forecast, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	c.FolderID = textPtr(folder)
	c.Estimate = floatPtr(estimate)
	c.Forecast = floatPtr(forecast)
	return &c, nil
}

func (s *PgStore) CreateCase(ctx context.Context, c *Case) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cases (id, repository_id, folder_id, template_id, state_id, name,
		                    case_order, automated, estimate, forecast, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.RepositoryID, toText(c.FolderID), c.TemplateID, c.StateID, c.Name,
		c.Order, c.Automated, toFloat(c.Estimate), toFloat(c.Forecast), c.CreatedBy, c.CreatedAt)
	return err
}

func (s *PgStore) UpdateCase(ctx context.Context, c *Case) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cases SET folder_id = $2, template_id = $3, state_id = $4, name = $5,
		        automated = $6, estimate = $7, forecast = $8, updated_at = now()
		 WHERE id = $1`,
		c.ID, toText(c.FolderID), c.TemplateID, c.StateID, c.Name,
		c.Automated, toFloat(c.Estimate), toFloat(c.Forecast))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) MaxOrderInFolder(ctx context.Context, folderID string) (int, error) {
	var max int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(case_order), 0) FROM cases WHERE folder_id = $1`, folderID,
	).Scan(&max)
	return max, err
}

func (s *PgStore) DeleteFieldValues(ctx context.Context, caseID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM field_values WHERE case_id = $1`, caseID)
	return err
}

func (s *PgStore) CreateFieldValue(ctx context.Context, fv *FieldValue) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO field_values (id, case_id, field_id, value) VALUES ($1, $2, $3, $4)`,
		fv.ID, fv.CaseID, fv.FieldID, fv.Value)
	return err
}

func (s *PgStore) ListFieldValues(ctx context.Context, caseID string) ([]*FieldValue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, case_id, field_id, value FROM field_values WHERE case_id = $1`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*FieldValue
	for rows.Next() {
		var fv FieldValue
		if err := rows.Scan(&fv.ID, &fv.CaseID, &fv.FieldID, &fv.Value); err != nil {
			return nil, err
		}
		out = append(out, &fv)
	}
	return out, rows.Err()
}

func (s *PgStore) DeleteSteps(ctx context.Context, caseID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM steps WHERE case_id = $1`, caseID)
	return err
}

func (s *PgStore) CreateStep(ctx context.Context, st *Step) error {
	stepJSON, err := json.Marshal(st.Step)
	if err != nil {
		return fmt.Errorf("encode step: %w", err)
	}
	var expected []byte
	if st.Expected != nil {
		expected, err = json.Marshal(st.Expected)
		if err != nil {
			return fmt.Errorf("encode expected result: %w", err)
		}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO steps (id, case_id, step_order, step, expected) VALUES ($1, $2, $3, $4, $5)`,
		st.ID, st.CaseID, st.Order, stepJSON, expected)
	return err
}

func (s *PgStore) ListSteps(ctx context.Context, caseID string) ([]*Step, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, case_id, step_order, step, expected FROM steps
		 WHERE case_id = $1 ORDER BY step_order`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Step
	for rows.Next() {
		var st Step
		var stepJSON, expected []byte
		if err := rows.Scan(&st.ID, &st.CaseID, &st.Order, &stepJSON, &expected); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(stepJSON, &st.Step); err != nil {
			return nil, fmt.Errorf("decode step: %w", err)
		}
		if len(expected) > 0 {
			var doc RichDoc
			if err := json.Unmarshal(expected, &doc); err != nil {
				return nil, fmt.Errorf("decode expected result: %w", err)
			}
			st.Expected = &doc
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

func (s *PgStore) LatestVersionNumber(ctx context.Context, caseID string) (int, error) {
	var max int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(number), 0) FROM case_versions WHERE case_id = $1`, caseID,
	).Scan(&max)
	return max, err
}

func (s *PgStore) CreateCaseVersion(ctx context.Context, v *CaseVersion) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO case_versions (id, case_id, number, snapshot, created_by)
		 VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.CaseID, v.Number, v.Snapshot, v.CreatedBy)
	return err
}

func (s *PgStore) FindTagByName(ctx context.Context, projectID, name string) (*Tag, error) {
	var t Tag
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, name FROM tags WHERE project_id = $1 AND name = $2`,
		projectID, name,
	).Scan(&t.ID, &t.ProjectID, &t.Name)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &t, nil
}

func (s *PgStore) CreateTag(ctx context.Context, t *Tag) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tags (id, project_id, name) VALUES ($1, $2, $3)`,
		t.ID, t.ProjectID, t.Name)
	return err
}

func (s *PgStore) ClearCaseTags(ctx context.Context, caseID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM case_tags WHERE case_id = $1`, caseID)
	return err
}

func (s *PgStore) AddCaseTag(ctx context.Context, caseID, tagID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO case_tags (case_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		caseID, tagID)
	return err
}

func (s *PgStore) ListCaseTags(ctx context.Context, caseID string) ([]string, error) {
	return s.listLinks(ctx, `SELECT tag_id FROM case_tags WHERE case_id = $1`, caseID)
}

func (s *PgStore) FindIssueByName(ctx context.Context, projectID, name string) (*Issue, error) {
	var i Issue
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, name FROM issues WHERE project_id = $1 AND name = $2`,
		projectID, name,
	).Scan(&i.ID, &i.ProjectID, &i.Name)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &i, nil
}

func (s *PgStore) ClearCaseIssues(ctx context.Context, caseID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM case_issues WHERE case_id = $1`, caseID)
	return err
}

func (s *PgStore) AddCaseIssue(ctx context.Context, caseID, issueID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO case_issues (case_id, issue_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		caseID, issueID)
	return err
}

func (s *PgStore) ListCaseIssues(ctx context.Context, caseID string) ([]string, error) {
	return s.listLinks(ctx, `SELECT issue_id FROM case_issues WHERE case_id = $1`, caseID)
}

func (s *PgStore) FindRunByName(ctx context.Context, projectID, name string) (*Run, error) {
	var r Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, name FROM runs WHERE project_id = $1 AND name = $2`,
		projectID, name,
	).Scan(&r.ID, &r.ProjectID, &r.Name)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &r, nil
}

func (s *PgStore) ClearCaseRunLinks(ctx context.Context, caseID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM case_run_links WHERE case_id = $1`, caseID)
	return err
}

func (s *PgStore) AddCaseRunLink(ctx context.Context, caseID, runID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO case_run_links (case_id, run_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		caseID, runID)
	return err
}

func (s *PgStore) ListCaseRunLinks(ctx context.Context, caseID string) ([]string, error) {
	return s.listLinks(ctx, `SELECT run_id FROM case_run_links WHERE case_id = $1`, caseID)
}

func (s *PgStore) DeleteAttachments(ctx context.Context, caseID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM attachments WHERE case_id = $1`, caseID)
	return err
}

func (s *PgStore) CreateAttachment(ctx context.Context, a *Attachment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO attachments (id, case_id, file_name, url, size) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.CaseID, a.FileName, a.URL, a.Size)
	return err
}

func (s *PgStore) ListAttachments(ctx context.Context, caseID string) ([]*Attachment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, case_id, file_name, url, size FROM attachments WHERE case_id = $1`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.CaseID, &a.FileName, &a.URL, &a.Size); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PgStore) FindUserByNameOrEmail(ctx context.Context, q string) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email FROM users
		 WHERE lower(name) = lower($1) OR lower(email) = lower($1) LIMIT 1`, q,
	).Scan(&u.ID, &u.Name, &u.Email)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &u, nil
}

func (s *PgStore) CreateAuditEntry(ctx context.Context, e *AuditEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log (id, action, entity_type, project_id, count, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Action, e.EntityType, e.ProjectID, e.Count, e.Metadata)
	return err
}

func (s *PgStore) listLinks(ctx context.Context, query, caseID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
