package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddl is the full schema, applied idempotently on startup.
var ddl = strings.TrimSpace(`
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS repositories (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id)
);
CREATE TABLE IF NOT EXISTS templates (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	name TEXT NOT NULL,
	fields JSONB NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	states JSONB NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS folders (
	id TEXT PRIMARY KEY,
	repository_id TEXT NOT NULL REFERENCES repositories(id),
	parent_id TEXT REFERENCES folders(id),
	name TEXT NOT NULL,
	deleted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(repository_id, parent_id);
CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	repository_id TEXT NOT NULL REFERENCES repositories(id),
	folder_id TEXT REFERENCES folders(id),
	template_id TEXT NOT NULL,
	state_id TEXT NOT NULL,
	name TEXT NOT NULL,
	case_order INTEGER NOT NULL DEFAULT 0,
	automated BOOLEAN NOT NULL DEFAULT FALSE,
	estimate DOUBLE PRECISION,
	forecast DOUBLE PRECISION,
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_cases_folder ON cases(folder_id);
CREATE TABLE IF NOT EXISTS field_values (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	field_id TEXT NOT NULL,
	value JSONB
);
CREATE INDEX IF NOT EXISTS idx_field_values_case ON field_values(case_id);
CREATE TABLE IF NOT EXISTS steps (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	step_order INTEGER NOT NULL,
	step JSONB NOT NULL,
	expected JSONB
);
CREATE INDEX IF NOT EXISTS idx_steps_case ON steps(case_id);
CREATE TABLE IF NOT EXISTS case_versions (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	number INTEGER NOT NULL,
	snapshot JSONB NOT NULL,
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_case_versions_case ON case_versions(case_id);
CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS case_tags (
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	tag_id TEXT NOT NULL REFERENCES tags(id),
	PRIMARY KEY (case_id, tag_id)
);
CREATE TABLE IF NOT EXISTS issues (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS case_issues (
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	issue_id TEXT NOT NULL REFERENCES issues(id),
	PRIMARY KEY (case_id, issue_id)
);
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS case_run_links (
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	run_id TEXT NOT NULL REFERENCES runs(id),
	PRIMARY KEY (case_id, run_id)
);
CREATE TABLE IF NOT EXISTS attachments (
	id TEXT PRIMARY KEY,
	case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
	file_name TEXT NOT NULL,
	url TEXT NOT NULL,
	size BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	project_id TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	metadata JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`)

// Migrate applies the schema. Statements are idempotent so running it on
// every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
