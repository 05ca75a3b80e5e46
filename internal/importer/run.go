package importer

// run.go is the orchestrator. It sequences the two phases: fatal
// precondition lookups, Phase 1 validation across all rows, then strictly
// sequential per-row commits with isolated failures, relation sync, search
// indexing and a final audit record.
//
// Execution within one run is single-threaded; the folder cache and order
// counters are owned by the run and discarded with it. Concurrent runs on
// the same project are not serialized here.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caseport/caseport/internal/audit"
	"github.com/caseport/caseport/internal/search"
	"github.com/caseport/caseport/internal/store"
)

// Importer runs import pipelines against a Store.
type Importer struct {
	store  store.Store
	search search.Indexer
	audit  *audit.Recorder
	log    *slog.Logger
}

// New creates an Importer. A nil indexer disables search sync; a nil logger
// falls back to slog.Default.
func New(st store.Store, idx search.Indexer, rec *audit.Recorder, log *slog.Logger) *Importer {
	if idx == nil {
		idx = search.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Importer{store: st, search: idx, audit: rec, log: log}
}

// runState is the run-scoped mutable context passed through Phase 2. It is
// owned by exactly one run and never shared.
type runState struct {
	store          store.Store
	req            ImportRequest
	project        *store.Project
	repo           *store.Repository
	template       *store.Template
	workflow       *store.Workflow
	defaultStateID string
	actingUser     string
	resolver       *folderResolver
	orders         map[string]int // folder id -> last assigned order
	log            *slog.Logger
}

// Run starts an import and returns its ordered event stream. The channel
// closes after the single terminal event.
func (imp *Importer) Run(ctx context.Context, req ImportRequest, actingUserID string) <-chan Event {
	rep := newReporter()
	go imp.run(ctx, req, actingUserID, rep)
	return rep.ch
}

func (imp *Importer) run(ctx context.Context, req ImportRequest, actingUserID string, rep *reporter) {
	defer func() {
		if p := recover(); p != nil {
			imp.log.Error("import run panicked", "project", req.ProjectID, "panic", p)
			rep.fail(fmt.Sprintf("internal error: %v", p), nil)
		}
	}()

	log := imp.log.With("project", req.ProjectID)

	rs, fatal := imp.prepare(ctx, req, actingUserID, log)
	if fatal != "" {
		rep.fail(fatal, nil)
		return
	}

	rows, err := Decode(req.Text, req.DelimiterRune(), req.HasHeader)
	if err != nil {
		rep.fail(err.Error(), nil)
		return
	}

	batch, errs := rs.validateRows(ctx, rows)
	if len(errs) > 0 {
		log.Info("import rejected by validation", "rows", len(rows), "errors", len(errs))
		rep.fail("validation failed", errs)
		return
	}

	if err := rs.prefetchOrders(ctx, batch); err != nil {
		rep.fail(err.Error(), nil)
		return
	}

	imported := 0
	var commitErrs []ImportError

	for _, cr := range batch {
		caseID, updated, err := rs.commitRow(ctx, cr)
		if err != nil {
			// Per-row isolation: record and continue with the next row.
			log.Warn("row commit failed", "row", cr.Row, "error", err)
			commitErrs = append(commitErrs, ImportError{
				Row:     cr.Row,
				Field:   "Case",
				Message: err.Error(),
			})
		} else {
			imported++
			rs.syncRelations(ctx, caseID, cr, updated)
			if err := imp.search.Sync(ctx, caseID); err != nil {
				log.Warn("search sync failed", "case", caseID, "error", err)
			}
		}
		rep.progress(imported, len(batch))
	}

	if imported > 0 && imp.audit != nil {
		imp.audit.RecordBulkCreate(ctx, "case", imported, rs.project.ID, map[string]any{
			"templateId": rs.template.ID,
			"rows":       len(batch),
		})
	}

	log.Info("import complete", "imported", imported, "failed", len(commitErrs))
	rep.complete(imported, commitErrs)
}

// prepare resolves the run's preconditions. A non-empty return message is a
// fatal error: the run aborts with a single error event and no row events.
func (imp *Importer) prepare(ctx context.Context, req ImportRequest, actingUserID string, log *slog.Logger) (*runState, string) {
	project, err := imp.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, lookupFailure("project", err)
	}

	repo, err := imp.store.GetRepositoryByProject(ctx, project.ID)
	if err != nil {
		return nil, lookupFailure("repository", err)
	}

	template, err := imp.store.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, lookupFailure("template", err)
	}
	if template.ProjectID != project.ID {
		return nil, "template not found"
	}

	workflow, err := imp.store.GetDefaultWorkflow(ctx, project.ID)
	if err != nil {
		return nil, lookupFailure("default workflow", err)
	}
	defaultStateID := ""
	for _, st := range workflow.States {
		if st.Default {
			defaultStateID = st.ID
			break
		}
	}
	if defaultStateID == "" {
		if len(workflow.States) == 0 {
			return nil, "default workflow has no states"
		}
		defaultStateID = workflow.States[0].ID
	}

	return &runState{
		store:          imp.store,
		req:            req,
		project:        project,
		repo:           repo,
		template:       template,
		workflow:       workflow,
		defaultStateID: defaultStateID,
		actingUser:     actingUserID,
		resolver:       newFolderResolver(imp.store, repo.ID),
		orders:         make(map[string]int),
		log:            log,
	}, ""
}

// prefetchOrders seeds the order counters with the current max order of
// every destination folder in the batch, once, before Phase 2 begins.
func (r *runState) prefetchOrders(ctx context.Context, batch []*CaseRow) error {
	for _, cr := range batch {
		if cr.FolderID == nil {
			continue
		}
		if _, ok := r.orders[*cr.FolderID]; ok {
			continue
		}
		max, err := r.store.MaxOrderInFolder(ctx, *cr.FolderID)
		if err != nil {
			return fmt.Errorf("prefetch folder order: %w", err)
		}
		r.orders[*cr.FolderID] = max
	}
	return nil
}

func lookupFailure(what string, err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return what + " not found"
	}
	return fmt.Sprintf("load %s: %v", what, err)
}
