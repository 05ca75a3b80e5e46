package importer

// relations.go reconciles tags, issues, linked test runs and attachments
// for a committed case. Update paths clear the existing relation set before
// recreating it. Every single-item failure is caught, debug-logged and
// dropped; relation failures never reach the run's error list.

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/caseport/caseport/internal/store"
	"github.com/google/uuid"
)

// attachmentInput is the structured shape expected inside an attachments
// cell: a JSON array of these.
type attachmentInput struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// syncRelations reconciles all relation sets for a committed case.
func (r *runState) syncRelations(ctx context.Context, caseID string, cr *CaseRow, updated bool) {
	r.syncTags(ctx, caseID, cr.Tags, updated)
	r.syncIssues(ctx, caseID, cr.Issues, updated)
	r.syncRuns(ctx, caseID, cr.Runs, updated)
	r.syncAttachments(ctx, caseID, cr.Attachments, updated)
}

// syncTags resolves tags by exact name, auto-creating missing ones.
func (r *runState) syncTags(ctx context.Context, caseID string, names []string, updated bool) {
	if updated {
		if err := r.store.ClearCaseTags(ctx, caseID); err != nil {
			r.log.Debug("clear tags failed", "case", caseID, "error", err)
			return
		}
	}
	for _, name := range names {
		tag, err := r.store.FindTagByName(ctx, r.project.ID, name)
		if errors.Is(err, store.ErrNotFound) {
			tag = &store.Tag{ID: uuid.New().String(), ProjectID: r.project.ID, Name: name}
			err = r.store.CreateTag(ctx, tag)
		}
		if err != nil {
			r.log.Debug("tag sync failed", "case", caseID, "tag", name, "error", err)
			continue
		}
		if err := r.store.AddCaseTag(ctx, caseID, tag.ID); err != nil {
			r.log.Debug("tag link failed", "case", caseID, "tag", name, "error", err)
		}
	}
}

// syncIssues links issues by name; unknown issues are skipped silently.
func (r *runState) syncIssues(ctx context.Context, caseID string, names []string, updated bool) {
	if updated {
		if err := r.store.ClearCaseIssues(ctx, caseID); err != nil {
			r.log.Debug("clear issues failed", "case", caseID, "error", err)
			return
		}
	}
	for _, name := range names {
		issue, err := r.store.FindIssueByName(ctx, r.project.ID, name)
		if err != nil {
			continue
		}
		if err := r.store.AddCaseIssue(ctx, caseID, issue.ID); err != nil {
			r.log.Debug("issue link failed", "case", caseID, "issue", name, "error", err)
		}
	}
}

// syncRuns links test runs by name; unknown runs are skipped silently.
func (r *runState) syncRuns(ctx context.Context, caseID string, names []string, updated bool) {
	if updated {
		if err := r.store.ClearCaseRunLinks(ctx, caseID); err != nil {
			r.log.Debug("clear run links failed", "case", caseID, "error", err)
			return
		}
	}
	for _, name := range names {
		run, err := r.store.FindRunByName(ctx, r.project.ID, name)
		if err != nil {
			continue
		}
		if err := r.store.AddCaseRunLink(ctx, caseID, run.ID); err != nil {
			r.log.Debug("run link failed", "case", caseID, "run", name, "error", err)
		}
	}
}

// syncAttachments replaces the attachment rows of a case. A malformed cell
// parses to an empty list and the import still succeeds.
func (r *runState) syncAttachments(ctx context.Context, caseID string, raw string, updated bool) {
	if updated {
		if err := r.store.DeleteAttachments(ctx, caseID); err != nil {
			r.log.Debug("clear attachments failed", "case", caseID, "error", err)
			return
		}
	}
	for _, in := range parseAttachments(raw) {
		if err := r.store.CreateAttachment(ctx, &store.Attachment{
			ID:       uuid.New().String(),
			CaseID:   caseID,
			FileName: in.FileName,
			URL:      in.URL,
			Size:     in.Size,
		}); err != nil {
			r.log.Debug("attachment create failed", "case", caseID, "file", in.FileName, "error", err)
		}
	}
}

// parseAttachments decodes an attachments cell. Anything that is not a JSON
// array of attachment objects yields an empty list.
func parseAttachments(raw string) []attachmentInput {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []attachmentInput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	var valid []attachmentInput
	for _, in := range out {
		if in.URL != "" {
			if in.FileName == "" {
				in.FileName = in.URL
			}
			valid = append(valid, in)
		}
	}
	return valid
}
