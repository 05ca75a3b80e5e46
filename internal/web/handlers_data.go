package web

// handlers_data.go implements the read-side endpoints used by import
// clients to discover templates and folder destinations.

import (
	"net/http"

	"github.com/caseport/caseport/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListTemplates returns the templates available in a project.
// GET /api/projects/{projectID}/templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	templates, err := s.store.ListTemplatesByProject(r.Context(), projectID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if templates == nil {
		templates = []*store.Template{}
	}
	writeJSON(w, templates)
}

// handleListFolders returns the live folder tree of a project's
// repository. Soft-deleted folders are excluded.
// GET /api/projects/{projectID}/folders
func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	repo, err := s.store.GetRepositoryByProject(r.Context(), projectID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	folders, err := s.store.ListFoldersByRepository(r.Context(), repo.ID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	live := make([]*store.Folder, 0, len(folders))
	for _, f := range folders {
		if !f.Deleted {
			live = append(live, f)
		}
	}
	writeJSON(w, live)
}
