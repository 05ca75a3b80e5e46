package importer

// folders.go resolves folder path strings to folder ids, creating missing
// chain segments lazily. The cache is scoped to one run; concurrent runs on
// the same repository may still race on (parent, name) creation, which this
// core does not serialize.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caseport/caseport/internal/store"
	"github.com/google/uuid"
)

// ErrEmptyFolderPath is returned when a folder path resolves to no segments.
var ErrEmptyFolderPath = errors.New("folder path is empty")

type folderResolver struct {
	store        store.Store
	repositoryID string
	cache        map[string]string // normalized chain -> folder id
}

func newFolderResolver(st store.Store, repositoryID string) *folderResolver {
	return &folderResolver{
		store:        st,
		repositoryID: repositoryID,
		cache:        make(map[string]string),
	}
}

// Resolve walks the path segments left to right under baseID (nil means the
// repository root), looking up or creating each folder, and returns the leaf
// folder id.
func (r *folderResolver) Resolve(ctx context.Context, path string, mode SplitMode, baseID *string) (string, error) {
	segments := splitPath(path, mode)
	if len(segments) == 0 {
		return "", ErrEmptyFolderPath
	}

	parent := baseID
	chain := ""
	if baseID != nil {
		chain = *baseID
	}

	for _, segment := range segments {
		chain += "\x1f" + strings.ToLower(segment)
		if id, ok := r.cache[chain]; ok {
			parent = &id
			continue
		}

		id, err := r.resolveSegment(ctx, parent, segment)
		if err != nil {
			return "", err
		}
		r.cache[chain] = id
		parent = &id
	}

	return *parent, nil
}

func (r *folderResolver) resolveSegment(ctx context.Context, parent *string, name string) (string, error) {
	existing, err := r.store.FindFolder(ctx, r.repositoryID, parent, name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("find folder %q: %w", name, err)
	}

	folder := &store.Folder{
		ID:           uuid.New().String(),
		RepositoryID: r.repositoryID,
		ParentID:     parent,
		Name:         name,
		CreatedAt:    time.Now(),
	}
	if err := r.store.CreateFolder(ctx, folder); err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	return folder.ID, nil
}

// splitPath splits a path cell per the configured mode, trimming segments
// and dropping empty ones. SplitNone treats the whole string as one segment.
func splitPath(path string, mode SplitMode) []string {
	sep := mode.Separator()

	var parts []string
	if sep == "" {
		parts = []string{path}
	} else {
		parts = strings.Split(path, sep)
	}

	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
