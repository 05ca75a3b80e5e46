// Package search declares the search-index synchronization hook the import
// pipeline calls after each committed case. Indexing is best-effort: callers
// log failures and never propagate them.
package search

import "context"

// Indexer pushes a case into the search index.
type Indexer interface {
	Sync(ctx context.Context, caseID string) error
}

// Noop is an Indexer that does nothing. Used when no index is configured
// and in tests.
type Noop struct{}

func (Noop) Sync(context.Context, string) error { return nil }
