package repository

import (
	"context"

	"knowledge-site/internal/infra/notion"
)

// EntryRepository reads curated article entries from the external database.
// The site never writes entries; it only projects them for display.
type EntryRepository interface {
	// ListEntries returns every entry of the configured collection,
	// ordered by publish date, newest first.
	// Returns an empty slice (not nil) when the collection is empty.
	// Errors from the upstream service are returned wrapped; the caller decides
	// how to degrade.
	ListEntries(ctx context.Context) ([]notion.Page, error)

	// GetEntry returns a single entry by id.
	// It never fails: any upstream error, a malformed id, or a deleted entry
	// is reported as absent (nil, false).
	GetEntry(ctx context.Context, id string) (*notion.Page, bool)
}
