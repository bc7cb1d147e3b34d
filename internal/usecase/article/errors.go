// Package article provides the read-only use cases behind the site's pages:
// listing curated entries as display records and fetching a single one.
package article

import (
	"fmt"

	"knowledge-site/internal/domain/entity"
)

// Sentinel errors for article use case operations.
var (
	// ErrArticleNotFound indicates that the requested article does not exist,
	// was deleted, or could not be fetched.
	// It wraps entity.ErrNotFound.
	ErrArticleNotFound = fmt.Errorf("article %w", entity.ErrNotFound)

	// ErrInvalidArticleID indicates that the id taken from the request path
	// cannot be a Notion page id.
	// It wraps entity.ErrInvalidInput.
	ErrInvalidArticleID = fmt.Errorf("article ID: %w", entity.ErrInvalidInput)
)
