package article

import (
	"context"
	"fmt"
	"log/slog"

	"knowledge-site/internal/domain/entity"
	"knowledge-site/internal/observability/logging"
	"knowledge-site/internal/observability/metrics"
	"knowledge-site/internal/repository"
)

// Service provides the article read use cases.
// It delegates fetching to the repository and projection to the Projector.
type Service struct {
	Repo      repository.EntryRepository
	Projector Projector
}

// ListResult is the outcome of a list render.
type ListResult struct {
	// Articles are the cards to show, newest first. Never nil.
	Articles []entity.Article

	// Degraded is true when fetching failed and the empty state is shown instead.
	Degraded bool

	// Hidden is the number of entries dropped for lacking a source link.
	Hidden int
}

// List returns the display records for the list page.
// Fetch errors are logged and degrade to an empty list; List itself never fails.
func (s *Service) List(ctx context.Context) ListResult {
	entries, err := s.Repo.ListEntries(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list articles failed, rendering empty list",
			slog.Any("error", err))
		metrics.RecordListDegraded()
		return ListResult{Articles: []entity.Article{}, Degraded: true}
	}

	result := ListResult{Articles: make([]entity.Article, 0, len(entries))}
	for _, entry := range entries {
		a := s.Projector.Project(entry)
		// リンク先のないカードは表示しない
		if !a.HasURL() {
			result.Hidden++
			continue
		}
		result.Articles = append(result.Articles, a)
	}

	if result.Hidden > 0 {
		logging.FromContext(ctx).Info("articles without source link hidden",
			slog.Int("hidden", result.Hidden))
	}
	metrics.RecordListRendered(len(result.Articles), result.Hidden)
	return result
}

// Get returns the display record for one article.
// Returns ErrInvalidArticleID for an id that cannot be a page id and
// ErrArticleNotFound when the entry is absent for any reason.
func (s *Service) Get(ctx context.Context, id string) (entity.Article, error) {
	if err := entity.ValidateArticleID(id); err != nil {
		metrics.RecordDetailNotFound()
		return entity.Article{}, fmt.Errorf("%w: %v", ErrInvalidArticleID, err)
	}

	page, ok := s.Repo.GetEntry(ctx, id)
	if !ok {
		metrics.RecordDetailNotFound()
		return entity.Article{}, fmt.Errorf("get article %s: %w", id, ErrArticleNotFound)
	}
	return s.Projector.Project(*page), nil
}
