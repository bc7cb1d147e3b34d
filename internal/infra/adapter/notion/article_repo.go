// Package notion adapts the Notion API client to repository.EntryRepository.
package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	notionapi "knowledge-site/internal/infra/notion"
	"knowledge-site/internal/observability/logging"
	"knowledge-site/internal/repository"
)

// Configuration errors returned by NewArticleRepo.
var (
	ErrMissingToken      = errors.New("notion: integration token is not configured (NOTION_TOKEN)")
	ErrMissingDatabaseID = errors.New("notion: database id is not configured (NOTION_DATABASE_ID)")
)

// ErrDataSourceNotFound is returned by ListEntries when the configured
// database exposes no data source to query.
var ErrDataSourceNotFound = errors.New("notion: database has no data source")

const (
	// DefaultPageSize is the number of entries requested per list.
	// 100 is the maximum Notion accepts for a single query.
	DefaultPageSize = 100

	// DefaultSortProperty is the date property entries are ordered by.
	DefaultSortProperty = "Published"
)

// API is the subset of the Notion client used by the repository.
type API interface {
	RetrieveDatabase(ctx context.Context, databaseID string) (*notionapi.Database, error)
	QueryDataSource(ctx context.Context, dataSourceID string, req notionapi.QueryRequest) (*notionapi.QueryResponse, error)
	RetrievePage(ctx context.Context, pageID string) (*notionapi.Page, error)
}

// Config holds the repository settings.
type Config struct {
	// Token is the integration secret the API client was built with.
	// It is checked here so that a deployment without credentials fails at startup.
	Token string

	// DatabaseID identifies the container database
	DatabaseID string

	// PageSize is the query page size (default DefaultPageSize, max 100)
	PageSize int

	// SortProperty is the date property used for descending order
	SortProperty string
}

// ArticleRepo implements repository.EntryRepository on top of the Notion API.
type ArticleRepo struct {
	api    API
	config Config
}

var _ repository.EntryRepository = (*ArticleRepo)(nil)

// NewArticleRepo creates the repository. It is meant to be called once at startup.
func NewArticleRepo(api API, cfg Config) (*ArticleRepo, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.DatabaseID == "" {
		return nil, ErrMissingDatabaseID
	}
	if api == nil {
		return nil, errors.New("notion: api client is nil")
	}
	if cfg.PageSize <= 0 || cfg.PageSize > DefaultPageSize {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.SortProperty == "" {
		cfg.SortProperty = DefaultSortProperty
	}
	return &ArticleRepo{api: api, config: cfg}, nil
}

// ListEntries resolves the database's first data source and queries it,
// newest first. Only the first result page is read.
func (repo *ArticleRepo) ListEntries(ctx context.Context) ([]notionapi.Page, error) {
	db, err := repo.api.RetrieveDatabase(ctx, repo.config.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	if len(db.DataSources) == 0 {
		return nil, fmt.Errorf("ListEntries: database %s: %w", repo.config.DatabaseID, ErrDataSourceNotFound)
	}

	resp, err := repo.api.QueryDataSource(ctx, db.DataSources[0].ID, notionapi.QueryRequest{
		Sorts: []notionapi.Sort{
			{Property: repo.config.SortProperty, Direction: notionapi.SortDescending},
		},
		PageSize: repo.config.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}

	if resp.HasMore {
		logging.FromContext(ctx).Warn("notion query truncated to first page",
			slog.Int("page_size", repo.config.PageSize))
	}

	entries := make([]notionapi.Page, 0, len(resp.Results))
	for _, page := range resp.Results {
		// 削除済みのページは一覧に出さない
		if page.Deleted() {
			continue
		}
		entries = append(entries, page)
	}
	return entries, nil
}

// GetEntry retrieves one page. Failures are logged and reported as absent.
func (repo *ArticleRepo) GetEntry(ctx context.Context, id string) (*notionapi.Page, bool) {
	logger := logging.FromContext(ctx)

	page, err := repo.api.RetrievePage(ctx, id)
	if err != nil {
		level := slog.LevelWarn
		if notionapi.IsNotFound(err) {
			level = slog.LevelInfo
		}
		logger.Log(ctx, level, "notion entry unavailable",
			slog.String("id", id),
			slog.Any("error", err))
		return nil, false
	}
	if page == nil || page.Deleted() {
		logger.Info("notion entry deleted", slog.String("id", id))
		return nil, false
	}
	return page, true
}
