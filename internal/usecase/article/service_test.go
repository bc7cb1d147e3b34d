package article_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-site/internal/domain/entity"
	"knowledge-site/internal/infra/notion"
	artUC "knowledge-site/internal/usecase/article"
)

/* ───────── スタブ実装 ───────── */

// 最小限のインメモリ EntryRepository
type stubRepo struct {
	entries []notion.Page
	pages   map[string]notion.Page
	err     error // 強制的にエラーを返したいとき用

	getCalls int
}

func (s *stubRepo) ListEntries(_ context.Context) ([]notion.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func (s *stubRepo) GetEntry(_ context.Context, id string) (*notion.Page, bool) {
	s.getCalls++
	p, ok := s.pages[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

/* ───────── テストケース ───────── */

func TestService_List(t *testing.T) {
	repo := &stubRepo{entries: []notion.Page{
		page("a", notion.Properties{
			"Title":     titleProp("A"),
			"URL":       urlProp("https://x.test/a"),
			"Summary":   textProp("S"),
			"Published": dateProp("2024-01-02"),
		}),
		page("b", notion.Properties{
			"Title": titleProp("B"),
			"URL":   urlProp("https://x.test/b"),
		}),
	}}
	svc := &artUC.Service{Repo: repo}

	got := svc.List(context.Background())

	assert.False(t, got.Degraded)
	assert.Zero(t, got.Hidden)
	gotIDs := make([]string, 0, len(got.Articles))
	for _, a := range got.Articles {
		gotIDs = append(gotIDs, a.ID)
	}
	if diff := cmp.Diff([]string{"a", "b"}, gotIDs); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "2024年1月2日", got.Articles[0].Date)
	assert.Equal(t, "Unknown Date", got.Articles[1].Date)
}

func TestService_List_HidesEntriesWithoutURL(t *testing.T) {
	repo := &stubRepo{entries: []notion.Page{
		page("no-url", notion.Properties{"Title": titleProp("B")}),
		page("bad-url", notion.Properties{"Title": titleProp("C"), "URL": urlProp("#")}),
		page("ok", notion.Properties{"Title": titleProp("D"), "URL": urlProp("https://x.test/d")}),
	}}
	svc := &artUC.Service{Repo: repo}

	got := svc.List(context.Background())

	require.Len(t, got.Articles, 1)
	assert.Equal(t, "ok", got.Articles[0].ID)
	assert.Equal(t, 2, got.Hidden)
	assert.False(t, got.Degraded)
}

func TestService_List_DegradesOnError(t *testing.T) {
	svc := &artUC.Service{Repo: &stubRepo{err: errors.New("notion down")}}

	got := svc.List(context.Background())

	assert.True(t, got.Degraded)
	assert.NotNil(t, got.Articles)
	assert.Empty(t, got.Articles)
}

func TestService_List_Empty(t *testing.T) {
	svc := &artUC.Service{Repo: &stubRepo{entries: []notion.Page{}}}

	got := svc.List(context.Background())

	assert.False(t, got.Degraded)
	assert.NotNil(t, got.Articles)
	assert.Empty(t, got.Articles)
}

func TestService_Get(t *testing.T) {
	repo := &stubRepo{pages: map[string]notion.Page{
		"1c2f": page("1c2f", notion.Properties{
			"Title":     titleProp("A"),
			"Published": dateProp("2024-01-02"),
		}),
	}}
	svc := &artUC.Service{Repo: repo}

	got, err := svc.Get(context.Background(), "1c2f")

	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "2024年1月2日", got.Date)
	// 詳細ページは URL がなくても表示する
	assert.False(t, got.HasURL())
}

func TestService_Get_Errors(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		wantErr   error
		wantCalls int
	}{
		{name: "absent entry", id: "missing", wantErr: artUC.ErrArticleNotFound, wantCalls: 1},
		{name: "empty id", id: "", wantErr: artUC.ErrInvalidArticleID, wantCalls: 0},
		{name: "malformed id", id: "bad.id", wantErr: artUC.ErrInvalidArticleID, wantCalls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{pages: map[string]notion.Page{}}
			svc := &artUC.Service{Repo: repo}

			got, err := svc.Get(context.Background(), tt.id)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domainErr(tt.wantErr))
			assert.Equal(t, entity.Article{}, got)
			assert.Equal(t, tt.wantCalls, repo.getCalls)
		})
	}
}

// domainErr maps a use case sentinel to the domain sentinel it wraps.
func domainErr(err error) error {
	if err == artUC.ErrArticleNotFound {
		return entity.ErrNotFound
	}
	return entity.ErrInvalidInput
}
