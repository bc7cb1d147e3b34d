package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"knowledge-site/internal/revalidate"
	artUC "knowledge-site/internal/usecase/article"
)

// DetailPage renders one article, or the not-found page.
type DetailPage struct {
	Svc      artUC.Service
	Renderer *Renderer
}

// Render returns the render function for GET /{id}.
func (p DetailPage) Render(r *http.Request) revalidate.RenderFunc {
	id := r.PathValue("id")
	return func(ctx context.Context) (revalidate.Page, error) {
		article, err := p.Svc.Get(ctx, id)
		switch {
		case errors.Is(err, artUC.ErrArticleNotFound):
			return p.notFound(true)
		case errors.Is(err, artUC.ErrInvalidArticleID):
			// 不正なIDは上流に問い合わせていないのでキャッシュしない
			return p.notFound(false)
		case err != nil:
			return revalidate.Page{}, fmt.Errorf("get article %s: %w", id, err)
		}

		body, err := p.Renderer.Detail(article)
		if err != nil {
			return revalidate.Page{}, fmt.Errorf("render detail: %w", err)
		}
		return revalidate.Page{
			Status:      http.StatusOK,
			ContentType: contentTypeHTML,
			Body:        body,
			Cacheable:   true,
		}, nil
	}
}

func (p DetailPage) notFound(cacheable bool) (revalidate.Page, error) {
	body, err := p.Renderer.NotFound()
	if err != nil {
		return revalidate.Page{}, fmt.Errorf("render not found: %w", err)
	}
	return revalidate.Page{
		Status:      http.StatusNotFound,
		ContentType: contentTypeHTML,
		Body:        body,
		Cacheable:   cacheable,
	}, nil
}
