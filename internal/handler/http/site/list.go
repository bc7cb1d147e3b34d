package site

import (
	"context"
	"fmt"
	"net/http"

	"knowledge-site/internal/revalidate"
	artUC "knowledge-site/internal/usecase/article"
)

const contentTypeHTML = "text/html; charset=utf-8"

// ListPage renders the article list.
type ListPage struct {
	Svc      artUC.Service
	Renderer *Renderer
}

// Render returns the render function for GET /.
// A degraded list (fetch failed) still renders the empty state with 200 but is
// not cached, so the next request retries the fetch.
func (p ListPage) Render(_ *http.Request) revalidate.RenderFunc {
	return func(ctx context.Context) (revalidate.Page, error) {
		result := p.Svc.List(ctx)

		body, err := p.Renderer.List(result.Articles)
		if err != nil {
			return revalidate.Page{}, fmt.Errorf("render list: %w", err)
		}
		return revalidate.Page{
			Status:      http.StatusOK,
			ContentType: contentTypeHTML,
			Body:        body,
			Cacheable:   !result.Degraded,
		}, nil
	}
}
