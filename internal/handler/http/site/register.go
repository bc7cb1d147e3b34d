package site

import (
	"net/http"

	"knowledge-site/internal/revalidate"
	artUC "knowledge-site/internal/usecase/article"
)

// Route patterns. They double as span names and metric labels.
const (
	RouteList   = "GET /{$}"
	RouteDetail = "GET /{id}"
	RouteFeed   = "GET /feed.xml"
	RouteStatic = "GET /static/"
)

// Register registers the public pages with the given mux.
// List, detail and feed go through the revalidation cache; every unmatched
// path renders the not-found page.
func Register(mux *http.ServeMux, svc artUC.Service, renderer *Renderer, cache *revalidate.Cache) {
	mux.Handle(RouteList, cache.Handler(RouteList, ListPage{Svc: svc, Renderer: renderer}.Render))
	mux.Handle(RouteDetail, cache.Handler(RouteDetail, DetailPage{Svc: svc, Renderer: renderer}.Render))
	mux.Handle(RouteFeed, cache.Handler(RouteFeed, FeedPage{Svc: svc, Renderer: renderer}.Render))
	mux.Handle(RouteStatic, StaticHandler())
	mux.Handle("/", NotFoundHandler{Renderer: renderer})
}
