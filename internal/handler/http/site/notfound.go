package site

import (
	"log/slog"
	"net/http"
	"strconv"

	"knowledge-site/internal/observability/logging"
)

// NotFoundHandler serves the not-found page for every unmatched route.
type NotFoundHandler struct {
	Renderer *Renderer
}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := h.Renderer.NotFound()
	if err != nil {
		logging.FromContext(r.Context()).Error("render not found page failed",
			slog.Any("error", err))
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(body)
}
