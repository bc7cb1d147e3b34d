package site

import "net/http"

// StaticHandler serves the embedded stylesheet under /static/.
func StaticHandler() http.Handler {
	files := http.StripPrefix("/static/", http.FileServerFS(staticFiles()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}
