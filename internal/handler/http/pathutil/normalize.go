// Package pathutil maps request paths onto a bounded set of metric labels.
package pathutil

import (
	"regexp"
	"strings"
)

// Unmatched is the label for paths that match no known route.
const Unmatched = "other"

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// 固定パス（そのままラベルとして使う）
var staticPaths = map[string]bool{
	"/":         true,
	"/feed.xml": true,
	"/health":   true,
	"/ready":    true,
	"/live":     true,
	"/metrics":  true,
}

// pathPatterns are evaluated in order.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/static/.+$`), Template: "/static/*"},
	// Notion page ids, dashed or compact
	{Pattern: regexp.MustCompile(`^/[A-Za-z0-9-]{1,64}$`), Template: "/{id}"},
}

// NormalizePath normalizes a request path for use as a metric label.
// Detail pages collapse to "/{id}", static assets to "/static/*", and
// anything else unknown to Unmatched, so scanners cannot grow the label set.
//
// Examples:
//
//	NormalizePath("/")                                      // "/"
//	NormalizePath("/1c2f9a7e-0b1d-4c55-9a0e-2f1a3b4c5d6e")  // "/{id}"
//	NormalizePath("/static/style.css")                      // "/static/*"
//	NormalizePath("/feed.xml?x=1")                          // "/feed.xml"
//	NormalizePath("/wp-admin/install.php")                  // "other"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if path == "" {
		path = "/"
	}

	if staticPaths[path] {
		return path
	}
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return Unmatched
}

// Label returns the metric label for a request: the ServeMux pattern when
// routing has recorded one, otherwise the normalized path.
func Label(pattern, path string) string {
	if pattern != "" {
		// "GET /{id}" -> "/{id}"
		if _, rest, ok := strings.Cut(pattern, " "); ok {
			return rest
		}
		return pattern
	}
	return NormalizePath(path)
}
