package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"knowledge-site/internal/domain/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Placeholder texts shown when there is nothing to render.
const (
	EmptyListMessage    = "No articles yet."
	EmptySummaryMessage = "No content available for this article."
)

// Info describes the site itself.
type Info struct {
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Owner         string `yaml:"owner"`
	RepositoryURL string `yaml:"repository_url"`

	// BaseURL is the public origin used for absolute links in the feed,
	// e.g. https://knowledge.example.com
	BaseURL string `yaml:"base_url"`
}

// DefaultRepositoryURL is the header's GitHub link: the pipeline that fills
// the Notion database.
const DefaultRepositoryURL = "https://github.com/becky3/knowledge-ingest-pipeline"

// DefaultInfo returns the built-in site description.
func DefaultInfo() Info {
	return Info{
		Title:         "Curated Knowledge",
		Description:   "Curated articles with short summaries.",
		Owner:         "Rhythmcan",
		RepositoryURL: DefaultRepositoryURL,
	}
}

// pageData is the root value passed to every page template.
type pageData struct {
	Site  Info
	Year  int
	Title string

	Articles    []entity.Article
	Article     entity.Article
	SummaryHTML template.HTML
}

// Renderer executes the page templates.
type Renderer struct {
	site  Info
	now   func() time.Time
	pages map[string]*template.Template
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithNow replaces the clock used for the footer year.
func WithNow(now func() time.Time) RendererOption {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer parses the embedded templates.
func NewRenderer(info Info, opts ...RendererOption) (*Renderer, error) {
	base, err := template.New("site").Funcs(template.FuncMap{
		"emptyList":    func() string { return EmptyListMessage },
		"emptySummary": func() string { return EmptySummaryMessage },
	}).ParseFS(templateFS,
		"templates/layout.html",
		"templates/header.html",
		"templates/footer.html",
		"templates/card.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parse layout templates: %w", err)
	}

	r := &Renderer{
		site:  info,
		now:   time.Now,
		pages: make(map[string]*template.Template, 3),
	}
	for _, name := range []string{"list", "detail", "notfound"} {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = clone
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Site returns the site description the renderer was built with.
func (r *Renderer) Site() Info {
	return r.site
}

// List renders the list page. An empty slice renders the empty state.
func (r *Renderer) List(articles []entity.Article) ([]byte, error) {
	return r.execute("list", pageData{Articles: articles})
}

// Detail renders one article. The summary is rendered as sanitized Markdown.
func (r *Renderer) Detail(a entity.Article) ([]byte, error) {
	return r.execute("detail", pageData{
		Title:       a.Title,
		Article:     a,
		SummaryHTML: RenderSummary(a.Summary),
	})
}

// NotFound renders the not-found page.
func (r *Renderer) NotFound() ([]byte, error) {
	return r.execute("notfound", pageData{Title: "Not Found"})
}

func (r *Renderer) execute(name string, data pageData) ([]byte, error) {
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page template %q", name)
	}
	data.Site = r.site
	data.Year = r.now().Year()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("execute %s template: %w", name, err)
	}
	return buf.Bytes(), nil
}

// staticFiles returns the embedded static directory rooted at "static".
func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// fs.Sub only fails on an invalid path, which is a constant here.
		panic(err)
	}
	return sub
}
