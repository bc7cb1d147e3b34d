package article

import (
	"fmt"
	"strings"
	"time"

	"knowledge-site/internal/domain/entity"
	"knowledge-site/internal/infra/notion"
)

// PropertyNames maps display fields to Notion property names.
type PropertyNames struct {
	Title     string `yaml:"title"`
	URL       string `yaml:"url"`
	Summary   string `yaml:"summary"`
	Published string `yaml:"published"`
}

// DefaultPropertyNames returns the property names of the curated database.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		Title:     "Title",
		URL:       "URL",
		Summary:   "Summary",
		Published: "Published",
	}
}

// DefaultLocation is the fixed zone publish dates are displayed in (JST).
var DefaultLocation = time.FixedZone("Asia/Tokyo", 9*60*60)

// Projector turns raw Notion pages into display records.
// The zero value uses DefaultPropertyNames and DefaultLocation.
type Projector struct {
	Location *time.Location
	Names    PropertyNames
}

// Project maps one page to an Article. It is pure and total: every missing
// or malformed value is replaced by its placeholder.
func (p Projector) Project(page notion.Page) entity.Article {
	names := p.names()

	a := entity.Article{
		ID:    page.ID,
		Title: entity.UntitledPlaceholder,
		Date:  entity.UnknownDateLabel,
	}

	if prop, ok := page.Properties.Lookup(names.Title); ok {
		if title := prop.FirstPlainText(); strings.TrimSpace(title) != "" {
			a.Title = title
		}
	}
	if prop, ok := page.Properties.Lookup(names.URL); ok {
		a.URL = entity.SafeLinkURL(prop.URLValue())
	}
	if prop, ok := page.Properties.Lookup(names.Summary); ok {
		a.Summary = prop.PlainText()
	}
	if prop, ok := page.Properties.Lookup(names.Published); ok {
		if t, ok := parseDate(prop.DateStart(), p.location()); ok {
			a.PublishedAt = t
			a.Date = FormatDate(t)
		}
	}
	return a
}

// FormatDate renders t in the site's date style, e.g. 2024年1月2日.
// The caller is responsible for converting t to the display location.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

// parseDate accepts a calendar date ("2024-01-02"), interpreted in loc, or an
// RFC 3339 datetime, converted to loc.
func parseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

func (p Projector) location() *time.Location {
	if p.Location == nil {
		return DefaultLocation
	}
	return p.Location
}

func (p Projector) names() PropertyNames {
	def := DefaultPropertyNames()
	n := p.Names
	if n.Title == "" {
		n.Title = def.Title
	}
	if n.URL == "" {
		n.URL = def.URL
	}
	if n.Summary == "" {
		n.Summary = def.Summary
	}
	if n.Published == "" {
		n.Published = def.Published
	}
	return n
}
