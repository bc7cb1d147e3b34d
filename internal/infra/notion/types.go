package notion

import (
	"strings"
	"time"
)

// Sort directions accepted by the data source query endpoint.
const (
	SortAscending  = "ascending"
	SortDescending = "descending"
)

// Database is the container object returned by GET /v1/databases/{id}.
// Since API version 2025-09-03 a database no longer carries rows directly;
// its records live in one or more data sources listed in DataSources.
type Database struct {
	Object      string          `json:"object"`
	ID          string          `json:"id"`
	Title       []RichText      `json:"title"`
	URL         string          `json:"url"`
	DataSources []DataSourceRef `json:"data_sources"`
}

// DataSourceRef identifies one queryable data source of a database.
type DataSourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Sort is one entry of a query's sort specification.
type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

// QueryRequest is the body of POST /v1/data_sources/{id}/query.
type QueryRequest struct {
	Sorts       []Sort `json:"sorts,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
}

// QueryResponse is a single page of query results.
type QueryResponse struct {
	Object     string  `json:"object"`
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// Page is the raw record for one entry of a data source.
type Page struct {
	Object         string     `json:"object"`
	ID             string     `json:"id"`
	CreatedTime    time.Time  `json:"created_time"`
	LastEditedTime time.Time  `json:"last_edited_time"`
	Archived       bool       `json:"archived"`
	InTrash        bool       `json:"in_trash"`
	URL            string     `json:"url"`
	Properties     Properties `json:"properties"`
}

// Deleted reports whether the page has been archived or moved to the trash.
func (p Page) Deleted() bool {
	return p.Archived || p.InTrash
}

// Properties maps a property name to its value.
type Properties map[string]Property

// Lookup finds a property by name.
//
// The exact name is tried first, then its lowercase form, then a
// case-insensitive scan, so both "Summary" and "summary" resolve.
func (p Properties) Lookup(name string) (Property, bool) {
	if prop, ok := p[name]; ok {
		return prop, true
	}
	if prop, ok := p[strings.ToLower(name)]; ok {
		return prop, true
	}
	for key, prop := range p {
		if strings.EqualFold(key, name) {
			return prop, true
		}
	}
	return Property{}, false
}

// Property is a typed property value. Only the fields for the property
// types this site reads are decoded; the rest are ignored.
type Property struct {
	ID       string     `json:"id,omitempty"`
	Type     string     `json:"type,omitempty"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	URL      *string    `json:"url,omitempty"`
	Date     *DateValue `json:"date,omitempty"`
}

// runs returns the rich-text runs carried by a title or rich_text property.
func (p Property) runs() []RichText {
	switch p.Type {
	case "title":
		return p.Title
	case "rich_text":
		return p.RichText
	}
	if len(p.Title) > 0 {
		return p.Title
	}
	return p.RichText
}

// PlainText concatenates the plain text of every run.
func (p Property) PlainText() string {
	var b strings.Builder
	for _, r := range p.runs() {
		b.WriteString(r.PlainText)
	}
	return b.String()
}

// FirstPlainText returns the plain text of the first run, or "".
func (p Property) FirstPlainText() string {
	runs := p.runs()
	if len(runs) == 0 {
		return ""
	}
	return runs[0].PlainText
}

// URLValue returns the url property value, or "" when unset.
func (p Property) URLValue() string {
	if p.URL == nil {
		return ""
	}
	return strings.TrimSpace(*p.URL)
}

// DateStart returns the start of a date property, or "" when unset.
func (p Property) DateStart() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Start
}

// RichText is one run of formatted text.
type RichText struct {
	Type      string  `json:"type,omitempty"`
	PlainText string  `json:"plain_text"`
	Href      *string `json:"href,omitempty"`
}

// DateValue is the value of a date property. Start is either a date
// ("2024-01-02") or an ISO 8601 datetime.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end,omitempty"`
	TimeZone *string `json:"time_zone,omitempty"`
}
