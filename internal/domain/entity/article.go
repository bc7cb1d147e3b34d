// Package entity defines the display records the site renders.
// Records are projected from Notion pages and never written back.
package entity

import "time"

// Placeholder texts used when an entry lacks a value.
const (
	UntitledPlaceholder = "No Title"
	UnknownDateLabel    = "Unknown Date"
)

// Article is the display record for one curated entry.
// Every field is always populated; missing source values are replaced by
// placeholders during projection.
type Article struct {
	ID      string
	Title   string
	URL     string // "" when the entry has no usable source link
	Summary string // "" when the entry has no summary
	Date    string // formatted publish date or UnknownDateLabel

	// PublishedAt is the parsed publish date, zero when unknown.
	PublishedAt time.Time
}

// HasURL reports whether the article links to its original source.
func (a Article) HasURL() bool {
	return a.URL != ""
}

// HasSummary reports whether the article has summary text to show.
func (a Article) HasSummary() bool {
	return a.Summary != ""
}
