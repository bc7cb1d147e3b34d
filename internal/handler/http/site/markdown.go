package site

import (
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// summaryPolicy is safe for concurrent use once built.
var summaryPolicy = bluemonday.UGCPolicy().RequireNoFollowOnLinks(true).AddTargetBlankToFullyQualifiedLinks(true)

// RenderSummary converts a Markdown summary to sanitized HTML.
// Summaries are written as bullet lists by the ingest pipeline; plain text
// renders as a single paragraph.
func RenderSummary(md string) template.HTML {
	if md == "" {
		return ""
	}
	unsafeHTML := markdown.ToHTML([]byte(md), newParser(), nil)
	return template.HTML(summaryPolicy.SanitizeBytes(unsafeHTML)) //nolint:gosec // sanitized by bluemonday
}

// newParser returns a fresh parser; gomarkdown parsers are not reusable.
func newParser() *parser.Parser {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.Tables

	return parser.NewWithExtensions(extensions)
}
