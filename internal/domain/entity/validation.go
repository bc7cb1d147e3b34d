package entity

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// maxURLLength defines the maximum allowed length for a source link.
	maxURLLength = 2048

	// maxIDLength bounds article ids taken from the request path.
	// Notion ids are 32 hex digits, 36 with hyphens.
	maxIDLength = 64
)

// ValidateArticleID checks an id taken from the request path before it is
// sent upstream. Only ASCII letters, digits and hyphens are accepted.
func ValidateArticleID(id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if len(id) > maxIDLength {
		return &ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("id must not exceed %d characters", maxIDLength),
		}
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
		default:
			return &ValidationError{Field: "id", Message: fmt.Sprintf("id contains invalid character %q", r)}
		}
	}
	return nil
}

// SafeLinkURL returns raw when it is an absolute http(s) URL suitable for an
// href, or "" otherwise. Values such as "#", "undefined" or "javascript:..."
// are treated as no link at all.
func SafeLinkURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxURLLength {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	// HTTPまたはHTTPSスキームのみ許可
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return raw
}
