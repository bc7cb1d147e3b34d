// Package site renders the public pages: the article list, the article detail
// page, the not-found page and the RSS feed.
//
// Pages are rendered from embedded html/template files and served through the
// revalidation cache, so a burst of visitors costs at most one round of Notion
// calls per window.
package site
