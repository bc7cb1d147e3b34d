package site

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"knowledge-site/internal/domain/entity"
	"knowledge-site/internal/revalidate"
	artUC "knowledge-site/internal/usecase/article"
)

const contentTypeRSS = "application/rss+xml; charset=utf-8"

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description,omitempty"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate,omitempty"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// FeedPage renders the list as an RSS 2.0 feed.
type FeedPage struct {
	Svc      artUC.Service
	Renderer *Renderer
}

// Render returns the render function for GET /feed.xml.
func (p FeedPage) Render(r *http.Request) revalidate.RenderFunc {
	origin := p.origin(r)
	return func(ctx context.Context) (revalidate.Page, error) {
		result := p.Svc.List(ctx)

		body, err := BuildFeed(p.Renderer.Site(), origin, result.Articles)
		if err != nil {
			return revalidate.Page{}, fmt.Errorf("render feed: %w", err)
		}
		return revalidate.Page{
			Status:      http.StatusOK,
			ContentType: contentTypeRSS,
			Body:        body,
			Cacheable:   !result.Degraded,
		}, nil
	}
}

// origin is the configured base URL, or the one the request came in on.
func (p FeedPage) origin(r *http.Request) string {
	if base := p.Renderer.Site().BaseURL; base != "" {
		return strings.TrimRight(base, "/")
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// BuildFeed encodes articles as an RSS 2.0 document.
// Each item links to the original source; its guid is the detail page.
// Articles without a source link are skipped.
func BuildFeed(info Info, origin string, articles []entity.Article) ([]byte, error) {
	ch := rssChannel{
		Title:       info.Title,
		Link:        origin + "/",
		Description: info.Description,
		Language:    "ja",
		Items:       make([]rssItem, 0, len(articles)),
	}

	var latest time.Time
	for _, a := range articles {
		if !a.HasURL() {
			continue
		}
		item := rssItem{
			Title:       a.Title,
			Link:        a.URL,
			Description: a.Summary,
			GUID:        rssGUID{Value: origin + "/" + a.ID, IsPermaLink: true},
		}
		if !a.PublishedAt.IsZero() {
			item.PubDate = a.PublishedAt.Format(time.RFC1123Z)
			if a.PublishedAt.After(latest) {
				latest = a.PublishedAt
			}
		}
		ch.Items = append(ch.Items, item)
	}
	if !latest.IsZero() {
		ch.LastBuildDate = latest.Format(time.RFC1123Z)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(rssDocument{Version: "2.0", Channel: ch}); err != nil {
		return nil, fmt.Errorf("encode rss: %w", err)
	}
	return buf.Bytes(), nil
}
