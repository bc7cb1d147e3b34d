// Package metrics provides the site's business metrics.
//
// HTTP request metrics live with the HTTP middleware and Notion API call
// metrics live with the Notion client; this package covers what the pages
// themselves did: revalidation hits and misses, render latency, how many
// cards were shown or hidden, and how often a page degraded.
//
// All metrics are registered with the Prometheus default registry and exposed
// via the /metrics endpoint.
package metrics
