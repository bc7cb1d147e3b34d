// Package http holds the process-level HTTP pieces of the site: middleware,
// request metrics and the health, readiness and liveness probes.
// The public pages live in the site subpackage.
package http

import (
	"net/http"
	"time"

	"knowledge-site/internal/handler/http/respond"
)

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse represents the JSON response for the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// BreakerStater exposes a circuit breaker state ("closed", "half-open", "open").
// *notion.Client implements it.
type BreakerStater interface {
	BreakerState() string
}

// PageCounter reports how many rendered pages are cached.
// *revalidate.Cache implements it.
type PageCounter interface {
	Len() int
	Window() time.Duration
}

// HealthHandler reports the state of the Notion dependency and the page cache.
//
// The site keeps serving while Notion is down (cached pages, then the empty
// list), so an open breaker makes the report "degraded" with status 200.
type HealthHandler struct {
	Notion  BreakerStater
	Cache   PageCounter
	Version string

	// CSP and rate limiter status (informational)
	CSPEnabled         bool
	CSPReportOnly      bool
	RateLimiterEnabled bool

	// Now is used for the timestamp; nil means time.Now.
	Now func() time.Time
}

// ServeHTTP writes the health report.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]CheckStatus)
	status := StatusHealthy

	// Notion API チェック
	if h.Notion != nil {
		check := notionCheck(h.Notion.BreakerState())
		checks["notion"] = check
		if check.Status != StatusHealthy {
			status = StatusDegraded
		}
	} else {
		checks["notion"] = CheckStatus{Status: StatusUnhealthy, Message: "not configured"}
		status = StatusUnhealthy
	}

	if h.Cache != nil {
		checks["cache"] = CheckStatus{
			Status: StatusHealthy,
			Details: map[string]interface{}{
				"pages":          h.Cache.Len(),
				"window_seconds": h.Cache.Window().Seconds(),
			},
		}
	}

	checks["csp"] = CheckStatus{
		Status:  StatusHealthy,
		Details: map[string]interface{}{"enabled": h.CSPEnabled, "report_only": h.CSPReportOnly},
	}
	checks["rate_limiter"] = CheckStatus{
		Status:  StatusHealthy,
		Details: map[string]interface{}{"enabled": h.RateLimiterEnabled},
	}

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func notionCheck(state string) CheckStatus {
	details := map[string]interface{}{"circuit_breaker": state}
	switch state {
	case "closed":
		return CheckStatus{Status: StatusHealthy, Details: details}
	case "half-open":
		return CheckStatus{Status: StatusDegraded, Message: "circuit breaker probing", Details: details}
	default:
		return CheckStatus{Status: StatusDegraded, Message: "circuit breaker open", Details: details}
	}
}

// ReadyHandler handles readiness probe requests.
// It reports not ready while the Notion circuit breaker is open.
type ReadyHandler struct {
	Notion BreakerStater
}

// ServeHTTP returns 200 "ready" or 503.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Notion == nil {
		respond.Text(w, http.StatusServiceUnavailable, "notion client not configured")
		return
	}
	if state := h.Notion.BreakerState(); state == "open" {
		respond.Text(w, http.StatusServiceUnavailable, "notion api unavailable: circuit breaker "+state)
		return
	}
	respond.Text(w, http.StatusOK, "ready")
}

// LiveHandler handles liveness probe requests.
type LiveHandler struct{}

// ServeHTTP always returns 200 "alive".
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.Text(w, http.StatusOK, "alive")
}
