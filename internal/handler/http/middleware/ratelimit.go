package middleware

import (
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"knowledge-site/internal/observability/metrics"
)

// IPRateLimiterConfig holds configuration for the per-client rate limiter.
type IPRateLimiterConfig struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool

	// RequestsPerSecond is the sustained request rate allowed per client.
	RequestsPerSecond float64

	// Burst is the number of requests a client may make at once.
	Burst int

	// TrustedProxies are the proxies whose forwarding headers are believed.
	TrustedProxies []netip.Prefix

	// ExemptPaths are never limited (probes, metrics, static assets).
	// An entry ending in "/" exempts everything below it; any other entry
	// must match the request path exactly.
	ExemptPaths []string

	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration
}

// DefaultIPRateLimiterConfig returns the default configuration.
func DefaultIPRateLimiterConfig() IPRateLimiterConfig {
	return IPRateLimiterConfig{
		Enabled:           true,
		RequestsPerSecond: 10,
		Burst:             20,
		ExemptPaths:       []string{"/health", "/ready", "/live", "/metrics", "/static/"},
		IdleTTL:           10 * time.Minute,
	}
}

// IPRateLimiter limits requests per client IP with a token bucket.
// Buckets live in a go-cache and are dropped after IdleTTL without use.
type IPRateLimiter struct {
	config  IPRateLimiterConfig
	buckets *gocache.Cache
	mu      sync.Mutex
}

// NewIPRateLimiter creates a new limiter.
func NewIPRateLimiter(config IPRateLimiterConfig) *IPRateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &IPRateLimiter{
		config:  config,
		buckets: gocache.New(config.IdleTTL, config.IdleTTL),
	}
}

// Allow reports whether a request from ip may proceed.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.bucket(ip).Allow()
}

func (l *IPRateLimiter) bucket(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(ip); ok {
		// アクセスのたびに有効期限を延長
		l.buckets.SetDefault(ip, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)
	l.buckets.SetDefault(ip, lim)
	return lim
}

// Middleware returns the HTTP middleware. Limited requests get 429 with Retry-After.
func (l *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.config.Enabled || l.exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if !l.Allow(ClientIP(r, l.config.TrustedProxies)) {
				metrics.RecordRateLimited()
				w.Header().Set("Retry-After", "1")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *IPRateLimiter) exempt(path string) bool {
	for _, p := range l.config.ExemptPaths {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}
