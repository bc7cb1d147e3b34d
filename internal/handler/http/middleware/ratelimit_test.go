package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func doRequest(h http.Handler, path, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func TestIPRateLimiter_LimitsPerClient(t *testing.T) {
	cfg := DefaultIPRateLimiterConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 2
	h := NewIPRateLimiter(cfg).Middleware()(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "/", "203.0.113.5:1").Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "/a", "203.0.113.5:2").Code)

	rr := doRequest(h, "/b", "203.0.113.5:3")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	// 別クライアントは影響を受けない
	assert.Equal(t, http.StatusOK, doRequest(h, "/", "198.51.100.9:1").Code)
}

func TestIPRateLimiter_ExemptPaths(t *testing.T) {
	cfg := DefaultIPRateLimiterConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	h := NewIPRateLimiter(cfg).Middleware()(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "/", "203.0.113.5:1").Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/health", "203.0.113.5:1").Code)
		assert.Equal(t, http.StatusOK, doRequest(h, "/static/style.css", "203.0.113.5:1").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "/", "203.0.113.5:1").Code)
}

func TestIPRateLimiter_ExemptionNeedsExactPath(t *testing.T) {
	cfg := DefaultIPRateLimiterConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	l := NewIPRateLimiter(cfg)
	h := l.Middleware()(okHandler())

	// 記事 id としてルーティングされるパスは制限対象
	paths := []string{"/healthabcdef0123", "/liveabc", "/readyz", "/metricsabc", "/static"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			remote := "192.0.2.10:1"
			l.buckets.Flush()

			assert.Equal(t, http.StatusOK, doRequest(h, path, remote).Code)
			assert.Equal(t, http.StatusTooManyRequests, doRequest(h, path, remote).Code)
		})
	}

	assert.True(t, l.exempt("/metrics"))
	assert.True(t, l.exempt("/static/style.css"))
	assert.False(t, l.exempt("/health/extra"))
}

func TestIPRateLimiter_Disabled(t *testing.T) {
	cfg := DefaultIPRateLimiterConfig()
	cfg.Enabled = false
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	h := NewIPRateLimiter(cfg).Middleware()(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/", "203.0.113.5:1").Code)
	}
}

func TestNewIPRateLimiter_Defaults(t *testing.T) {
	l := NewIPRateLimiter(IPRateLimiterConfig{Enabled: true, RequestsPerSecond: 1})

	assert.Equal(t, 1, l.config.Burst)
	assert.True(t, l.Allow("203.0.113.5"))
}
