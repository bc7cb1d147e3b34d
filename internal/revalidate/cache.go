package revalidate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"knowledge-site/internal/observability/logging"
	"knowledge-site/internal/observability/metrics"
)

const (
	// DefaultWindow is the regeneration interval used when none is configured.
	DefaultWindow = 60 * time.Second

	// DefaultRenderTimeout bounds a single regeneration.
	DefaultRenderTimeout = 10 * time.Second
)

// Page is one rendered response.
type Page struct {
	Status      int
	ContentType string
	Body        []byte

	// Cacheable marks renders that may be served for the rest of the window.
	Cacheable bool

	// GeneratedAt is set by the cache when the page is rendered.
	GeneratedAt time.Time
}

// RenderFunc produces a page. An error means nothing could be rendered at all;
// degraded but presentable pages are returned with Cacheable=false instead.
type RenderFunc func(ctx context.Context) (Page, error)

// Cache holds rendered pages keyed by request path.
type Cache struct {
	window        time.Duration
	renderTimeout time.Duration
	store         *gocache.Cache
	group         singleflight.Group
	now           func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithRenderTimeout bounds how long one regeneration may run, including time
// spent queued behind the upstream rate limiter. d <= 0 keeps the default.
func WithRenderTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.renderTimeout = d
		}
	}
}

// New creates a cache with the given window. A window <= 0 disables caching:
// every request renders.
func New(window time.Duration, opts ...Option) *Cache {
	c := &Cache{
		window:        window,
		renderTimeout: DefaultRenderTimeout,
		now:           time.Now,
	}
	if window > 0 {
		c.store = gocache.New(window, 2*window)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the regeneration interval.
func (c *Cache) Window() time.Duration {
	return c.window
}

// Len returns the number of stored pages, including ones past the window
// that have not been evicted yet.
func (c *Cache) Len() int {
	if c.store == nil {
		return 0
	}
	return c.store.ItemCount()
}

// Get returns the cached page for key if it is younger than the window, and
// otherwise renders it. The render runs detached from ctx's cancellation so
// that a client hanging up does not abort a regeneration other requests wait on,
// but it is bounded by the render timeout. The caller stops waiting when ctx
// is done.
func (c *Cache) Get(ctx context.Context, key string, render RenderFunc) (Page, string, error) {
	if p, ok := c.lookup(key); ok {
		return p, metrics.ResultHit, nil
	}

	ch := c.group.DoChan(key, func() (_ interface{}, err error) {
		renderCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.renderTimeout)
		defer cancel()

		// DoChan は別 goroutine で実行されるため、ここで panic を止める
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("render panicked: %v", rec)
			}
		}()

		p, err := render(renderCtx)
		if err != nil {
			return Page{}, err
		}
		p.GeneratedAt = c.now()
		if p.Cacheable && c.store != nil {
			c.store.Set(key, p, gocache.DefaultExpiration)
		}
		return p, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		select {
		case res = <-ch:
		default:
			return Page{}, metrics.ResultMiss, fmt.Errorf("render %s: %w", key, ctx.Err())
		}
	}
	if res.Err != nil {
		return Page{}, metrics.ResultMiss, fmt.Errorf("render %s: %w", key, res.Err)
	}

	result := metrics.ResultMiss
	if res.Shared {
		result = metrics.ResultShared
	}
	return res.Val.(Page), result, nil
}

func (c *Cache) lookup(key string) (Page, bool) {
	if c.store == nil {
		return Page{}, false
	}
	v, ok := c.store.Get(key)
	if !ok {
		return Page{}, false
	}
	p := v.(Page)
	if c.now().Sub(p.GeneratedAt) >= c.window {
		return Page{}, false
	}
	return p, true
}

// Handler serves render through the cache, keyed by the request path.
// route labels the metrics (normally the ServeMux pattern).
func (c *Cache) Handler(route string, render func(r *http.Request) RenderFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		p, result, err := c.Get(r.Context(), r.URL.Path, render(r))
		metrics.RecordRevalidation(route, result)
		if result != metrics.ResultHit {
			metrics.RecordRender(route, time.Since(start))
		}
		if err != nil {
			logging.FromContext(r.Context()).Error("page render failed",
				slog.String("path", r.URL.Path),
				slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		c.Write(w, p, result)
	})
}

// Write sends p with its cache headers.
func (c *Cache) Write(w http.ResponseWriter, p Page, result string) {
	h := w.Header()
	if p.ContentType != "" {
		h.Set("Content-Type", p.ContentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(p.Body)))
	h.Set("Cache-Control", c.cacheControl(p))
	if result == metrics.ResultHit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}

	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(p.Body)
}

func (c *Cache) cacheControl(p Page) string {
	if !p.Cacheable || c.window <= 0 {
		return "no-store"
	}
	return fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate", int(c.window/time.Second))
}
