// Command site serves the curated-knowledge website backed by a Notion database.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"knowledge-site/internal/config"
	hhttp "knowledge-site/internal/handler/http"
	"knowledge-site/internal/handler/http/middleware"
	"knowledge-site/internal/handler/http/requestid"
	"knowledge-site/internal/handler/http/site"
	notionRepo "knowledge-site/internal/infra/adapter/notion"
	"knowledge-site/internal/infra/notion"
	"knowledge-site/internal/observability/logging"
	"knowledge-site/internal/observability/tracing"
	"knowledge-site/internal/revalidate"
	artUC "knowledge-site/internal/usecase/article"
	"knowledge-site/pkg/security/csp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// ロガー設定前なので既定ロガーで出力
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := initLogger(cfg)
	shutdownTracing := tracing.Setup(cfg.Tracing.ServiceName, cfg.Version, cfg.Tracing.Enabled)

	components, err := setupServer(logger, cfg)
	if err != nil {
		logger.Error("failed to set up server", slog.Any("error", err))
		os.Exit(1)
	}

	runServer(logger, cfg, components)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("tracer provider shutdown failed", slog.Any("error", err))
	}
}

// initLogger builds the process logger and installs it as the slog default.
func initLogger(cfg *config.SiteConfig) *slog.Logger {
	logger := logging.New(os.Stdout, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	slog.SetDefault(logger)
	return logger
}

// ServerComponents holds what runServer needs.
type ServerComponents struct {
	Handler http.Handler
}

// setupServer wires the Notion client, the use case, the pages and the
// middleware chain.
func setupServer(logger *slog.Logger, cfg *config.SiteConfig) (*ServerComponents, error) {
	client := notion.NewClient(cfg.NotionClientConfig())

	repo, err := notionRepo.NewArticleRepo(client, notionRepo.Config{
		Token:        cfg.Notion.Token,
		DatabaseID:   cfg.Notion.DatabaseID,
		PageSize:     cfg.Notion.PageSize,
		SortProperty: cfg.Properties.Published,
	})
	if err != nil {
		return nil, err
	}

	svc := artUC.Service{
		Repo: repo,
		Projector: artUC.Projector{
			Location: cfg.Location,
			Names:    cfg.Properties,
		},
	}

	renderer, err := site.NewRenderer(cfg.Site)
	if err != nil {
		return nil, err
	}
	cache := revalidate.New(cfg.RevalidateWindow, revalidate.WithRenderTimeout(renderTimeout(cfg)))

	mux := http.NewServeMux()
	site.Register(mux, svc, renderer, cache)

	// 運用エンドポイント（キャッシュ・レート制限の対象外）
	mux.Handle("GET /health", &hhttp.HealthHandler{
		Notion:             client,
		Cache:              cache,
		Version:            cfg.Version,
		CSPEnabled:         cfg.CSP.Enabled,
		CSPReportOnly:      cfg.CSP.ReportOnly,
		RateLimiterEnabled: cfg.RateLimit.Enabled,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{Notion: client})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	rateLimiter, err := newRateLimiter(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("site configured",
		slog.String("title", cfg.Site.Title),
		slog.String("base_url", cfg.Site.BaseURL),
		slog.String("timezone", cfg.Location.String()),
		slog.Duration("revalidate_window", cfg.RevalidateWindow),
		slog.Float64("notion_rps", cfg.Notion.RequestsPerSecond),
		slog.Bool("csp_enabled", cfg.CSP.Enabled),
		slog.Bool("csp_report_only", cfg.CSP.ReportOnly),
		slog.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		slog.Bool("tracing_enabled", cfg.Tracing.Enabled),
	)
	if !cfg.CSP.Enabled {
		logger.Warn("CSP is disabled")
	}
	if !cfg.RateLimit.Enabled {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}

	return &ServerComponents{Handler: applyMiddleware(logger, cfg, mux, rateLimiter)}, nil
}

func newRateLimiter(cfg *config.SiteConfig) (*middleware.IPRateLimiter, error) {
	rlCfg := middleware.DefaultIPRateLimiterConfig()
	rlCfg.Enabled = cfg.RateLimit.Enabled
	rlCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	rlCfg.Burst = cfg.RateLimit.Burst

	for _, entry := range cfg.RateLimit.TrustedProxies {
		prefixes, err := middleware.ParseTrustedProxies(entry)
		if err != nil {
			return nil, err
		}
		rlCfg.TrustedProxies = append(rlCfg.TrustedProxies, prefixes...)
	}
	return middleware.NewIPRateLimiter(rlCfg), nil
}

// renderTimeout bounds one page regeneration. A list render makes two
// sequential Notion calls, each limited by the client timeout.
func renderTimeout(cfg *config.SiteConfig) time.Duration {
	return 2 * cfg.Notion.Timeout
}

// applyMiddleware wraps the mux. Outermost first:
//  1. Request ID (every later log line carries it)
//  2. Tracing (server span named after the route; its trace id reaches the logs)
//  3. Logging (access log, request-scoped logger)
//  4. Recovery (catch panics)
//  5. IP rate limiting (before any Notion call)
//  6. Body size limit
//  7. CSP
//  8. Metrics (directly around the mux so it sees the matched pattern)
func applyMiddleware(logger *slog.Logger, cfg *config.SiteConfig, mux http.Handler, rateLimiter *middleware.IPRateLimiter) http.Handler {
	cspMW := middleware.NewCSPMiddleware(middleware.CSPMiddlewareConfig{
		Enabled:       cfg.CSP.Enabled,
		DefaultPolicy: csp.SitePolicy(),
		PathPolicies: map[string]*csp.CSPBuilder{
			"/metrics": csp.StrictPolicy(),
			"/health":  csp.StrictPolicy(),
		},
		ReportOnly: cfg.CSP.ReportOnly,
	})

	return hhttp.Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		rateLimiter.Middleware(),
		hhttp.LimitRequestBody(cfg.MaxBodyBytes),
		cspMW.Middleware(),
		hhttp.MetricsMiddleware,
	)
}

// runServer starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully.
func runServer(logger *slog.Logger, cfg *config.SiteConfig, components *ServerComponents) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Slowloris 対策
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      renderTimeout(cfg) + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}
