// Package notion is a minimal client for the read endpoints of the Notion REST API
// used by the site: retrieve a database, query one of its data sources, and
// retrieve a single page.
//
// Every call goes through a token-bucket rate limiter (Notion allows an average
// of three requests per second per integration), a circuit breaker and an
// OpenTelemetry client span. Calls are attempted exactly once.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"knowledge-site/internal/observability/tracing"
	"knowledge-site/internal/resilience/circuitbreaker"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.notion.com/v1"

	// DefaultVersion is the API version that exposes data sources.
	DefaultVersion = "2025-09-03"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Config contains configuration for the Notion API client.
type Config struct {
	// Token is the integration secret sent as a Bearer token
	Token string

	// BaseURL is the API root, without trailing slash
	BaseURL string

	// Version is sent in the Notion-Version header
	Version string

	// Timeout is the HTTP request timeout for a single API call
	Timeout time.Duration

	// RequestsPerSecond is the sustained outbound request rate
	RequestsPerSecond float64

	// Burst is the number of requests allowed above the sustained rate
	Burst int
}

// DefaultConfig returns a configuration with the public endpoint and
// Notion's documented rate limit.
func DefaultConfig(token string) Config {
	return Config{
		Token:             token,
		BaseURL:           DefaultBaseURL,
		Version:           DefaultVersion,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 3,
		Burst:             3,
	}
}

// Client calls the Notion REST API.
// It is safe for concurrent use and is meant to be created once per process.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	metrics    MetricsRecorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics replaces the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCircuitBreaker replaces the circuit breaker.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// NewClient creates a new Client.
//
// The client is initialized with:
//   - HTTP client with the configured timeout
//   - Rate limiter at RequestsPerSecond with Burst
//   - Circuit breaker from circuitbreaker.NotionAPIConfig, counting only
//     rate-limit, server and network errors as failures
func NewClient(config Config, opts ...Option) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Version == "" {
		config.Version = DefaultVersion
	}
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	cbCfg := circuitbreaker.NotionAPIConfig()
	cbCfg.IsSuccessful = countsAsSuccess

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		breaker: circuitbreaker.New(cbCfg),
		metrics: NewPrometheusMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = noopMetrics{}
	}
	return c
}

// BreakerState returns the circuit breaker state ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// RetrieveDatabase fetches database metadata, including its data sources.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	if err := c.do(ctx, "retrieve_database", http.MethodGet, "/databases/"+url.PathEscape(databaseID), nil, &db); err != nil {
		return nil, fmt.Errorf("retrieve database: %w", err)
	}
	return &db, nil
}

// QueryDataSource runs a query against a data source and returns one page of results.
func (c *Client) QueryDataSource(ctx context.Context, dataSourceID string, req QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.do(ctx, "query_data_source", http.MethodPost, "/data_sources/"+url.PathEscape(dataSourceID)+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("query data source: %w", err)
	}
	return &resp, nil
}

// RetrievePage fetches a single page by id.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.do(ctx, "retrieve_page", http.MethodGet, "/pages/"+url.PathEscape(pageID), nil, &page); err != nil {
		return nil, fmt.Errorf("retrieve page: %w", err)
	}
	return &page, nil
}

// do performs one API call through the limiter, the span and the circuit breaker.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, span := tracing.GetTracer().Start(ctx, "notion."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("notion.operation", operation),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter wait")
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, method, path, body, out)
	})
	duration := time.Since(start)

	outcome := classify(err)
	c.metrics.RecordRequest(operation, outcome, duration)
	span.SetAttributes(attribute.String("notion.outcome", outcome))

	if err != nil {
		if circuitbreaker.IsRejection(err) {
			slog.Warn("notion api circuit breaker open, request rejected",
				slog.String("service", c.breaker.Name()),
				slog.String("operation", operation),
				slog.String("state", c.BreakerState()))
			err = ErrCircuitOpen
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return err
	}
	return nil
}

// send executes the HTTP request and decodes the response into out.
//
// Returns:
//   - nil: 2xx response decoded into out
//   - *APIError: non-2xx response (decoded from the JSON error body when possible)
//   - error: network or decoding failure
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Notion-Version", c.config.Version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError builds an APIError from a non-2xx response.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	// Status from the transport wins over the body.
	apiErr.Status = resp.StatusCode
	return apiErr
}

// classify maps a call result to a metrics outcome label.
func classify(err error) string {
	if err == nil {
		return "success"
	}
	if circuitbreaker.IsRejection(err) {
		return "circuit_open"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Temporary() {
			return "server_error"
		}
		return "client_error"
	}
	return "network_error"
}
