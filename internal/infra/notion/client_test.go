package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-site/internal/resilience/circuitbreaker"
)

/* ───────── テスト用ヘルパー ───────── */

type recordedCall struct {
	operation string
	outcome   string
}

type stubMetrics struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (s *stubMetrics) RecordRequest(operation, outcome string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, recordedCall{operation: operation, outcome: outcome})
}

func (s *stubMetrics) outcomes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.outcome)
	}
	return out
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *stubMetrics) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig("secret_test_token")
	cfg.BaseURL = server.URL
	cfg.RequestsPerSecond = 0 // unlimited

	m := &stubMetrics{}
	opts = append([]Option{WithMetrics(m)}, opts...)
	return NewClient(cfg, opts...), m
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

/* ───────── テストケース ───────── */

func TestClient_RetrieveDatabase(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/databases/db-123", r.URL.Path)
		assert.Equal(t, "Bearer secret_test_token", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultVersion, r.Header.Get("Notion-Version"))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"object": "database",
			"id":     "db-123",
			"data_sources": []map[string]string{
				{"id": "ds-1", "name": "Articles"},
			},
		})
	})

	db, err := client.RetrieveDatabase(context.Background(), "db-123")
	require.NoError(t, err)
	require.Len(t, db.DataSources, 1)
	assert.Equal(t, "ds-1", db.DataSources[0].ID)
	assert.Equal(t, []string{"success"}, m.outcomes())
}

func TestClient_QueryDataSource_SendsSortsAndPageSize(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/data_sources/ds-1/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 50, body.PageSize)
		require.Len(t, body.Sorts, 1)
		assert.Equal(t, Sort{Property: "Published", Direction: SortDescending}, body.Sorts[0])

		writeJSON(t, w, http.StatusOK, map[string]any{
			"object": "list",
			"results": []map[string]any{
				{"object": "page", "id": "p1", "properties": map[string]any{}},
				{"object": "page", "id": "p2", "properties": map[string]any{}},
			},
			"has_more":    false,
			"next_cursor": nil,
		})
	})

	resp, err := client.QueryDataSource(context.Background(), "ds-1", QueryRequest{
		Sorts:    []Sort{{Property: "Published", Direction: SortDescending}},
		PageSize: 50,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "p1", resp.Results[0].ID)
	assert.Equal(t, "p2", resp.Results[1].ID)
	assert.Nil(t, resp.NextCursor)
}

func TestClient_RetrievePage_DecodesProperties(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pages/p1", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"object": "page",
			"id": "p1",
			"in_trash": false,
			"properties": {
				"Title": {"id": "title", "type": "title", "title": [{"plain_text": "Hello"}, {"plain_text": " World"}]},
				"URL": {"id": "u", "type": "url", "url": "https://x.test/a"},
				"Summary": {"id": "s", "type": "rich_text", "rich_text": [{"plain_text": "Body"}]},
				"Published": {"id": "d", "type": "date", "date": {"start": "2024-01-02"}}
			}
		}`)
	})

	page, err := client.RetrievePage(context.Background(), "p1")
	require.NoError(t, err)

	title, ok := page.Properties.Lookup("Title")
	require.True(t, ok)
	assert.Equal(t, "Hello", title.FirstPlainText())
	assert.Equal(t, "Hello World", title.PlainText())

	link, _ := page.Properties.Lookup("URL")
	assert.Equal(t, "https://x.test/a", link.URLValue())

	published, _ := page.Properties.Lookup("Published")
	assert.Equal(t, "2024-01-02", published.DateStart())
	assert.False(t, page.Deleted())
}

func TestClient_APIError(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{
			"object":  "error",
			"status":  404,
			"code":    "object_not_found",
			"message": "Could not find page with ID: missing.",
		})
	})

	_, err := client.RetrievePage(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "object_not_found", apiErr.Code)
	assert.False(t, apiErr.Temporary())
	assert.Equal(t, []string{"client_error"}, m.outcomes())
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream went away")
	})

	_, err := client.RetrieveDatabase(context.Background(), "db")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream went away", apiErr.Message)
	assert.True(t, apiErr.Temporary())
	assert.False(t, IsNotFound(err))
	assert.Equal(t, []string{"server_error"}, m.outcomes())
}

func TestClient_DecodeFailure(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	})

	_, err := client.RetrievePage(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
	assert.Equal(t, []string{"network_error"}, m.outcomes())
}

func TestClient_EscapesIDs(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pages/a%2Fb", r.URL.RawPath)
		writeJSON(t, w, http.StatusOK, map[string]any{"object": "page", "id": "a/b"})
	})

	_, err := client.RetrievePage(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestClient_CircuitBreakerIgnoresClientErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"status": 404, "code": "object_not_found", "message": "nope"})
	})

	// 404 を何度返しても回路は開かない
	for i := 0; i < 10; i++ {
		_, err := client.RetrievePage(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, "closed", client.BreakerState())
}

func TestClient_CircuitBreakerOpensOnServerErrors(t *testing.T) {
	var hits int
	var mu sync.Mutex
	cb := circuitbreaker.New(circuitbreaker.Config{
		Name:             "notion-test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
		IsSuccessful:     countsAsSuccess,
	})
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithCircuitBreaker(cb))

	for i := 0; i < 2; i++ {
		_, err := client.RetrieveDatabase(context.Background(), "db")
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.BreakerState())

	_, err := client.RetrieveDatabase(context.Background(), "db")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))

	mu.Lock()
	assert.Equal(t, 2, hits, "rejected call must not reach the API")
	mu.Unlock()
	assert.Equal(t, []string{"server_error", "server_error", "circuit_open"}, m.outcomes())
}

func TestClient_ContextCanceledBeforeCall(t *testing.T) {
	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.RetrievePage(ctx, "p1")
	require.Error(t, err)
	assert.Empty(t, m.outcomes())
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{Token: "t", BaseURL: "https://example.test/v1/"})

	assert.Equal(t, "https://example.test/v1", c.config.BaseURL)
	assert.Equal(t, DefaultVersion, c.config.Version)
	assert.Equal(t, "closed", c.BreakerState())
	assert.NotNil(t, c.metrics)
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with code",
			err:  &APIError{Status: 400, Code: "validation_error", Message: "bad"},
			want: "notion api error: status 400 (validation_error): bad",
		},
		{
			name: "without code",
			err:  &APIError{Status: 502, Message: "Bad Gateway"},
			want: "notion api error: status 502: Bad Gateway",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCountsAsSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: true},
		{name: "not found", err: &APIError{Status: 404}, want: true},
		{name: "bad request", err: &APIError{Status: 400}, want: true},
		{name: "rate limited", err: &APIError{Status: 429}, want: false},
		{name: "server error", err: &APIError{Status: 500}, want: false},
		{name: "network", err: errors.New("connection refused"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countsAsSuccess(tt.err))
		})
	}
}
