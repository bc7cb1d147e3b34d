package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"knowledge-site/pkg/security/csp"
)

// CSPMiddlewareConfig holds configuration for CSP middleware.
type CSPMiddlewareConfig struct {
	// Enabled controls whether CSP headers are applied.
	// Default: true
	Enabled bool

	// DefaultPolicy is applied when no path-specific policy matches.
	DefaultPolicy *csp.CSPBuilder

	// PathPolicies maps path prefixes to specific policies.
	// The longest matching prefix wins.
	PathPolicies map[string]*csp.CSPBuilder

	// ReportOnly sends Content-Security-Policy-Report-Only instead of enforcing.
	ReportOnly bool
}

// compiledPolicy is a policy rendered once at construction.
type compiledPolicy struct {
	prefix string
	header string
	value  string
}

// CSPMiddleware applies Content-Security-Policy headers to HTTP responses.
type CSPMiddleware struct {
	enabled  bool
	def      *compiledPolicy
	prefixes []compiledPolicy
}

// NewCSPMiddleware creates a CSP middleware. Policies are built once here, so
// the builders may be discarded afterwards.
//
// Example:
//
//	cspMiddleware := NewCSPMiddleware(CSPMiddlewareConfig{
//	    Enabled:       true,
//	    DefaultPolicy: csp.SitePolicy(),
//	    PathPolicies: map[string]*csp.CSPBuilder{
//	        "/metrics": csp.StrictPolicy(),
//	    },
//	})
//	handler = cspMiddleware.Middleware()(handler)
func NewCSPMiddleware(config CSPMiddlewareConfig) *CSPMiddleware {
	m := &CSPMiddleware{enabled: config.Enabled}
	if config.DefaultPolicy != nil {
		m.def = compile("", config.DefaultPolicy, config.ReportOnly)
	}
	for prefix, policy := range config.PathPolicies {
		if policy == nil {
			continue
		}
		m.prefixes = append(m.prefixes, *compile(prefix, policy, config.ReportOnly))
	}
	return m
}

func compile(prefix string, policy *csp.CSPBuilder, reportOnly bool) *compiledPolicy {
	header := csp.HeaderEnforce
	if reportOnly {
		header = csp.HeaderReportOnly
	}
	return &compiledPolicy{prefix: prefix, header: header, value: policy.Build()}
}

// Middleware returns an HTTP middleware handler that applies CSP headers.
func (m *CSPMiddleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.enabled {
				next.ServeHTTP(w, r)
				return
			}

			if p := m.selectPolicy(r.URL.Path); p != nil && p.value != "" {
				w.Header().Set(p.header, p.value)
				slog.Debug("CSP header applied",
					slog.String("path", r.URL.Path),
					slog.String("header", p.header),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// selectPolicy returns the policy with the longest matching prefix, or the default.
func (m *CSPMiddleware) selectPolicy(path string) *compiledPolicy {
	var matched *compiledPolicy
	for i := range m.prefixes {
		p := &m.prefixes[i]
		if strings.HasPrefix(path, p.prefix) && (matched == nil || len(p.prefix) > len(matched.prefix)) {
			matched = p
		}
	}
	if matched != nil {
		return matched
	}
	return m.def
}
