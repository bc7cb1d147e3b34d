// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Revalidation metrics track how often rendered pages are served from the
// revalidation window versus regenerated.
var (
	// RevalidationTotal counts page cache lookups by route and result
	// (result: hit, miss, shared)
	RevalidationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_revalidation_total",
			Help: "Page cache lookups by route and result",
		},
		[]string{"route", "result"},
	)

	// RenderDuration measures time spent regenerating a page
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "site_render_duration_seconds",
			Help:    "Time taken to regenerate a page, including upstream calls",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route"},
	)
)

// Business metrics track what the list and detail pages showed
var (
	// ArticlesListed is the number of cards on the last rendered list page
	ArticlesListed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "site_articles_listed",
			Help: "Number of article cards on the most recently rendered list page",
		},
	)

	// ArticlesHiddenTotal counts entries dropped from the list because they have no URL
	ArticlesHiddenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "site_articles_hidden_total",
			Help: "Total number of entries hidden from the list for lacking a source URL",
		},
	)

	// ListDegradedTotal counts list renders that fell back to the empty state
	ListDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "site_list_degraded_total",
			Help: "Total number of list renders that fell back to the empty state after a fetch error",
		},
	)

	// RateLimitedTotal counts requests rejected by the per-client rate limiter
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "site_rate_limited_total",
			Help: "Total number of requests rejected by the per-client rate limiter",
		},
	)

	// DetailNotFoundTotal counts detail renders that ended in a not-found page
	DetailNotFoundTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "site_detail_not_found_total",
			Help: "Total number of detail renders that returned the not-found page",
		},
	)
)

// Circuit breaker metrics track the health of upstream dependencies
var (
	// CircuitBreakerState is the current breaker state per dependency
	// (0 = closed, 1 = half-open, 2 = open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitionsTotal counts state changes by destination state
	CircuitBreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state changes",
		},
		[]string{"name", "to"},
	)
)
