package metrics

import "time"

// Revalidation results.
const (
	ResultHit    = "hit"
	ResultMiss   = "miss"
	ResultShared = "shared"
)

// RecordRevalidation records one page cache lookup.
func RecordRevalidation(route, result string) {
	RevalidationTotal.WithLabelValues(route, result).Inc()
}

// RecordRender records the time taken to regenerate a page.
func RecordRender(route string, duration time.Duration) {
	RenderDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordListRendered records the outcome of a list render.
// shown is the number of cards, hidden the number of entries dropped for lacking a URL.
func RecordListRendered(shown, hidden int) {
	ArticlesListed.Set(float64(shown))
	if hidden > 0 {
		ArticlesHiddenTotal.Add(float64(hidden))
	}
}

// RecordListDegraded records a list render that fell back to the empty state.
func RecordListDegraded() {
	ListDegradedTotal.Inc()
}

// RecordDetailNotFound records a detail render that returned the not-found page.
func RecordDetailNotFound() {
	DetailNotFoundTotal.Inc()
}

// RecordRateLimited records a request rejected by the per-client rate limiter.
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

// RecordBreakerState records a circuit breaker state change.
// state is "closed", "half-open" or "open"; anything else is recorded as closed.
func RecordBreakerState(name, state string) {
	value := 0.0
	switch state {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(value)
	CircuitBreakerTransitionsTotal.WithLabelValues(name, state).Inc()
}
