// Package resilience groups the fault tolerance helpers used around the
// Notion API.
//
// The circuitbreaker subpackage wraps github.com/sony/gobreaker so that a
// failing upstream is rejected quickly instead of holding every page render
// until its HTTP timeout. Calls are not retried: a failed render degrades to
// an error page and the next request tries again.
//
// Usage Example:
//
//	cfg := circuitbreaker.NotionAPIConfig()
//	cfg.IsSuccessful = func(err error) bool { return err == nil }
//	cb := circuitbreaker.New(cfg)
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return nil, callNotion()
//	})
//	if circuitbreaker.IsRejection(err) {
//	    // upstream considered unhealthy
//	}
package resilience
