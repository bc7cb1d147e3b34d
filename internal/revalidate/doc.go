// Package revalidate serves rendered pages from a fixed time window.
//
// A page rendered less than one window ago is served as-is. The first request
// after the window regenerates it; concurrent requests for the same key share
// that regeneration. Only renders marked cacheable are stored, so a degraded
// page is retried on the next request.
//
// Storage is an in-process go-cache; nothing survives a restart and there is
// no manual invalidation.
package revalidate
