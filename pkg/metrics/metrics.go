// Package metrics anchors the Prometheus registry for the cache and
// serves it over HTTP. The metrics themselves are defined next to the
// code that drives them (pkg/cache) via promauto; this package provides
// the scrape handler and the reference documentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer the cache metrics attach to.
// Everything registers via promauto against the default registerer.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - etag_cache_hits_total (Counter): Conditional lookups answered by a validator match
//   - etag_cache_misses_total{reason} (Counter): Misses by reason (no_entry, no_match)
//   - etag_cache_entries (Gauge): Entries currently in the table
//   - etag_cache_evictions_total (Counter): Entries displaced by the LRU policy
//   - etag_cache_puts_total{outcome} (Counter): Puts by outcome (created, updated, unchanged)
//   - etag_cache_errors_total{operation} (Counter): Operation failures (put)
//   - etag_cache_not_modified_total (Counter): 304 responses served by the middleware
//
// Example Prometheus Queries:
//
//   # Validator Hit Rate
//   sum(rate(etag_cache_hits_total[5m])) /
//   (sum(rate(etag_cache_hits_total[5m])) + sum(rate(etag_cache_misses_total[5m])))
//
//   # Table Saturation (against the configured capacity)
//   etag_cache_entries
//
//   # Churn: share of puts displacing other entries
//   rate(etag_cache_evictions_total[5m]) / rate(etag_cache_puts_total[5m])
//
//   # Bandwidth Savings Proxy
//   rate(etag_cache_not_modified_total[5m])
