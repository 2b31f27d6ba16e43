package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks conditional lookups certified by an exact token match.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etag_cache_hits_total",
			Help: "Total number of conditional lookups answered with a validator match",
		},
	)

	// CacheMisses tracks lookups the cache could not certify, by reason.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etag_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"reason"}, // "no_entry", "no_match"
	)

	// CacheEntries tracks the current number of stored validator entries.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "etag_cache_entries",
			Help: "Current number of validator entries in the cache table",
		},
	)

	// CacheEvictions tracks entries displaced by LRU eviction.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etag_cache_evictions_total",
			Help: "Total number of entries evicted to make room for new keys",
		},
	)

	// CachePuts tracks put operations by their effect on the stored entry.
	CachePuts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etag_cache_puts_total",
			Help: "Total number of put operations",
		},
		[]string{"outcome"}, // "created", "updated", "unchanged"
	)

	// CacheErrors tracks cache operation errors.
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etag_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "put"
	)

	// NotModifiedResponses tracks 304 responses served by the middleware.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etag_cache_not_modified_total",
			Help: "Total number of 304 Not Modified responses served from the cache",
		},
	)
)
