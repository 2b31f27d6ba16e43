// Package cache provides a validator-only HTTP response cache.
//
// The cache stores ETag validators, never response bodies. Each entry
// records the token for the most recent body seen under a request key plus
// the time that token last changed. A request presenting the current token
// in If-None-Match can be answered with 304 Not Modified without
// regenerating or retransmitting the body; everything else is a miss and
// the origin produces the response as usual.
//
// Features:
//
// - Bounded memory: fixed-capacity LRU table allocated up front
// - Single-writer actor: all table access serialized through one goroutine
// - Deterministic keys from method, path, query, and varied headers
// - BLAKE3-based tokens, stable across processes for identical bodies
// - Idempotent puts: unchanged content never moves Last-Modified
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create the provider: 1024 entries, 64 queued operations
//	provider, err := cache.NewLRUProvider(1024, 64)
//	if err != nil {
//		return err
//	}
//	defer provider.Close()
//
//	// Wrap any http.Handler
//	handler := cache.Middleware(provider)(mux)
//
// # Direct Provider Usage
//
//	// Conditional lookup
//	res, err := provider.Get(ctx, req)
//	if err != nil {
//		return err
//	}
//	if res.Hit {
//		// Client copy is current: answer 304 with res.Headers
//	}
//
//	// Register a fresh response under the miss key
//	resp, err = provider.Put(ctx, res.Key, resp)
//
// # Metrics
//
// The provider and middleware export Prometheus metrics:
//
//   - etag_cache_hits_total - Validator matches
//   - etag_cache_misses_total{reason} - Misses (no_entry, no_match)
//   - etag_cache_entries - Current table size
//   - etag_cache_evictions_total - LRU evictions
//   - etag_cache_puts_total{outcome} - Puts (created, updated, unchanged)
//   - etag_cache_errors_total{operation} - Operation errors
//   - etag_cache_not_modified_total - 304s served by the middleware
//
// # Semantics
//
// A hit requires an If-None-Match value exactly equal to the stored token,
// quotes included. Weak validators, wildcard matching, and comma-separated
// validator lists are not interpreted; a value that is not byte-for-byte
// the current token is treated as absent. An entry whose token matches no
// offered value is still a miss, so clients without the current token
// always receive a full response.
package cache
