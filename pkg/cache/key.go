package cache

import (
	"net/http"
	"sort"
	"strings"
)

// varyHeaders are the request headers that participate in key derivation.
// Responses served or decorated by the cache advertise them in a Vary
// header so downstream caches partition their entries the same way.
var varyHeaders = []string{"Accept", "Accept-Encoding", "Accept-Language"}

// varyHeaderValue is the precomputed Vary value listing varyHeaders.
var varyHeaderValue = strings.Join(varyHeaders, ", ")

// Key identifies a cacheable response variant. Two requests map to the
// same Key exactly when a stored validator for one is valid for the other.
// All fields are plain strings so Key is comparable and usable as a map key.
type Key struct {
	// Method is the HTTP request method (e.g. "GET").
	Method string

	// Path is the unmodified URL path (e.g. "/v1/items/42").
	Path string

	// Query is the query string re-encoded with parameters sorted by name,
	// so equivalent requests with reordered parameters share a key.
	Query string

	// Variant captures the values of the varied request headers (see
	// varyHeaders), one "name=v1,v2" group per header joined by newlines.
	Variant string
}

// DeriveKey computes the cache key for a request. It is a pure function:
// the same method, path, query parameters, and varied header values always
// produce the same Key, regardless of parameter or value order.
func DeriveKey(req *http.Request) Key {
	groups := make([]string, 0, len(varyHeaders))
	for _, name := range varyHeaders {
		values := req.Header.Values(name)
		if len(values) > 1 {
			values = append([]string(nil), values...)
			sort.Strings(values)
		}
		groups = append(groups, strings.ToLower(name)+"="+strings.Join(values, ","))
	}

	return Key{
		Method:  req.Method,
		Path:    req.URL.Path,
		Query:   req.URL.Query().Encode(),
		Variant: strings.Join(groups, "\n"),
	}
}

// String renders a stable, loggable form of the key.
// Format: method:path:query (query omitted when empty).
//
// Example:
//
//	GET:/v1/items:page=2
func (k Key) String() string {
	parts := []string{k.Method, k.Path}
	if k.Query != "" {
		parts = append(parts, k.Query)
	}
	return strings.Join(parts, ":")
}

// setVaryHeader contributes the key deriver's response-variance header.
// It is applied by the same header-construction path that sets the
// validator headers, on both conditional hits and fresh puts.
func setVaryHeader(h http.Header) {
	h.Set("Vary", varyHeaderValue)
}
