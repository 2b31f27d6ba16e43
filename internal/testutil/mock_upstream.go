// Package testutil provides testing utilities for the etag cache.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock upstream endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockUpstream is a configurable origin server for cache tests. It counts
// how often it is asked to produce responses, which is how tests observe
// whether the cache spared the origin a regeneration.
type MockUpstream struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	bodies   map[string]string

	// Tracking
	RequestCount      int
	ConditionalCount  int
	requestsByPath    map[string]int
	LastRequestHeader http.Header
}

// NewMockUpstream creates a new mock origin server.
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{
		handlers:       make(map[string]func(w http.ResponseWriter, r *http.Request)),
		bodies:         make(map[string]string),
		requestsByPath: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.requestsByPath[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()

		// Track requests arriving with validators attached
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, hasHandler := mock.handlers[r.URL.Path]
		body, hasBody := mock.bodies[r.URL.Path]
		mock.mu.RUnlock()

		if hasHandler {
			handler(w, r)
			return
		}
		if hasBody {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Write([]byte(body))
			return
		}

		mock.defaultHandler(w)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockUpstream) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.requestsByPath = make(map[string]int)
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockUpstream) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetBody configures a plain 200 JSON body for a path. Calling it again
// simulates the origin's content changing between requests.
func (m *MockUpstream) SetBody(path, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[path] = body
}

// SetResponse configures a canned response for a path.
func (m *MockUpstream) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests the origin served.
func (m *MockUpstream) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of requests carrying validators.
func (m *MockUpstream) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// CountFor returns how often the given path was requested.
func (m *MockUpstream) CountFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsByPath[path]
}

// defaultHandler answers unconfigured paths with a generic JSON payload.
// It sets no validator headers; issuing those is the cache's job.
func (m *MockUpstream) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

// NewJSONResponse creates a standard 200 OK response with a JSON body.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewErrorResponse creates an error response with the given status.
func NewErrorResponse(status int, message string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       `{"error": "` + message + `"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewSlowResponse creates a 200 OK response delayed by d.
func NewSlowResponse(data string, d time.Duration) MockResponse {
	resp := NewJSONResponse(data)
	resp.Delay = d
	return resp
}
