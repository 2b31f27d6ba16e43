package cache

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Middleware wraps an http.Handler with the conditional-response protocol.
//
// GET requests are checked against the provider first: a hit is answered
// with 304 Not Modified and the stored validation headers, never invoking
// the wrapped handler. On a miss the handler runs against an in-memory
// recorder; a 200 response is registered with the provider and served with
// the validation headers attached, any other status passes through
// untouched. Non-GET requests bypass the cache entirely.
//
// Provider failures fail open: the captured response is served uncached
// and the event is logged at warn level.
//
// Usage:
//
//	provider, err := cache.NewLRUProvider(1024, 64)
//	if err != nil {
//		log.Fatal().Err(err).Msg("Failed to create cache provider")
//	}
//	defer provider.Close()
//
//	handler := cache.Middleware(provider)(mux)
func Middleware(p Provider) func(http.Handler) http.Handler {
	logger := log.With().Str("component", "etag-cache").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			res, err := p.Get(r.Context(), r)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Cache lookup failed, serving uncached")
				next.ServeHTTP(w, r)
				return
			}

			if res.Hit {
				copyHeader(w.Header(), res.Headers)
				w.WriteHeader(http.StatusNotModified)
				NotModifiedResponses.Inc()
				return
			}

			rec := newResponseRecorder()
			next.ServeHTTP(rec, res.Request)

			// Only successful full responses earn a validator.
			if rec.status != http.StatusOK {
				if err := serveRecorded(w, rec); err != nil {
					logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to write response")
				}
				return
			}

			resp := &http.Response{
				StatusCode:    rec.status,
				Header:        rec.header,
				Body:          io.NopCloser(bytes.NewReader(rec.body.Bytes())),
				ContentLength: int64(rec.body.Len()),
			}

			decorated, err := p.Put(r.Context(), res.Key, resp)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Cache store failed, serving uncached")
				if err := serveRecorded(w, rec); err != nil {
					logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to write response")
				}
				return
			}

			copyHeader(w.Header(), decorated.Header)
			w.WriteHeader(decorated.StatusCode)
			if _, err := io.Copy(w, decorated.Body); err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to write response body")
			}
			decorated.Body.Close()
		})
	}
}

// responseRecorder is a minimal http.ResponseWriter that captures status,
// headers, and body so the response can be registered with the provider
// before anything reaches the client.
type responseRecorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		header: make(http.Header),
		status: http.StatusOK,
	}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

// serveRecorded replays a captured response onto the real writer.
func serveRecorded(w http.ResponseWriter, rec *responseRecorder) error {
	copyHeader(w.Header(), rec.header)
	w.WriteHeader(rec.status)
	_, err := w.Write(rec.body.Bytes())
	return err
}

func copyHeader(dst, src http.Header) {
	for name, values := range src {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}
