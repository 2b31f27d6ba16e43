package cache

import (
	"net/http"
	"time"
)

// CacheControlValue is the fixed Cache-Control policy attached to every
// response the cache decorates or certifies: content may be reused for
// seven days and served stale for one more day while revalidating.
const CacheControlValue = "max-age=604800,stale-while-revalidate=86400"

// entry is the stored state for one cache key. The cache keeps no response
// bodies: only the validator token and the time the token last changed.
type entry struct {
	// token is the quoted validator value computed by ETagFor.
	token string

	// lastChanged is when token was last set, served as Last-Modified.
	lastChanged time.Time
}

// setValidationHeaders writes the cache's response header contract: the
// quoted validator token as ETag, the fixed Cache-Control policy, the
// entry's last-changed time as an HTTP date, and the key deriver's Vary
// contribution. Both the conditional-hit path and the put path go
// through here.
func setValidationHeaders(h http.Header, token string, lastChanged time.Time) {
	h.Set("ETag", token)
	h.Set("Cache-Control", CacheControlValue)
	h.Set("Last-Modified", lastChanged.UTC().Format(http.TimeFormat))
	setVaryHeader(h)
}
