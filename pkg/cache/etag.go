package cache

import (
	"encoding/base64"

	"lukechampine.com/blake3"
)

// ETagFor computes the validator token for a response body: the standard
// base64 encoding (with padding) of the BLAKE3-256 digest of the bytes,
// wrapped in double quotes. The quotes are part of the token; conditional
// matching compares the full quoted form.
func ETagFor(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + base64.StdEncoding.EncodeToString(sum[:]) + `"`
}
