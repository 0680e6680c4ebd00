// Package checksum fingerprints stored documents for optimistic concurrency
// and cache keys.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes a checksum for use as an HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag strips the quotes and weak prefix from an If-Match value.
func FromETag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "W/")
	return strings.Trim(tag, `"`)
}
