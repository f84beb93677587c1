// Package cache stores raw source responses between requests and runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is implemented by every cache layer
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a namespaced cache key from a request URL
func Key(requestURL string) string {
	sum := sha256.Sum256([]byte(requestURL))
	return "openalexbot:v1:" + hex.EncodeToString(sum[:])
}
