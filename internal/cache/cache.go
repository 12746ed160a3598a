package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// DefaultTTL is how long a fetched value stays fresh
const DefaultTTL = time.Hour

// CacheKey generates a namespaced cache key from its parts, e.g.
// CacheKey("search", query, "10")
func CacheKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	ns := "item"
	if len(parts) > 1 {
		ns = parts[0]
	}
	return "foretell:v1:" + ns + ":" + hex.EncodeToString(hash[:])
}
