package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from a namespace and payload text. The payload
// is hashed so arbitrarily long chunk content stays a valid filename on the
// disk layer.
func Key(namespace, payload string) string {
	hash := sha256.Sum256([]byte(payload))
	return "scholarbrief:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
