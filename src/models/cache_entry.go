package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache TTLs for positive and negative entries.
const (
	PositiveTTL = 6 * time.Hour
	NegativeTTL = 60 * time.Second
)

// CacheKey derives the positive/negative cache key for a normalized
// primary query. The raw query string is never used as a key.
func CacheKey(normalizedPrimary string) string {
	sum := sha256.Sum256([]byte(normalizedPrimary))
	return hex.EncodeToString(sum[:])
}

// CircuitBreakerState is the per-origin counter pair held in the cache.
// While OpenUntilEpochMs is in the future, the FastPath is skipped for
// that origin.
type CircuitBreakerState struct {
	OpenUntilEpochMs    int64 `json:"open_until_epoch_ms"`
	ConsecutiveFailures int   `json:"consecutive_failures"`
}

// Open reports whether the breaker is currently tripped, given the
// current epoch time in milliseconds.
func (c CircuitBreakerState) Open(nowEpochMs int64) bool {
	return c.OpenUntilEpochMs > nowEpochMs
}
