package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyIsStableAndContentAddressed(t *testing.T) {
	assert.Equal(t, CacheKey("galaxy buds pro"), CacheKey("galaxy buds pro"))
	assert.NotEqual(t, CacheKey("galaxy buds pro"), CacheKey("iphone 15"))
}

func TestCircuitBreakerStateOpen(t *testing.T) {
	s := CircuitBreakerState{OpenUntilEpochMs: 1000, ConsecutiveFailures: 0}
	assert.True(t, s.Open(500))
	assert.False(t, s.Open(1500))
}
