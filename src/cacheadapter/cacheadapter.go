// Package cacheadapter abstracts the key-value cache the orchestrator
// consults for positive/negative results and circuit-breaker state. Every
// operation swallows its own failure: an unreachable cache degrades the
// pipeline to "no cache" rather than ever surfacing an error to the
// request path.
package cacheadapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/priceradar/pricesearch-engine/src/logging"
	"github.com/priceradar/pricesearch-engine/src/metrics"
	"github.com/priceradar/pricesearch-engine/src/models"
)

const (
	positiveKeyPrefix = "pos:"
	negativeKeyPrefix = "neg:"
	breakerKeyPrefix  = "cb:"
)

// Adapter layers a process-local go-cache instance (L1) in front of a
// shared redis client (L2), plus the breaker counters redis also holds.
// L1 exists only so a same-process repeat request can satisfy the
// sub-500ms cache-hit testable property even under redis round-trip
// latency; it is best-effort and never the system of record.
type Adapter struct {
	redis *redis.Client
	l1    *cache.Cache
	log   *logging.Logger
	m     *metrics.Registry
}

// New constructs an Adapter. redisClient may be nil (e.g. unit tests or a
// degraded deployment); every operation then falls through to L1-only or
// a clean miss.
func New(redisClient *redis.Client, log *logging.Logger, m *metrics.Registry) *Adapter {
	return &Adapter{
		redis: redisClient,
		l1:    cache.New(models.NegativeTTL, 2*time.Minute),
		log:   log,
		m:     m,
	}
}

// GetPositive returns the cached SearchResult for key, or ok=false on a
// miss (including any cache failure, which is treated identically to a
// miss).
func (a *Adapter) GetPositive(ctx context.Context, key string) (models.SearchResult, bool) {
	l1key := positiveKeyPrefix + key
	if v, found := a.l1.Get(l1key); found {
		if res, ok := v.(models.SearchResult); ok {
			return res, true
		}
	}

	if a.redis == nil {
		return models.SearchResult{}, false
	}
	raw, err := a.redis.Get(ctx, positiveKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			a.log.WithError(err).Debug("cache: get_positive failed, treating as miss")
		}
		return models.SearchResult{}, false
	}
	var res models.SearchResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		a.log.WithError(err).Warn("cache: positive entry failed to deserialize")
		return models.SearchResult{}, false
	}
	a.l1.Set(l1key, res, cache.DefaultExpiration)
	return res, true
}

// SetPositive write-through caches a successful SearchResult with the
// standard 6h positive TTL. Failure is logged but never returned; the
// caller already has its answer.
func (a *Adapter) SetPositive(ctx context.Context, key string, res models.SearchResult) {
	a.l1.Set(positiveKeyPrefix+key, res, models.PositiveTTL)
	if a.redis == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		a.log.WithError(err).Warn("cache: failed to marshal positive entry")
		return
	}
	if err := a.redis.Set(ctx, positiveKeyPrefix+key, data, models.PositiveTTL).Err(); err != nil {
		a.log.WithError(err).Debug("cache: set_positive failed, continuing without cache")
	}
}

// GetNegative returns the recorded failure reason for key, or ok=false.
func (a *Adapter) GetNegative(ctx context.Context, key string) (string, bool) {
	l1key := negativeKeyPrefix + key
	if v, found := a.l1.Get(l1key); found {
		if reason, ok := v.(string); ok {
			return reason, true
		}
	}
	if a.redis == nil {
		return "", false
	}
	reason, err := a.redis.Get(ctx, negativeKeyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	a.l1.Set(l1key, reason, models.NegativeTTL)
	return reason, true
}

// SetNegative records a short-lived miss marker with a 60s TTL.
func (a *Adapter) SetNegative(ctx context.Context, key, reason string) {
	a.l1.Set(negativeKeyPrefix+key, reason, models.NegativeTTL)
	if a.redis == nil {
		return
	}
	if err := a.redis.Set(ctx, negativeKeyPrefix+key, reason, models.NegativeTTL).Err(); err != nil {
		a.log.WithError(err).Debug("cache: set_negative failed, continuing without cache")
	}
}

// BreakerOpen reports whether the circuit breaker for origin is currently
// tripped.
func (a *Adapter) BreakerOpen(ctx context.Context, origin string) bool {
	state, ok := a.breakerState(ctx, origin)
	if !ok {
		return false
	}
	return state.Open(time.Now().UnixMilli())
}

// BreakerTrip increments origin's consecutive-failure counter and, once
// it reaches threshold, opens the breaker for duration.
func (a *Adapter) BreakerTrip(ctx context.Context, origin string, threshold int, duration time.Duration) {
	state, _ := a.breakerState(ctx, origin)
	state.ConsecutiveFailures++
	if state.ConsecutiveFailures >= threshold {
		state.OpenUntilEpochMs = time.Now().Add(duration).UnixMilli()
		state.ConsecutiveFailures = 0
		if a.m != nil {
			a.m.BreakerTrips.WithLabelValues(origin).Inc()
		}
	}
	a.saveBreakerState(ctx, origin, state)
}

// BreakerReset clears origin's failure counter and any open window, on a
// successful FastPath call.
func (a *Adapter) BreakerReset(ctx context.Context, origin string) {
	a.saveBreakerState(ctx, origin, models.CircuitBreakerState{})
}

func (a *Adapter) breakerKey(origin string) string {
	return breakerKeyPrefix + origin
}

func (a *Adapter) breakerState(ctx context.Context, origin string) (models.CircuitBreakerState, bool) {
	key := a.breakerKey(origin)
	if v, found := a.l1.Get(key); found {
		if state, ok := v.(models.CircuitBreakerState); ok {
			return state, true
		}
	}
	if a.redis == nil {
		return models.CircuitBreakerState{}, false
	}
	raw, err := a.redis.Get(ctx, key).Result()
	if err != nil {
		return models.CircuitBreakerState{}, false
	}
	var state models.CircuitBreakerState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return models.CircuitBreakerState{}, false
	}
	return state, true
}

func (a *Adapter) saveBreakerState(ctx context.Context, origin string, state models.CircuitBreakerState) {
	key := a.breakerKey(origin)
	a.l1.Set(key, state, cache.NoExpiration)
	if a.redis == nil {
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := a.redis.Set(ctx, key, data, 0).Err(); err != nil {
		a.log.WithError(err).Debug("cache: failed to persist breaker state")
	}
}

// Ping checks redis connectivity for the health endpoint. It returns a
// plain status string rather than an error since the caller never fails
// the request on a degraded cache.
func (a *Adapter) Ping(ctx context.Context) string {
	if a.redis == nil {
		return "disabled"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return "disconnected"
	}
	return "connected"
}

// Key derives the sha256-based cache key for a normalized primary query —
// a thin re-export of models.CacheKey for callers that only import
// cacheadapter.
func Key(normalizedPrimary string) string {
	return models.CacheKey(normalizedPrimary)
}
