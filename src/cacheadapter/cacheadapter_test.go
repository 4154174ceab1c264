package cacheadapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/priceradar/pricesearch-engine/src/logging"
	"github.com/priceradar/pricesearch-engine/src/models"
)

func testAdapter() *Adapter {
	return New(nil, logging.New(logging.Config{}), nil)
}

func TestPositiveCacheRoundTripsThroughL1(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()
	res := models.NewSuccess(models.StatusFastPathSuccess, models.SourceFastPath, "p1", "galaxy buds pro", []models.Offer{{Price: 1000, Link: "https://x"}}, 100)

	_, ok := a.GetPositive(ctx, "galaxy-buds-pro")
	assert.False(t, ok, "cold cache should miss")

	a.SetPositive(ctx, "galaxy-buds-pro", res)
	got, ok := a.GetPositive(ctx, "galaxy-buds-pro")
	assert.True(t, ok)
	assert.Equal(t, res.ProductID, got.ProductID)
	assert.Equal(t, res.LowestPrice, got.LowestPrice)
}

func TestNegativeCacheRoundTrip(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	_, ok := a.GetNegative(ctx, "no-such-product")
	assert.False(t, ok)

	a.SetNegative(ctx, "no-such-product", "NotFound")
	reason, ok := a.GetNegative(ctx, "no-such-product")
	assert.True(t, ok)
	assert.Equal(t, "NotFound", reason)
}

func TestBreakerTripsAfterThreshold(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	assert.False(t, a.BreakerOpen(ctx, "aggregator.example.com"))

	a.BreakerTrip(ctx, "aggregator.example.com", 3, time.Minute)
	a.BreakerTrip(ctx, "aggregator.example.com", 3, time.Minute)
	assert.False(t, a.BreakerOpen(ctx, "aggregator.example.com"), "below threshold, still closed")

	a.BreakerTrip(ctx, "aggregator.example.com", 3, time.Minute)
	assert.True(t, a.BreakerOpen(ctx, "aggregator.example.com"), "third consecutive trip opens the breaker")
}

func TestBreakerResetClearsOpenState(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	a.BreakerTrip(ctx, "origin", 1, time.Minute)
	assert.True(t, a.BreakerOpen(ctx, "origin"))

	a.BreakerReset(ctx, "origin")
	assert.False(t, a.BreakerOpen(ctx, "origin"))
}

func TestPingWithoutRedisReportsDisabled(t *testing.T) {
	a := testAdapter()
	assert.Equal(t, "disabled", a.Ping(context.Background()))
}

func TestKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, Key("galaxy buds pro"), Key("galaxy buds pro"))
	assert.NotEqual(t, Key("galaxy buds pro"), Key("iphone 15"))
}
