package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceradar/pricesearch-engine/src/budget"
	"github.com/priceradar/pricesearch-engine/src/cacheadapter"
	"github.com/priceradar/pricesearch-engine/src/errtax"
	"github.com/priceradar/pricesearch-engine/src/fastpath"
	"github.com/priceradar/pricesearch-engine/src/logging"
	"github.com/priceradar/pricesearch-engine/src/models"
	"github.com/priceradar/pricesearch-engine/src/normalizer"
	"github.com/priceradar/pricesearch-engine/src/resources"
	"github.com/priceradar/pricesearch-engine/src/slowpath"
	"github.com/priceradar/pricesearch-engine/src/validationgate"
)

const testOrigin = "https://aggregator.example"

// fpStep is one scripted response a fakeFastPath hands back, in call order.
type fpStep struct {
	res fastpath.Result
	err error
}

// fakeFastPath drives the orchestrator against scripted results instead of
// real HTTP traffic, so the candidate-iteration and circuit-breaker logic
// can be exercised without a network collaborator.
type fakeFastPath struct {
	steps []fpStep
	calls int
}

func (f *fakeFastPath) Search(_ context.Context, _ string, _ time.Duration) (fastpath.Result, error) {
	defer func() { f.calls++ }()
	if f.calls < len(f.steps) {
		return f.steps[f.calls].res, f.steps[f.calls].err
	}
	return fastpath.Result{}, errtax.New(errtax.NotFound, "fake fastpath: no more scripted steps")
}

// fakeSlowPath mirrors fakeFastPath for the browser-backed path.
type fakeSlowPath struct {
	steps []fpStep
	calls int
}

func (f *fakeSlowPath) Search(_ context.Context, _ string, _ time.Duration) (slowpath.Result, error) {
	defer func() { f.calls++ }()
	if f.calls < len(f.steps) {
		return slowpath.Result{
			ProductID:   f.steps[f.calls].res.ProductID,
			ProductName: f.steps[f.calls].res.ProductName,
			Offers:      f.steps[f.calls].res.Offers,
		}, f.steps[f.calls].err
	}
	return slowpath.Result{}, errtax.New(errtax.NotFound, "fake slowpath: no more scripted steps")
}

// testResources builds a minimal resource table: no hard-mapping entries
// (so every test falls through to Level 1/2), a broad-query keyword for
// the broad-query scenario, and a color token so Level 1 produces more
// than one distinct candidate for the candidate-iteration scenario.
func testResources() *resources.Resources {
	return &resources.Resources{
		BroadQueryKeywords: []string{"아이폰"},
		ColorTokens:        []string{"화이트"},
		BrandLexicon:       []string{"samsung", "apple"},
		CategoryKeywords:   map[models.Category][]string{},
		CategoryCompat:     map[string][]string{},
	}
}

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: "error", Service: "orchestrator-test"})
}

type testDeps struct {
	cache *cacheadapter.Adapter
	res   *resources.Resources
}

func newTestEngine(t *testing.T, fp fastPathSearcher, sp slowPathSearcher, slowPathEnabled bool) (*Engine, testDeps) {
	t.Helper()
	res := testResources()
	cache := cacheadapter.New(nil, testLogger(), nil)
	eng := New(Deps{
		BudgetCfg:       budget.DefaultConfig(),
		Normalizer:      normalizer.New(res),
		Gate:            validationgate.New(res),
		Cache:           cache,
		FastPath:        fp,
		SlowPath:        sp,
		Recorder:        nil,
		Log:             testLogger(),
		Metrics:         nil,
		Origin:          testOrigin,
		SlowPathEnabled: slowPathEnabled,
	})
	return eng, testDeps{cache: cache, res: res}
}

func primaryKeyFor(res *resources.Resources, raw string) string {
	nq := normalizer.New(res).Normalize(raw)
	return cacheadapter.Key(nq.Primary)
}

func TestSearch_CachePositiveHitReturnsSourceCacheWithoutCallingFastPath(t *testing.T) {
	raw := "갤럭시 버즈 프로"
	fp := &fakeFastPath{}
	sp := &fakeSlowPath{}
	eng, deps := newTestEngine(t, fp, sp, true)

	cached := models.NewSuccess(models.StatusFastPathSuccess, models.SourceFastPath, "p1", "samsung galaxy buds pro",
		[]models.Offer{{Rank: 1, Mall: "a-mart", Price: 10000, Link: "https://a/item"}}, 900)
	deps.cache.SetPositive(context.Background(), primaryKeyFor(deps.res, raw), cached)

	result := eng.Search(context.Background(), models.Query{ProductName: raw})

	assert.Equal(t, models.StatusCacheHit, result.Status)
	assert.Equal(t, models.SourceCache, result.Source)
	assert.Equal(t, int64(10000), result.LowestPrice)
	assert.Equal(t, 0, fp.calls)
	assert.Equal(t, 0, sp.calls)
}

func TestSearch_NegativeCacheHitReturnsNotFoundWithoutOutboundTraffic(t *testing.T) {
	raw := "존재하지않는상품 × B182W13"
	fp := &fakeFastPath{}
	sp := &fakeSlowPath{}
	eng, deps := newTestEngine(t, fp, sp, true)

	deps.cache.SetNegative(context.Background(), primaryKeyFor(deps.res, raw), "no candidate produced a valid result")

	result := eng.Search(context.Background(), models.Query{ProductName: raw})

	assert.Equal(t, models.StatusNotFound, result.Status)
	assert.Equal(t, 0, fp.calls)
	assert.Equal(t, 0, sp.calls)
}

func TestSearch_BroadQueryDisablesSlowPathOnFastPathTimeout(t *testing.T) {
	raw := "아이폰"
	fp := &fakeFastPath{steps: []fpStep{
		{err: errtax.New(errtax.Timeout, "fastpath: deadline exceeded")},
	}}
	sp := &fakeSlowPath{}
	eng, _ := newTestEngine(t, fp, sp, true)

	result := eng.Search(context.Background(), models.Query{ProductName: raw})

	assert.Equal(t, models.StatusTimeout, result.Status)
	assert.Equal(t, 0, sp.calls, "broad-query policy must disable SlowPath even after a FastPath timeout")
}

func TestSearch_FastPathIteratesCandidatesUntilSuccess(t *testing.T) {
	raw := "화이트 버즈 프로"
	offers := []models.Offer{{Rank: 1, Mall: "cool-mart", Price: 55000, Link: "https://cool-mart/p9"}}
	fp := &fakeFastPath{steps: []fpStep{
		{err: errtax.New(errtax.NotFound, "fastpath: zero matches")},
		{res: fastpath.Result{ProductID: "p9", ProductName: "buds pro", Offers: offers}},
	}}
	sp := &fakeSlowPath{}
	eng, deps := newTestEngine(t, fp, sp, true)

	result := eng.Search(context.Background(), models.Query{ProductName: raw})

	require.Equal(t, models.StatusFastPathSuccess, result.Status)
	assert.Equal(t, models.SourceFastPath, result.Source)
	assert.Equal(t, "p9", result.ProductID)
	assert.Equal(t, int64(55000), result.LowestPrice)
	assert.Equal(t, 2, fp.calls, "must try the first candidate before falling back to the second")
	assert.Equal(t, 0, sp.calls)

	_, hit := deps.cache.GetPositive(context.Background(), primaryKeyFor(deps.res, raw))
	assert.True(t, hit, "a successful result must be written to the positive cache")
}

func TestSearch_OpenCircuitBreakerSkipsFastPathEntirely(t *testing.T) {
	raw := "갤럭시 워치"
	fp := &fakeFastPath{}
	sp := &fakeSlowPath{}
	eng, deps := newTestEngine(t, fp, sp, false)

	ctx := context.Background()
	for i := 0; i < breakerThreshold; i++ {
		deps.cache.BreakerTrip(ctx, testOrigin, breakerThreshold, breakerOpenDuration)
	}
	require.True(t, deps.cache.BreakerOpen(ctx, testOrigin))

	result := eng.Search(ctx, models.Query{ProductName: raw})

	assert.Equal(t, models.StatusBlocked, result.Status)
	assert.Equal(t, 0, fp.calls, "an open breaker must prevent any FastPath request to the origin")
}

func TestSearch_FastPathTimeoutTripsBreakerLikeBlocked(t *testing.T) {
	raw := "갤럭시 워치 5"
	fp := &fakeFastPath{steps: []fpStep{
		{err: errtax.New(errtax.Timeout, "fastpath: deadline exceeded")},
	}}
	sp := &fakeSlowPath{}
	eng, deps := newTestEngine(t, fp, sp, false)
	ctx := context.Background()

	for i := 0; i < breakerThreshold; i++ {
		eng.Search(ctx, models.Query{ProductName: raw})
		fp.calls = 0
	}

	assert.True(t, deps.cache.BreakerOpen(ctx, testOrigin),
		"three consecutive FastPath timeouts must trip the breaker the same as Blocked")
}
