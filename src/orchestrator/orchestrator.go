// Package orchestrator composes the cache adapter, normalizer, FastPath
// and SlowPath executors, validation gate, and failure recorder into a
// single per-request pipeline run under one Budget.
package orchestrator

import (
	"context"
	"math"
	"time"

	"github.com/priceradar/pricesearch-engine/src/budget"
	"github.com/priceradar/pricesearch-engine/src/cacheadapter"
	"github.com/priceradar/pricesearch-engine/src/errtax"
	"github.com/priceradar/pricesearch-engine/src/failurelog"
	"github.com/priceradar/pricesearch-engine/src/fastpath"
	"github.com/priceradar/pricesearch-engine/src/logging"
	"github.com/priceradar/pricesearch-engine/src/metrics"
	"github.com/priceradar/pricesearch-engine/src/models"
	"github.com/priceradar/pricesearch-engine/src/normalizer"
	"github.com/priceradar/pricesearch-engine/src/slowpath"
	"github.com/priceradar/pricesearch-engine/src/validationgate"
)

// breakerThreshold and breakerOpenDuration: 3 consecutive Blocked/Timeout
// events trips the breaker for 60s.
const (
	breakerThreshold   = 3
	breakerOpenDuration = 60 * time.Second
)

// fastPathSearcher is the subset of *fastpath.Executor the orchestrator
// depends on; declared here so tests can drive the state machine against
// a fake collaborator instead of real HTTP traffic.
type fastPathSearcher interface {
	Search(ctx context.Context, query string, deadline time.Duration) (fastpath.Result, error)
}

// slowPathSearcher is the subset of *slowpath.Executor the orchestrator
// depends on; declared here so tests can drive the state machine against
// a fake collaborator instead of a real browser.
type slowPathSearcher interface {
	Search(ctx context.Context, query string, deadline time.Duration) (slowpath.Result, error)
}

// Engine is the orchestrator: one instance is built at startup and shared
// (by reference, no globals) across every request.
type Engine struct {
	budgetCfg       budget.Config
	normalizer      *normalizer.Normalizer
	gate            *validationgate.Gate
	cache           *cacheadapter.Adapter
	fastpath        fastPathSearcher
	slowpath        slowPathSearcher
	recorder        *failurelog.Recorder
	log             *logging.Logger
	m               *metrics.Registry
	origin          string
	slowPathEnabled bool
}

// Deps bundles the Engine's collaborators.
type Deps struct {
	BudgetCfg       budget.Config
	Normalizer      *normalizer.Normalizer
	Gate            *validationgate.Gate
	Cache           *cacheadapter.Adapter
	FastPath        fastPathSearcher
	SlowPath        slowPathSearcher
	Recorder        *failurelog.Recorder
	Log             *logging.Logger
	Metrics         *metrics.Registry
	Origin          string
	SlowPathEnabled bool
}

// New constructs an Engine from its Deps.
func New(d Deps) *Engine {
	return &Engine{
		budgetCfg:       d.BudgetCfg,
		normalizer:      d.Normalizer,
		gate:            d.Gate,
		cache:           d.Cache,
		fastpath:        d.FastPath,
		slowpath:        d.SlowPath,
		recorder:        d.Recorder,
		log:             d.Log,
		m:               d.Metrics,
		origin:          d.Origin,
		slowPathEnabled: d.SlowPathEnabled,
	}
}

// attempt tracks per-request mutable state threaded through the pipeline.
type attempt struct {
	fpBlocked    bool
	fpParse      bool
	fpTimedOut   bool
	spAttempted  bool
	spBlocked    bool
	tried        int
	lastErrorMsg string
}

// Search runs the cache-first / FastPath / SlowPath / fallback pipeline
// for one query, under the engine's configured Budget, and returns
// exactly one terminal SearchResult.
func (e *Engine) Search(ctx context.Context, q models.Query) models.SearchResult {
	b, err := budget.New(e.budgetCfg)
	if err != nil {
		e.log.WithError(err).Error("orchestrator: invalid budget configuration")
		return models.NewFailure(models.StatusBudgetExhausted, 0)
	}
	b.Start()

	nq := e.normalizer.Normalize(q.ProductName)
	broad := e.normalizer.IsBroadQuery(nq.Primary)
	b.SetBroadQuery(broad)
	b.Checkpoint("normalize")

	key := cacheadapter.Key(nq.Primary)

	if res, hit := e.cache.GetPositive(ctx, key); hit {
		b.Checkpoint("cache_positive_hit")
		result := res.AsCacheHit(elapsedMs(b))
		e.audit(q, result, 0)
		return result
	}
	if b.IsExhausted() {
		return e.finishExhausted(q, b, nq)
	}

	if reason, hit := e.cache.GetNegative(ctx, key); hit {
		_ = reason
		result := models.NewFailure(models.StatusNotFound, elapsedMs(b))
		e.audit(q, result, 0)
		return result
	}
	if b.IsExhausted() {
		return e.finishExhausted(q, b, nq)
	}

	at := &attempt{}

	var success *rawResult
	var usedSource models.Source

	if b.CanRun(budget.StageFastPath) && !e.cache.BreakerOpen(ctx, e.origin) {
		if res, ok := e.runFastPath(ctx, b, q, nq, at); ok {
			success = &res
			usedSource = models.SourceFastPath
		}
	} else if e.cache.BreakerOpen(ctx, e.origin) {
		at.fpBlocked = true
	}

	if success == nil && at.fpTimedOut && !b.CanRun(budget.StageSlowPath) {
		result := models.NewFailure(models.StatusTimeout, elapsedMs(b))
		e.logFailure(q, nq, at, "fastpath timed out with insufficient remaining budget for slowpath")
		e.audit(q, result, at.tried)
		return result
	}

	if success == nil && e.slowPathEnabled && !broad && b.CanRun(budget.StageSlowPath) {
		if res, ok := e.runSlowPath(ctx, b, q, nq, at); ok {
			success = &res
			usedSource = models.SourceSlowPath
		}
	}

	if success != nil {
		status := models.StatusFastPathSuccess
		if usedSource == models.SourceSlowPath {
			status = models.StatusSlowPathSuccess
		}
		result := models.NewSuccess(status, usedSource, success.productID, success.productName, success.offers, elapsedMs(b))
		e.cache.SetPositive(ctx, key, result)
		e.audit(q, result, at.tried)
		return result
	}

	status := e.terminalStatus(at, b.IsExhausted())
	if status == models.StatusNotFound {
		e.cache.SetNegative(ctx, key, "no candidate produced a valid result")
	}
	result := models.NewFailure(status, elapsedMs(b))
	e.logFailure(q, nq, at, string(status))
	e.audit(q, result, at.tried)
	return result
}

// rawResult is the path-agnostic shape both runFastPath and runSlowPath
// produce on success, before the orchestrator wraps it into the public
// SearchResult envelope.
type rawResult struct {
	productID   string
	productName string
	offers      []models.Offer
}

// runFastPath iterates nq.Candidates against the FastPath executor,
// bounding each candidate's deadline so one slow candidate can't starve
// the rest.
func (e *Engine) runFastPath(ctx context.Context, b *budget.Budget, q models.Query, nq models.NormalizedQuery, at *attempt) (rawResult, bool) {
	for i, candidate := range nq.Candidates {
		if b.IsExhausted() {
			return rawResult{}, false
		}
		remaining := len(nq.Candidates) - i
		deadline := b.CandidateTimeout(budget.StageFastPath, remaining)
		if deadline <= 0 {
			return rawResult{}, false
		}

		at.tried++
		res, err := e.fastpath.Search(ctx, candidate, deadline)
		if err == nil {
			if accepted := e.accept(q, nq, i, res.ProductName, string(nq.Category), sumPriceOrZero(res.Offers)); accepted {
				e.cache.BreakerReset(ctx, e.origin)
				if e.m != nil {
					e.m.CandidatesTried.Observe(float64(at.tried))
				}
				return rawResult{productID: res.ProductID, productName: res.ProductName, offers: res.Offers}, true
			}
			continue
		}

		ee, ok := errtax.As(err)
		if !ok {
			at.lastErrorMsg = err.Error()
			continue
		}
		at.lastErrorMsg = ee.Error()
		switch ee.Kind {
		case errtax.NotFound:
			continue
		case errtax.Blocked:
			at.fpBlocked = true
			e.cache.BreakerTrip(ctx, e.origin, breakerThreshold, breakerOpenDuration)
			return rawResult{}, false
		case errtax.Parse:
			at.fpParse = true
			return rawResult{}, false
		case errtax.Timeout:
			at.fpTimedOut = true
			e.cache.BreakerTrip(ctx, e.origin, breakerThreshold, breakerOpenDuration)
			return rawResult{}, false
		default:
			continue
		}
	}
	return rawResult{}, false
}

// runSlowPath mirrors runFastPath's candidate iteration against the
// browser-backed executor.
func (e *Engine) runSlowPath(ctx context.Context, b *budget.Budget, q models.Query, nq models.NormalizedQuery, at *attempt) (rawResult, bool) {
	at.spAttempted = true
	for i, candidate := range nq.Candidates {
		if b.IsExhausted() {
			return rawResult{}, false
		}
		remaining := len(nq.Candidates) - i
		deadline := b.CandidateTimeout(budget.StageSlowPath, remaining)
		if deadline <= 0 {
			return rawResult{}, false
		}

		at.tried++
		res, err := e.slowpath.Search(ctx, candidate, deadline)
		if err == nil {
			if accepted := e.accept(q, nq, i, res.ProductName, string(nq.Category), sumPriceOrZero(res.Offers)); accepted {
				e.cache.BreakerReset(ctx, e.origin)
				if e.m != nil {
					e.m.CandidatesTried.Observe(float64(at.tried))
				}
				return rawResult{productID: res.ProductID, productName: res.ProductName, offers: res.Offers}, true
			}
			continue
		}

		ee, ok := errtax.As(err)
		if !ok {
			at.lastErrorMsg = err.Error()
			continue
		}
		at.lastErrorMsg = ee.Error()
		switch ee.Kind {
		case errtax.Blocked:
			at.spBlocked = true
			e.cache.BreakerTrip(ctx, e.origin, breakerThreshold, breakerOpenDuration)
			return rawResult{}, false
		case errtax.NotFound, errtax.Parse, errtax.BrowserCrash, errtax.Timeout:
			continue
		default:
			continue
		}
	}
	return rawResult{}, false
}

// accept applies the Validation Gate to candidate index i's result when
// nq marks it as gate-required (a Level-2 fallback candidate); Level-0/1
// candidates skip the gate and are accepted whenever price is positive.
func (e *Engine) accept(q models.Query, nq models.NormalizedQuery, candidateIdx int, resultName, resultCategory string, price int64) bool {
	gateRequired := candidateIdx < len(nq.GateRequired) && nq.GateRequired[candidateIdx]
	if !gateRequired {
		return price > 0
	}
	return e.gate.Accept(q.ProductName, string(nq.Category), resultName, resultCategory, price)
}

func (e *Engine) terminalStatus(at *attempt, budgetExhausted bool) models.Status {
	if at.spBlocked {
		return models.StatusBlocked
	}
	if at.fpBlocked && !at.spAttempted {
		return models.StatusBlocked
	}
	if budgetExhausted {
		return models.StatusBudgetExhausted
	}
	if at.fpTimedOut && !at.spAttempted {
		return models.StatusTimeout
	}
	return models.StatusNotFound
}

func (e *Engine) finishExhausted(q models.Query, b *budget.Budget, nq models.NormalizedQuery) models.SearchResult {
	result := models.NewFailure(models.StatusBudgetExhausted, elapsedMs(b))
	e.audit(q, result, 0)
	return result
}

func (e *Engine) logFailure(q models.Query, nq models.NormalizedQuery, at *attempt, errMsg string) {
	if e.recorder == nil {
		return
	}
	rec := failurelog.NewFailureRecordFromAttempt(q.ProductName, nq.Primary, nq.Candidates, at.tried, errMsg, string(nq.Category), nq.Brand, nq.Model)
	e.recorder.Record(context.Background(), rec)
}

func (e *Engine) audit(q models.Query, result models.SearchResult, candidatesTried int) {
	if e.recorder == nil {
		return
	}
	e.recorder.RecordAudit(models.RequestAuditEntry{
		OriginalQuery:   q.ProductName,
		Status:          result.Status,
		Source:          result.Source,
		CandidatesTried: candidatesTried,
		ElapsedMs:       result.ElapsedMs,
		Timestamp:       time.Now().UTC(),
	})
	if e.m != nil {
		e.m.RequestsTotal.WithLabelValues(string(result.Status), string(result.Source)).Inc()
		e.m.RequestDuration.WithLabelValues(string(result.Status)).Observe(float64(result.ElapsedMs) / 1000)
	}
}

func elapsedMs(b *budget.Budget) int64 {
	return int64(math.Round(b.Elapsed().Seconds() * 1000))
}

func sumPriceOrZero(offers []models.Offer) int64 {
	if len(offers) == 0 {
		return 0
	}
	lowest := offers[0].Price
	for _, o := range offers {
		if o.Price < lowest {
			lowest = o.Price
		}
	}
	return lowest
}
