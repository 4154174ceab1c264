// Package budget enforces the per-request wall-clock deadline and the
// per-stage sub-budgets sliced out of it.
package budget

import (
	"fmt"
	"time"
)

// Stage identifies a pipeline stage the Budget allocates time for.
type Stage string

const (
	StageCache    Stage = "cache"
	StageFastPath Stage = "fastpath"
	StageSlowPath Stage = "slowpath"
)

// Config is the set of stage defaults a Budget is constructed from, each
// an absolute duration; New rejects stages that together exceed Total.
type Config struct {
	Total        time.Duration
	Cache        time.Duration
	FastPath     time.Duration
	SlowPath     time.Duration
	MinRemaining time.Duration
	// BroadQueryFastPath is the enlarged FastPath sub-budget granted to
	// broad queries, at the cost of disabling SlowPath entirely.
	BroadQueryFastPath time.Duration
}

// DefaultConfig returns the production stage-budget defaults.
func DefaultConfig() Config {
	return Config{
		Total:              12 * time.Second,
		Cache:              500 * time.Millisecond,
		FastPath:           4 * time.Second,
		SlowPath:           6500 * time.Millisecond,
		MinRemaining:       1 * time.Second,
		BroadQueryFastPath: 10 * time.Second,
	}
}

// Budget tracks elapsed/remaining wall-clock time for a single request and
// hands out sub-budgets per stage. It is not safe for concurrent use by
// more than one goroutine driving the same request.
type Budget struct {
	cfg         Config
	startedAt   time.Time
	broadQuery  bool
	checkpoints map[string]time.Duration
	nowFunc     func() time.Time
}

// New validates cfg and constructs a Budget, but does not start its clock.
func New(cfg Config) (*Budget, error) {
	if cfg.Cache+cfg.FastPath+cfg.SlowPath > cfg.Total {
		return nil, fmt.Errorf("budget: cache+fastpath+slowpath (%s) exceeds total (%s)",
			cfg.Cache+cfg.FastPath+cfg.SlowPath, cfg.Total)
	}
	return &Budget{
		cfg:         cfg,
		checkpoints: make(map[string]time.Duration),
		nowFunc:     time.Now,
	}, nil
}

// Start records the start instant. Must be called exactly once, before
// any other operation.
func (b *Budget) Start() {
	b.startedAt = b.nowFunc()
}

// SetBroadQuery applies the broad-query budget redistribution policy:
// FastPath receives the enlarged sub-budget and SlowPath is disabled for
// the remainder of the request. Set once, at normalize time.
func (b *Budget) SetBroadQuery(broad bool) {
	b.broadQuery = broad
}

// BroadQuery reports whether the broad-query policy is in effect.
func (b *Budget) BroadQuery() bool {
	return b.broadQuery
}

// Elapsed returns time since Start.
func (b *Budget) Elapsed() time.Duration {
	if b.startedAt.IsZero() {
		return 0
	}
	return b.nowFunc().Sub(b.startedAt)
}

// Remaining returns Total minus Elapsed, never negative.
func (b *Budget) Remaining() time.Duration {
	r := b.cfg.Total - b.Elapsed()
	if r < 0 {
		return 0
	}
	return r
}

func (b *Budget) stageDefault(stage Stage) time.Duration {
	switch stage {
	case StageCache:
		return b.cfg.Cache
	case StageFastPath:
		if b.broadQuery {
			return b.cfg.BroadQueryFastPath
		}
		return b.cfg.FastPath
	case StageSlowPath:
		return b.cfg.SlowPath
	default:
		return 0
	}
}

// TimeoutFor returns the deadline to hand the given stage's executor:
// min(stage_default, remaining()), never negative.
func (b *Budget) TimeoutFor(stage Stage) time.Duration {
	d := b.stageDefault(stage)
	if r := b.Remaining(); r < d {
		d = r
	}
	if d < 0 {
		return 0
	}
	return d
}

// CanRun reports whether remaining() is at least the stage's default —
// strict, so a partially-consumed stage budget never starts a stage.
func (b *Budget) CanRun(stage Stage) bool {
	return b.Remaining() >= b.stageDefault(stage)
}

// IsExhausted reports whether remaining() has dropped below MinRemaining.
func (b *Budget) IsExhausted() bool {
	return b.Remaining() < b.cfg.MinRemaining
}

// Checkpoint records elapsed time at a named event, for the final report.
func (b *Budget) Checkpoint(name string) {
	b.checkpoints[name] = b.Elapsed()
}

// Checkpoints returns a copy of all recorded checkpoints.
func (b *Budget) Checkpoints() map[string]time.Duration {
	out := make(map[string]time.Duration, len(b.checkpoints))
	for k, v := range b.checkpoints {
		out[k] = v
	}
	return out
}

// CandidateTimeout bounds a single candidate's deadline so one slow
// candidate cannot starve the others: min(remaining, stageDefault /
// ceil(remainingCandidates)).
func (b *Budget) CandidateTimeout(stage Stage, remainingCandidates int) time.Duration {
	if remainingCandidates < 1 {
		remainingCandidates = 1
	}
	share := b.stageDefault(stage) / time.Duration(remainingCandidates)
	if r := b.Remaining(); r < share {
		share = r
	}
	if share < 0 {
		return 0
	}
	return share
}
