package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsOverAllocatedConfig(t *testing.T) {
	cfg := Config{
		Total: 10 * time.Second, Cache: 5 * time.Second,
		FastPath: 4 * time.Second, SlowPath: 3 * time.Second,
	}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestDefaultConfigBuilds(t *testing.T) {
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestRemainingAndTimeoutFor(t *testing.T) {
	b, err := New(DefaultConfig())
	require.NoError(t, err)

	fakeNow := time.Now()
	b.nowFunc = func() time.Time { return fakeNow }
	b.Start()

	assert.Equal(t, 12*time.Second, b.Remaining())
	assert.Equal(t, 4*time.Second, b.TimeoutFor(StageFastPath))

	fakeNow = fakeNow.Add(9 * time.Second)
	assert.Equal(t, 3*time.Second, b.Remaining())
	assert.Equal(t, 3*time.Second, b.TimeoutFor(StageFastPath), "timeout clamps to whatever remains")
}

func TestBroadQueryRedistributesFastPathBudget(t *testing.T) {
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	b.nowFunc = func() time.Time { return time.Now() }
	b.Start()
	b.SetBroadQuery(true)

	assert.True(t, b.BroadQuery())
	assert.Equal(t, 10*time.Second, b.TimeoutFor(StageFastPath))
}

func TestIsExhausted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinRemaining = 1 * time.Second
	b, err := New(cfg)
	require.NoError(t, err)

	fakeNow := time.Now()
	b.nowFunc = func() time.Time { return fakeNow }
	b.Start()
	assert.False(t, b.IsExhausted())

	fakeNow = fakeNow.Add(11500 * time.Millisecond)
	assert.True(t, b.IsExhausted())
}

func TestCandidateTimeoutSplitsAcrossRemainingCandidates(t *testing.T) {
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	b.nowFunc = func() time.Time { return time.Now() }
	b.Start()

	full := b.CandidateTimeout(StageFastPath, 1)
	half := b.CandidateTimeout(StageFastPath, 2)
	assert.Equal(t, 4*time.Second, full)
	assert.Equal(t, 2*time.Second, half)
}

func TestCheckpoints(t *testing.T) {
	b, err := New(DefaultConfig())
	require.NoError(t, err)
	fakeNow := time.Now()
	b.nowFunc = func() time.Time { return fakeNow }
	b.Start()

	fakeNow = fakeNow.Add(250 * time.Millisecond)
	b.Checkpoint("cache_miss")

	cps := b.Checkpoints()
	assert.Equal(t, 250*time.Millisecond, cps["cache_miss"])
}
