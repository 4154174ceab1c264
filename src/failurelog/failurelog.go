// Package failurelog persists FailureRecords asynchronously so the
// request path is never delayed by the durable store, and serves the
// read-only analytics queries over them. Writes flow through a bounded
// channel drained by a fixed worker pool; under sustained overload the
// oldest queued write is dropped, and the drop itself is logged.
package failurelog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/priceradar/pricesearch-engine/src/logging"
	"github.com/priceradar/pricesearch-engine/src/metrics"
	"github.com/priceradar/pricesearch-engine/src/models"
)

const (
	queueCapacity = 256
	workerCount   = 2
)

// writeJob is one durable write queued for a background worker.
type writeJob struct {
	record models.FailureRecord
}

// Recorder is the async failure-record writer plus analytics reader. Its
// writes run on a detached context, independent of request cancellation.
type Recorder struct {
	db    *gorm.DB
	log   *logging.Logger
	m     *metrics.Registry
	queue chan writeJob
	wg    sync.WaitGroup
	stop  chan struct{}

	mu        sync.RWMutex
	snapshot  analyticsSnapshot
	scheduler *cron.Cron
}

type analyticsSnapshot struct {
	common      []models.CommonFailure
	suggestions []models.FailureSuggestion
	computedAt  time.Time
}

// New constructs a Recorder, starts its worker pool, and schedules the
// 10-minute analytics materialization job. db may be nil (degraded
// deployment); writes and reads then no-op rather than panic.
func New(db *gorm.DB, log *logging.Logger, m *metrics.Registry) *Recorder {
	r := &Recorder{
		db:    db,
		log:   log,
		m:     m,
		queue: make(chan writeJob, queueCapacity),
		stop:  make(chan struct{}),
	}

	for i := 0; i < workerCount; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	if db != nil {
		r.scheduler = cron.New()
		_, err := r.scheduler.AddFunc("*/10 * * * *", r.refreshSnapshot)
		if err != nil {
			log.WithError(err).Warn("failurelog: failed to schedule analytics refresh")
		} else {
			r.scheduler.Start()
			r.refreshSnapshot()
		}
	}

	return r
}

// Record enqueues a FailureRecord for durable persistence. It never
// blocks: if the queue is full the oldest pending job is dropped to make
// room, and the drop is logged and counted.
func (r *Recorder) Record(ctx context.Context, rec models.FailureRecord) {
	if r.db == nil {
		return
	}
	job := writeJob{record: rec}
	select {
	case r.queue <- job:
		return
	default:
	}
	select {
	case <-r.queue:
		if r.m != nil {
			r.m.FailureQueueDrops.Inc()
		}
		r.log.Warn("failurelog: queue full, dropped oldest pending write")
	default:
	}
	select {
	case r.queue <- job:
	default:
		r.log.Warn("failurelog: queue still full after drop, discarding newest write")
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case job := <-r.queue:
			r.persist(job.record)
		case <-r.stop:
			for {
				select {
				case job := <-r.queue:
					r.persist(job.record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(rec models.FailureRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		r.log.WithError(err).Error("failurelog: failed to persist failure record")
		return
	}
	if r.m != nil {
		r.m.FailuresRecorded.Inc()
	}
}

// RecordAudit persists a RequestAuditEntry for every terminal request
// outcome (not only failures), giving analytics a denominator alongside
// FailureRecord's numerator. The write runs on its own goroutine with a
// detached 5s timeout; it does not go through the bounded failure queue.
func (r *Recorder) RecordAudit(entry models.RequestAuditEntry) {
	if r.db == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
			r.log.WithError(err).Debug("failurelog: failed to persist audit entry")
		}
	}()
}

// Stats returns total/pending/resolved counts and a per-category
// breakdown over the given lookback window.
func (r *Recorder) Stats(ctx context.Context, window time.Duration) (models.FailureStats, error) {
	if r.db == nil {
		return models.FailureStats{}, nil
	}
	since := time.Now().Add(-window)
	var stats models.FailureStats

	if err := r.db.WithContext(ctx).Model(&models.FailureRecord{}).
		Where("created_at >= ?", since).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&models.FailureRecord{}).
		Where("created_at >= ? AND status = ?", since, models.FailureStatusPending).
		Count(&stats.Pending).Error; err != nil {
		return stats, err
	}
	stats.Resolved = stats.Total - stats.Pending

	rows, err := r.db.WithContext(ctx).Model(&models.FailureRecord{}).
		Select("category, count(*) as count").
		Where("created_at >= ?", since).
		Group("category").Rows()
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var c models.FailureCategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err == nil {
			stats.ByCategory = append(stats.ByCategory, c)
		}
	}
	return stats, nil
}

// Common returns the materialized most-repeated (original_query,
// normalized_query) pairs, up to limit, refreshed on the 10-minute cron.
func (r *Recorder) Common(limit int) []models.CommonFailure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.snapshot.common) {
		limit = len(r.snapshot.common)
	}
	out := make([]models.CommonFailure, limit)
	copy(out, r.snapshot.common[:limit])
	return out
}

// Suggestions returns the materialized ranked list of patterns with >= 3
// occurrences, tagged HIGH/MEDIUM/LOW.
func (r *Recorder) Suggestions() []models.FailureSuggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.FailureSuggestion, len(r.snapshot.suggestions))
	copy(out, r.snapshot.suggestions)
	return out
}

// refreshSnapshot materializes Common and Suggestions from the database
// so analytics reads never compete with the hot path for connections.
func (r *Recorder) refreshSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type row struct {
		OriginalQuery   string
		NormalizedQuery string
		Count           int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.FailureRecord{}).
		Select("original_query, normalized_query, count(*) as count").
		Group("original_query, normalized_query").
		Order("count desc").
		Limit(100).
		Scan(&rows).Error; err != nil {
		r.log.WithError(err).Warn("failurelog: analytics snapshot refresh failed")
		return
	}

	common := make([]models.CommonFailure, 0, len(rows))
	suggestions := make([]models.FailureSuggestion, 0, len(rows))
	for _, row := range rows {
		common = append(common, models.CommonFailure{
			OriginalQuery:   row.OriginalQuery,
			NormalizedQuery: row.NormalizedQuery,
			Count:           row.Count,
		})
		if row.Count >= 3 {
			suggestions = append(suggestions, models.FailureSuggestion{
				NormalizedQuery: row.NormalizedQuery,
				Occurrences:     row.Count,
				Priority:        priorityFor(row.Count),
			})
		}
	}

	r.mu.Lock()
	r.snapshot = analyticsSnapshot{common: common, suggestions: suggestions, computedAt: time.Now()}
	r.mu.Unlock()
}

func priorityFor(count int64) models.SuggestionPriority {
	switch {
	case count >= 20:
		return models.PriorityHigh
	case count >= 8:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// Export returns every FailureRecord in the window, newest first; the
// HTTP adapter renders them as JSON or CSV for the analytics export
// endpoint.
func (r *Recorder) Export(ctx context.Context, window time.Duration) ([]models.FailureRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	since := time.Now().Add(-window)
	var records []models.FailureRecord
	if err := r.db.WithContext(ctx).Where("created_at >= ?", since).Order("created_at desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Resolve mutates a FailureRecord's curation status — the only mutation
// path into FailureRecord, reserved for the external analytics/curation
// interface.
func (r *Recorder) Resolve(ctx context.Context, recordID string, status models.FailureStatus, correctName, correctProductID *string) error {
	if r.db == nil {
		return gorm.ErrRecordNotFound
	}
	updates := map[string]interface{}{"status": status, "updated_at": time.Now()}
	if correctName != nil {
		updates["correct_name"] = *correctName
	}
	if correctProductID != nil {
		updates["correct_product_id"] = *correctProductID
	}
	return r.db.WithContext(ctx).Model(&models.FailureRecord{}).
		Where("record_id = ?", recordID).Updates(updates).Error
}

// Shutdown stops the worker pool and the analytics cron, draining
// whatever is already queued.
func (r *Recorder) Shutdown() {
	if r.scheduler != nil {
		cronCtx := r.scheduler.Stop()
		<-cronCtx.Done()
	}
	close(r.stop)
	r.wg.Wait()
}

// NewFailureRecordFromAttempt builds a FailureRecord from the
// orchestrator's view of a terminal failure.
func NewFailureRecordFromAttempt(originalQuery, normalizedQuery string, candidates []string, attempted int, errMsg, category, brand, model string) models.FailureRecord {
	rec := models.FailureRecord{
		OriginalQuery:   originalQuery,
		NormalizedQuery: normalizedQuery,
		AttemptedCount:  attempted,
		ErrorMessage:    errMsg,
		Category:        category,
		Brand:           brand,
		Model:           model,
	}
	if data, err := json.Marshal(candidates); err == nil {
		rec.Candidates = string(data)
	}
	return rec
}
