package controllers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/priceradar/pricesearch-engine/src/cacheadapter"
	"github.com/priceradar/pricesearch-engine/src/failurelog"
	"github.com/priceradar/pricesearch-engine/src/metrics"
	"github.com/priceradar/pricesearch-engine/src/models"
)

// AnalyticsController serves the read-only failure analytics queries plus
// an ops-dashboard websocket feed.
type AnalyticsController struct {
	recorder *failurelog.Recorder
	cache    *cacheadapter.Adapter
	metrics  *metrics.Registry
	origin   string
	upgrader websocket.Upgrader
}

// NewAnalyticsController builds an AnalyticsController. origin is the
// aggregator identifier the cache adapter's circuit breaker is keyed on.
func NewAnalyticsController(recorder *failurelog.Recorder, cache *cacheadapter.Adapter, m *metrics.Registry, origin string) *AnalyticsController {
	return &AnalyticsController{
		recorder: recorder,
		cache:    cache,
		metrics:  m,
		origin:   origin,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Dashboard handles GET /api/v1/analytics/dashboard.
func (ac *AnalyticsController) Dashboard(c *gin.Context) {
	stats, err := ac.recorder.Stats(c.Request.Context(), 7*24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load failure stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"failure_stats": stats,
		"common":        ac.recorder.Common(10),
	})
}

// CommonFailures handles GET /api/v1/analytics/common-failures.
func (ac *AnalyticsController) CommonFailures(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 500 {
		limit = 20
	}
	c.JSON(http.StatusOK, gin.H{"common_failures": ac.recorder.Common(limit)})
}

// Improvements handles GET /api/v1/analytics/improvements.
func (ac *AnalyticsController) Improvements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": ac.recorder.Suggestions()})
}

// Export handles GET /api/v1/analytics/export.
func (ac *AnalyticsController) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	records, err := ac.recorder.Export(c.Request.Context(), 30*24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export failure records"})
		return
	}

	if format == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=failures.csv")
		w := csv.NewWriter(c.Writer)
		_ = w.Write([]string{"record_id", "original_query", "normalized_query", "attempted_count", "category", "status", "created_at"})
		for _, r := range records {
			_ = w.Write([]string{
				r.RecordID, r.OriginalQuery, r.NormalizedQuery,
				strconv.Itoa(r.AttemptedCount), r.Category, string(r.Status),
				r.CreatedAt.Format(time.RFC3339),
			})
		}
		w.Flush()
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

type resolveRequest struct {
	Status           models.FailureStatus `json:"status" binding:"required"`
	CorrectName      *string              `json:"correct_name"`
	CorrectProductID *string              `json:"correct_product_id"`
}

// Resolve handles POST /api/v1/analytics/resolve/:id.
func (ac *AnalyticsController) Resolve(c *gin.Context) {
	id := c.Param("id")
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := ac.recorder.Resolve(c.Request.Context(), id, req.Status, req.CorrectName, req.CorrectProductID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve failure record", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "failure record resolved"})
}

// Stream handles GET /api/v1/analytics/stream: a websocket that pushes a
// breaker/cache snapshot every 5 seconds until the client disconnects.
func (ac *AnalyticsController) Stream(c *gin.Context) {
	conn, err := ac.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		snapshot := gin.H{
			"breaker_open":  ac.cache.BreakerOpen(c.Request.Context(), ac.origin),
			"redis_status":  ac.cache.Ping(c.Request.Context()),
			"timestamp":     time.Now().UTC(),
		}
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
