package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/priceradar/pricesearch-engine/src/browserpool"
	"github.com/priceradar/pricesearch-engine/src/cacheadapter"
	"github.com/priceradar/pricesearch-engine/src/database"
)

// HealthController reports per-dependency status for operational checks.
type HealthController struct {
	cache   *cacheadapter.Adapter
	db      *database.DB
	browser *browserpool.Pool
}

// NewHealthController builds a HealthController. db and browser may be nil
// in a degraded deployment (the dependency then reports "disabled").
func NewHealthController(cache *cacheadapter.Adapter, db *database.DB, browser *browserpool.Pool) *HealthController {
	return &HealthController{cache: cache, db: db, browser: browser}
}

// Health handles GET /api/v1/health.
func (hc *HealthController) Health(c *gin.Context) {
	redisStatus := hc.cache.Ping(c.Request.Context())

	dbStatus := "disabled"
	if hc.db != nil {
		dbStatus = hc.db.HealthCheck()
	}

	browserStatus := "disabled"
	if hc.browser != nil {
		browserStatus = "ready"
	}

	overall := "healthy"
	if redisStatus == "disconnected" || dbStatus == "disconnected" {
		overall = "degraded"
	}
	if dbStatus == "disconnected" && redisStatus == "disconnected" {
		overall = "error"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": overall,
		"dependencies": gin.H{
			"redis":    redisStatus,
			"database": dbStatus,
			"browser":  browserStatus,
		},
	})
}
