package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/priceradar/pricesearch-engine/src/models"
)

// ConfigController exposes the persisted AggregatorConfig row for reading
// and editing. Changes are stored only; the running engine keeps the
// aggregator settings it loaded from the config file and environment.
type ConfigController struct {
	db *gorm.DB
}

// NewConfigController builds a ConfigController over db.
func NewConfigController(db *gorm.DB) *ConfigController {
	return &ConfigController{db: db}
}

type configUpdateRequest struct {
	Enabled    *bool   `json:"enabled"`
	BaseURL    *string `json:"base_url"`
	UserAgent  *string `json:"user_agent"`
	ListPath   *string `json:"list_path"`
	DetailPath *string `json:"detail_path"`
	TimeoutMs  *int    `json:"timeout_ms"`
	RetryCount *int    `json:"retry_count"`
}

// GetConfig handles GET /api/v1/config/aggregator. name defaults to the
// single aggregator this engine targets.
func (cc *ConfigController) GetConfig(c *gin.Context) {
	name := c.DefaultQuery("name", "default")

	var cfg models.AggregatorConfig
	if err := cc.db.Where("name = ?", name).First(&cfg).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "aggregator configuration not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateConfig handles PUT /api/v1/config/aggregator. Only the fields
// present in the request body are changed.
func (cc *ConfigController) UpdateConfig(c *gin.Context) {
	name := c.DefaultQuery("name", "default")

	var cfg models.AggregatorConfig
	if err := cc.db.Where("name = ?", name).First(&cfg).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "aggregator configuration not found"})
		return
	}

	var req configUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.BaseURL != nil {
		cfg.BaseURL = *req.BaseURL
	}
	if req.UserAgent != nil {
		cfg.UserAgent = *req.UserAgent
	}
	if req.ListPath != nil {
		cfg.ListPath = *req.ListPath
	}
	if req.DetailPath != nil {
		cfg.DetailPath = *req.DetailPath
	}
	if req.TimeoutMs != nil {
		cfg.TimeoutMs = *req.TimeoutMs
	}
	if req.RetryCount != nil {
		cfg.RetryCount = *req.RetryCount
	}

	if err := cc.db.Save(&cfg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update aggregator configuration", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}
