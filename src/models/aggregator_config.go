package models

import "time"

// AggregatorConfig is the persisted aggregator settings row (base URL,
// paths, timeouts, retry count), readable and editable through the config
// endpoint. The running engine does not read this row: its aggregator
// settings come from the config file and environment at startup.
type AggregatorConfig struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"uniqueIndex;size:100" json:"name"`
	Enabled       bool      `gorm:"default:true" json:"enabled"`
	BaseURL       string    `gorm:"size:500" json:"base_url"`
	UserAgent     string    `gorm:"size:300" json:"user_agent"`
	ListPath      string    `gorm:"size:200" json:"list_path"`
	DetailPath    string    `gorm:"size:200" json:"detail_path"`
	TimeoutMs     int       `gorm:"default:3000" json:"timeout_ms"`
	RetryCount    int       `gorm:"default:0" json:"retry_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}
