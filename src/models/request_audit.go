package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestAuditEntry is one row per request outcome, for operational
// visibility. Unlike FailureRecord, it is written for every terminal
// status, not only failures. The analytics queries (Stats, Common,
// Suggestions) and the dashboard read FailureRecord rows, not these.
type RequestAuditEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AuditID        string    `gorm:"uniqueIndex;size:36" json:"audit_id"`
	OriginalQuery  string    `gorm:"index;size:500" json:"original_query"`
	Status         Status    `gorm:"size:30;index" json:"status"`
	Source         Source    `gorm:"size:20" json:"source"`
	CandidatesTried int      `json:"candidates_tried"`
	ElapsedMs      int64     `json:"elapsed_ms"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
}

// BeforeCreate assigns the entry's UUID.
func (e *RequestAuditEntry) BeforeCreate(tx *gorm.DB) error {
	if e.AuditID == "" {
		e.AuditID = uuid.New().String()
	}
	return nil
}
