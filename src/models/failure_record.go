package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FailureStatus is the curation lifecycle of a FailureRecord.
type FailureStatus string

const (
	FailureStatusPending     FailureStatus = "pending"
	FailureStatusManualFixed FailureStatus = "manual_fixed"
	FailureStatusAutoLearned FailureStatus = "auto_learned"
	FailureStatusNotProduct  FailureStatus = "not_product"
)

// FailureRecord is a durable row created on any terminal failure in the
// engine, and mutated only by an external analytics/curation interface.
type FailureRecord struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	RecordID         string        `gorm:"uniqueIndex;size:36" json:"record_id"`
	OriginalQuery    string        `gorm:"index;size:500" json:"original_query"`
	NormalizedQuery  string        `gorm:"size:500" json:"normalized_query"`
	Candidates       string        `gorm:"type:text" json:"candidates"` // JSON array
	AttemptedCount   int           `json:"attempted_count"`
	ErrorMessage     string        `gorm:"size:500" json:"error_message"`
	Category         string        `gorm:"size:20" json:"category"`
	Brand            string        `gorm:"size:100" json:"brand"`
	Model            string        `gorm:"size:100" json:"model"`
	Status           FailureStatus `gorm:"size:20;index" json:"status"`
	CorrectName      *string       `json:"correct_name,omitempty"`
	CorrectProductID *string       `json:"correct_product_id,omitempty"`
	CreatedAt        time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// BeforeCreate assigns the record's UUID and default status.
func (f *FailureRecord) BeforeCreate(tx *gorm.DB) error {
	if f.RecordID == "" {
		f.RecordID = uuid.New().String()
	}
	if f.Status == "" {
		f.Status = FailureStatusPending
	}
	return nil
}

// GetCandidates returns the candidate list stored in Candidates.
func (f *FailureRecord) GetCandidates() ([]string, error) {
	if f.Candidates == "" {
		return []string{}, nil
	}
	var candidates []string
	err := json.Unmarshal([]byte(f.Candidates), &candidates)
	return candidates, err
}

// SetCandidates serializes a candidate list into Candidates.
func (f *FailureRecord) SetCandidates(candidates []string) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		return err
	}
	f.Candidates = string(data)
	return nil
}

// FailureStats is the response shape of the failure recorder's stats(window)
// analytics query.
type FailureStats struct {
	Total      int64                   `json:"total"`
	Pending    int64                   `json:"pending"`
	Resolved   int64                   `json:"resolved"`
	ByCategory []FailureCategoryCount  `json:"by_category"`
}

// FailureCategoryCount is one entry of FailureStats.ByCategory.
type FailureCategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// CommonFailure is one entry of the failure recorder's common(limit) query.
type CommonFailure struct {
	OriginalQuery   string `json:"original_query"`
	NormalizedQuery string `json:"normalized_query"`
	Count           int64  `json:"count"`
}

// SuggestionPriority is the confidence tag on a FailureSuggestion.
type SuggestionPriority string

const (
	PriorityHigh   SuggestionPriority = "HIGH"
	PriorityMedium SuggestionPriority = "MEDIUM"
	PriorityLow    SuggestionPriority = "LOW"
)

// FailureSuggestion is one ranked pattern returned by suggestions().
type FailureSuggestion struct {
	NormalizedQuery string             `json:"normalized_query"`
	Occurrences     int64              `json:"occurrences"`
	Priority        SuggestionPriority `json:"priority"`
}
