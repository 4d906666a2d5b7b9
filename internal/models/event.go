// Package models defines the core data types for the budget audit engine.
package models

import (
	"encoding/json"
	"time"

	apperrors "budget-auditor/internal/errors"
)

// BudgetEvent is a single immutable budget disbursement fact.
// Amounts are INR crores.
type BudgetEvent struct {
	EventID    string    `json:"event_id"`
	Timestamp  time.Time `json:"timestamp"`
	State      string    `json:"state"`
	Sector     string    `json:"sector"`
	Contractor string    `json:"contractor"`
	Amount     float64   `json:"amount"`
	Category   string    `json:"category"`
}

// wireEvent mirrors the input schema with optional fields so that
// missing keys can be distinguished from zero values.
type wireEvent struct {
	EventID    *string  `json:"event_id"`
	Timestamp  *string  `json:"timestamp"`
	State      *string  `json:"state"`
	Sector     *string  `json:"sector"`
	Contractor *string  `json:"contractor"`
	Amount     *float64 `json:"amount"`
	Category   *string  `json:"category"`
}

// ParseBudgetEvent decodes and validates a single JSON-encoded event record.
// Malformed records are rejected whole; no partial ingestion happens.
func ParseBudgetEvent(line []byte) (*BudgetEvent, error) {
	var raw wireEvent
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, apperrors.NewValidationError("record", string(line), "not valid JSON")
	}

	if raw.EventID == nil || *raw.EventID == "" {
		return nil, apperrors.NewValidationError("event_id", raw.EventID, "missing or empty")
	}
	if raw.Timestamp == nil || *raw.Timestamp == "" {
		return nil, apperrors.NewValidationError("timestamp", raw.Timestamp, "missing or empty")
	}
	ts, err := time.Parse(time.RFC3339, *raw.Timestamp)
	if err != nil {
		return nil, apperrors.NewValidationError("timestamp", *raw.Timestamp, "not a valid ISO-8601 timestamp")
	}
	if raw.State == nil || *raw.State == "" {
		return nil, apperrors.NewValidationError("state", raw.State, "missing or empty")
	}
	if raw.Sector == nil || *raw.Sector == "" {
		return nil, apperrors.NewValidationError("sector", raw.Sector, "missing or empty")
	}
	if raw.Contractor == nil || *raw.Contractor == "" {
		return nil, apperrors.NewValidationError("contractor", raw.Contractor, "missing or empty")
	}
	if raw.Amount == nil {
		return nil, apperrors.NewValidationError("amount", nil, "missing")
	}
	if *raw.Amount < 0 {
		return nil, apperrors.NewValidationError("amount", *raw.Amount, "must be non-negative")
	}
	if raw.Category == nil || *raw.Category == "" {
		return nil, apperrors.NewValidationError("category", raw.Category, "missing or empty")
	}

	return &BudgetEvent{
		EventID:    *raw.EventID,
		Timestamp:  ts,
		State:      *raw.State,
		Sector:     *raw.Sector,
		Contractor: *raw.Contractor,
		Amount:     *raw.Amount,
		Category:   *raw.Category,
	}, nil
}

// Validate checks an already-constructed event against the same rules
// as ParseBudgetEvent. Used when events enter the pipeline directly
// rather than as raw JSON lines.
func (e *BudgetEvent) Validate() error {
	if e.EventID == "" {
		return apperrors.NewValidationError("event_id", e.EventID, "missing or empty")
	}
	if e.Timestamp.IsZero() {
		return apperrors.NewValidationError("timestamp", e.Timestamp, "missing")
	}
	if e.State == "" {
		return apperrors.NewValidationError("state", e.State, "missing or empty")
	}
	if e.Sector == "" {
		return apperrors.NewValidationError("sector", e.Sector, "missing or empty")
	}
	if e.Contractor == "" {
		return apperrors.NewValidationError("contractor", e.Contractor, "missing or empty")
	}
	if e.Amount < 0 {
		return apperrors.NewValidationError("amount", e.Amount, "must be non-negative")
	}
	if e.Category == "" {
		return apperrors.NewValidationError("category", e.Category, "missing or empty")
	}
	return nil
}
