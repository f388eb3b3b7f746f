package models

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	AlertLowStock = "low_stock"
	AlertFraud    = "fraud"
)

// Alert is an operator-facing notification persisted for follow-up.
type Alert struct {
	ID         int64      `json:"id"`
	AlertType  string     `json:"alert_type"`
	Severity   Severity   `json:"severity"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	EntityType string     `json:"entity_type,omitempty"`
	EntityID   *int64     `json:"entity_id,omitempty"`
	IsResolved bool       `json:"is_resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// StockCheckResult summarizes one stock-level sweep.
type StockCheckResult struct {
	CriticalProducts int `json:"critical_products"`
	AlertsCreated    int `json:"alerts_created"`
}

// Event is a notification pushed to subscribers and the events topic.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

const (
	EventSuggestionCreated = "reorder_suggestion.created"
	EventSuggestionUpdated = "reorder_suggestion.updated"
	EventFraudDetected     = "fraud.detected"
	EventAlertCreated      = "alert.created"
	EventStockUpdated      = "stock.updated"
)
