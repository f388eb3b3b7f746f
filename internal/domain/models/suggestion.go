package models

import "time"

// SuggestionStatus is the approval state of a reorder suggestion.
type SuggestionStatus string

const (
	StatusPending  SuggestionStatus = "pending"
	StatusApproved SuggestionStatus = "approved"
	StatusRejected SuggestionStatus = "rejected"
	StatusOrdered  SuggestionStatus = "ordered"
)

// transitions lists the moves the approval workflow may make.
var transitions = map[SuggestionStatus][]SuggestionStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusOrdered},
}

// IsValid reports whether s is a known status.
func (s SuggestionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusOrdered:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a suggestion may move from s to next.
func (s SuggestionStatus) CanTransition(next SuggestionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReorderSuggestion is an automated replenishment proposal.
type ReorderSuggestion struct {
	ID                    int64            `json:"id"`
	ProductID             int64            `json:"product_id"`
	SuggestedQuantity     int              `json:"suggested_quantity"`
	SuggestedSupplierID   *int64           `json:"suggested_supplier_id"`
	UrgencyScore          float64          `json:"urgency_score"`
	EstimatedStockoutDate time.Time        `json:"estimated_stockout_date"`
	Reasoning             string           `json:"reasoning"`
	Status                SuggestionStatus `json:"status"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// SuggestionView joins a suggestion with the product and supplier it refers to.
type SuggestionView struct {
	ReorderSuggestion
	Product  *Product  `json:"product,omitempty"`
	Supplier *Supplier `json:"suggested_supplier,omitempty"`
}

// BatchResult summarizes a bulk suggestion run.
type BatchResult struct {
	ProductsChecked    int `json:"products_checked"`
	SuggestionsCreated int `json:"suggestions_created"`
}
