package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoFraudIndicators is the verdict reason when no signal fires.
const NoFraudIndicators = "No fraud indicators"

// TransactionRiskInput is everything the fraud scorer looks at for one purchase.
type TransactionRiskInput struct {
	CustomerID             int64           `json:"customer_id"`
	Amount                 decimal.Decimal `json:"amount"`
	IPAddress              string          `json:"ip_address,omitempty"`
	RecentTransactionCount int             `json:"recent_transaction_count"`
	CustomerRiskScore      float64         `json:"customer_risk_score"`
	CurrentHour            int             `json:"current_hour"`
}

// FraudVerdict is the scored outcome for one transaction.
type FraudVerdict struct {
	IsSuspicious bool    `json:"is_suspicious"`
	FraudScore   float64 `json:"fraud_score"`
	Reason       string  `json:"reason"`
}

// Customer holds the risk profile used by fraud scoring.
type Customer struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	RiskScore    float64   `json:"risk_score"`
	LoyaltyTier  string    `json:"loyalty_tier,omitempty"`
	TotalSpent   float64   `json:"total_spent"`
	RegisteredAt time.Time `json:"registration_date"`
}

// TransactionStatus mirrors the lifecycle stored with each purchase.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxRefunded  TransactionStatus = "refunded"
	TxFlagged   TransactionStatus = "flagged"
	TxCancelled TransactionStatus = "cancelled"
)

// Transaction is one purchase as recorded by the ingest pipeline.
type Transaction struct {
	ID            string            `json:"id"`
	CustomerID    int64             `json:"customer_id"`
	ProductID     int64             `json:"product_id"`
	Quantity      int               `json:"quantity"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	Status        TransactionStatus `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	IPAddress     string            `json:"ip_address,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	IsSuspicious  bool              `json:"is_suspicious"`
	FraudScore    float64           `json:"fraud_score"`
}

// SuspiciousTransaction is a flagged purchase joined with who bought what.
type SuspiciousTransaction struct {
	Transaction
	CustomerEmail string `json:"customer_email,omitempty"`
	ProductName   string `json:"product_name,omitempty"`
}

// FraudStatistics aggregates suspicious transactions over a window.
type FraudStatistics struct {
	TotalSuspicious int `json:"total_suspicious"`
	HighRiskCount   int `json:"high_risk_count"`
	MediumRiskCount int `json:"medium_risk_count"`
	PeriodHours     int `json:"period_hours"`
}
