package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TechMart/internal/domain/models"
	domrepo "TechMart/internal/domain/repository"
	applogger "TechMart/pkg/logger"

	"github.com/shopspring/decimal"
)

// TransactionScorer is the part of FraudUseCase the stream handler needs.
type TransactionScorer interface {
	ScoreTransaction(ctx context.Context, t *models.Transaction) (models.FraudVerdict, error)
}

// TransactionsHandler consumes purchase events from Kafka, scores and stores
// each one and mirrors it to the analytical store when configured.
type TransactionsHandler struct {
	topic   string
	scorer  TransactionScorer
	facts   domrepo.TransactionFacts
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewTransactionsHandler(topic string, scorer TransactionScorer, facts domrepo.TransactionFacts, metrics domrepo.Metrics, l *applogger.Logger) *TransactionsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &TransactionsHandler{topic: topic, scorer: scorer, facts: facts, metrics: metrics, l: l}
}

func (h *TransactionsHandler) Topic() string { return h.topic }

// incoming message schema: {id, customer_id, product_id, quantity, unit_price, total_amount, status, payment_method, ip_address, timestamp}
type transactionMessage struct {
	ID            string          `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	ProductID     int64           `json:"product_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	IPAddress     string          `json:"ip_address"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (m transactionMessage) validate() error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: id is required", models.ErrInvalidInput)
	case m.CustomerID <= 0:
		return fmt.Errorf("%w: customer_id must be positive", models.ErrInvalidInput)
	case m.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive", models.ErrInvalidInput)
	}
	return nil
}

func (h *TransactionsHandler) Handle(ctx context.Context, b []byte) error {
	var m transactionMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode transaction: %w", err)
	}
	if err := m.validate(); err != nil {
		h.metrics.RecordError("consumer_invalid")
		return err
	}
	if !m.Timestamp.IsZero() {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(m.Timestamp).Seconds())
	}

	total := m.TotalAmount
	if total.IsZero() {
		total = m.UnitPrice.Mul(decimal.NewFromInt(int64(m.Quantity)))
	}
	status := models.TransactionStatus(m.Status)
	if status == "" {
		status = models.TxCompleted
	}
	t := &models.Transaction{
		ID:            m.ID,
		CustomerID:    m.CustomerID,
		ProductID:     m.ProductID,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		TotalAmount:   total,
		Status:        status,
		PaymentMethod: m.PaymentMethod,
		IPAddress:     m.IPAddress,
		Timestamp:     m.Timestamp.UTC(),
	}

	start := time.Now()
	verdict, err := h.scorer.ScoreTransaction(ctx, t)
	h.metrics.RecordLatency("score_transaction_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("score_transaction")
		return err
	}

	if h.facts != nil {
		if err := h.facts.RecordTransaction(ctx, t); err != nil {
			h.metrics.RecordError("facts_insert")
			return err
		}
	}
	h.l.Debug("transaction scored",
		applogger.String("transaction_id", t.ID),
		applogger.Bool("suspicious", verdict.IsSuspicious),
		applogger.Float64("fraud_score", verdict.FraudScore))
	return nil
}
