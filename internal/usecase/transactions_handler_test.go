package usecase

import (
	"context"
	"errors"
	"testing"

	"TechMart/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	got     []models.Transaction
	verdict models.FraudVerdict
	err     error
}

func (s *stubScorer) ScoreTransaction(_ context.Context, t *models.Transaction) (models.FraudVerdict, error) {
	s.got = append(s.got, *t)
	return s.verdict, s.err
}

type recordingFacts struct {
	ids []string
}

func (r *recordingFacts) RecordTransaction(_ context.Context, t *models.Transaction) error {
	r.ids = append(r.ids, t.ID)
	return nil
}

func TestTransactionsHandler(t *testing.T) {
	scorer := &stubScorer{verdict: models.FraudVerdict{FraudScore: 0.2}}
	facts := &recordingFacts{}
	metrics := newFakeMetrics()
	h := NewTransactionsHandler("techmart.transactions", scorer, facts, metrics, nil)
	assert.Equal(t, "techmart.transactions", h.Topic())

	msg := `{"id":"tx-9","customer_id":4,"product_id":12,"quantity":3,"unit_price":"19.99",
		"payment_method":"card","ip_address":"10.1.1.1","timestamp":"2024-03-10T12:00:00Z"}`
	require.NoError(t, h.Handle(context.Background(), []byte(msg)))

	require.Len(t, scorer.got, 1)
	got := scorer.got[0]
	assert.Equal(t, "tx-9", got.ID)
	assert.Equal(t, models.TxCompleted, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("59.97")))
	assert.Equal(t, []string{"tx-9"}, facts.ids)
}

func TestTransactionsHandlerRejects(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		kind string
	}{
		{"not json", `{"id":`, "consumer_unmarshal"},
		{"missing id", `{"customer_id":1,"quantity":1}`, "consumer_invalid"},
		{"bad quantity", `{"id":"x","customer_id":1,"quantity":0}`, "consumer_invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := newFakeMetrics()
			scorer := &stubScorer{}
			h := NewTransactionsHandler("t", scorer, nil, metrics, nil)
			assert.Error(t, h.Handle(context.Background(), []byte(tt.msg)))
			assert.Equal(t, 1, metrics.errors[tt.kind])
			assert.Empty(t, scorer.got)
		})
	}
}

func TestTransactionsHandlerScorerError(t *testing.T) {
	boom := errors.New("db down")
	facts := &recordingFacts{}
	h := NewTransactionsHandler("t", &stubScorer{err: boom}, facts, newFakeMetrics(), nil)

	err := h.Handle(context.Background(), []byte(`{"id":"a","customer_id":1,"quantity":1,"total_amount":5}`))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, facts.ids, "nothing is mirrored for a transaction that was not stored")
}
