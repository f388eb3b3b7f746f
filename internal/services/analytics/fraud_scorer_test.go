package analytics

import (
	"sort"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"TechMart/internal/domain/models"
)

func riskInput(velocity int, amount string, risk float64, hour int) models.TransactionRiskInput {
	return models.TransactionRiskInput{
		CustomerID:             1,
		Amount:                 decimal.RequireFromString(amount),
		RecentTransactionCount: velocity,
		CustomerRiskScore:      risk,
		CurrentHour:            hour,
	}
}

func TestFraudAnalyze(t *testing.T) {
	s := NewFraudScorer()
	tests := []struct {
		name       string
		in         models.TransactionRiskInput
		score      float64
		suspicious bool
		reason     string
	}{
		{
			name:   "clean",
			in:     riskInput(0, "49.99", 0.1, 12),
			score:  0,
			reason: models.NoFraudIndicators,
		},
		{
			name:   "velocity only",
			in:     riskInput(6, "150", 0.2, 14),
			score:  0.4,
			reason: "High velocity: 6 transactions in 10 minutes",
		},
		{
			name:       "amount risk and hour",
			in:         riskInput(1, "7500", 0.8, 3),
			score:      0.74,
			suspicious: true,
			reason:     "Large amount: $7500.00; High customer risk score: 0.8; Unusual hour: Late night transaction",
		},
		{
			name:       "everything fires and caps",
			in:         riskInput(12, "9000.5", 0.9, 2),
			score:      1.0,
			suspicious: true,
			reason:     "High velocity: 12 transactions in 10 minutes; Large amount: $9000.50; High customer risk score: 0.9; Unusual hour: Late night transaction",
		},
		{
			name:       "velocity plus late hour hits threshold",
			in:         riskInput(5, "10", 0, 5),
			score:      0.6,
			suspicious: true,
			reason:     "High velocity: 5 transactions in 10 minutes; Unusual hour: Late night transaction",
		},
		{
			name:   "boundaries do not fire",
			in:     riskInput(4, "5000", 0.5, 6),
			score:  0,
			reason: models.NoFraudIndicators,
		},
		{
			name:   "hour one is not late night",
			in:     riskInput(0, "1", 0, 1),
			score:  0,
			reason: models.NoFraudIndicators,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := s.Analyze(tt.in)
			assert.Equal(t, tt.score, v.FraudScore)
			assert.Equal(t, tt.suspicious, v.IsSuspicious)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestFraudAnalyzeOrderIndependent(t *testing.T) {
	cfg := DefaultFraudConfig()
	base := Signals(cfg)
	in := riskInput(7, "6200", 0.75, 4)

	want := NewFraudScorer().Analyze(in)
	wantParts := reasonSet(want.Reason)

	for _, perm := range permutations(len(base)) {
		signals := make([]Signal, len(perm))
		for i, idx := range perm {
			signals[i] = base[idx]
		}
		got := NewFraudScorer(WithSignals(signals...)).Analyze(in)
		assert.Equal(t, want.FraudScore, got.FraudScore, "perm %v", perm)
		assert.Equal(t, want.IsSuspicious, got.IsSuspicious, "perm %v", perm)
		assert.Equal(t, wantParts, reasonSet(got.Reason), "perm %v", perm)
	}
}

// The verdict uses the unrounded total, so a score that only rounds up to
// the threshold stays unsuspicious.
func TestFraudThresholdUsesUnroundedScore(t *testing.T) {
	s := NewFraudScorer()

	// velocity 0.4 + risk 0.665*0.3 = 0.5995
	below := s.Analyze(riskInput(5, "10", 0.665, 12))
	assert.Equal(t, 0.6, below.FraudScore)
	assert.False(t, below.IsSuspicious)

	// velocity 0.4 + risk 0.67*0.3 = 0.601
	above := s.Analyze(riskInput(5, "10", 0.67, 12))
	assert.Equal(t, 0.6, above.FraudScore)
	assert.True(t, above.IsSuspicious)
}

func TestFraudCustomConfig(t *testing.T) {
	cfg := DefaultFraudConfig()
	cfg.VelocityThreshold = 3
	cfg.VelocityWindowMinutes = 5
	s := NewFraudScorer(WithFraudConfig(cfg))

	v := s.Analyze(riskInput(3, "20", 0, 12))
	assert.Equal(t, 0.4, v.FraudScore)
	assert.Equal(t, "High velocity: 3 transactions in 5 minutes", v.Reason)
}

func reasonSet(reason string) []string {
	parts := strings.Split(reason, "; ")
	sort.Strings(parts)
	return parts
}

func permutations(n int) [][]int {
	var out [][]int
	var walk func(prefix []int, used []bool)
	walk = func(prefix []int, used []bool) {
		if len(prefix) == n {
			out = append(out, append([]int(nil), prefix...))
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			walk(append(prefix, i), used)
			used[i] = false
		}
	}
	walk(nil, make([]bool, n))
	return out
}
