package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"TechMart/internal/domain/models"
	domsvc "TechMart/internal/domain/service"
	"TechMart/internal/services/features"
)

// FraudConfig holds the rule thresholds and weights.
type FraudConfig struct {
	VelocityThreshold     int
	VelocityWindowMinutes int
	VelocityWeight        float64

	LargeAmount  decimal.Decimal
	AmountWeight float64

	RiskScoreThreshold float64
	RiskScoreWeight    float64

	LateHourStart  int
	LateHourEnd    int
	LateHourWeight float64

	SuspiciousThreshold float64
}

// DefaultFraudConfig returns the production rule set.
func DefaultFraudConfig() FraudConfig {
	return FraudConfig{
		VelocityThreshold:     5,
		VelocityWindowMinutes: 10,
		VelocityWeight:        0.4,
		LargeAmount:           decimal.NewFromInt(5000),
		AmountWeight:          0.3,
		RiskScoreThreshold:    0.5,
		RiskScoreWeight:       0.3,
		LateHourStart:         2,
		LateHourEnd:           5,
		LateHourWeight:        0.2,
		SuspiciousThreshold:   0.6,
	}
}

// Signal evaluates one independent risk rule. It returns the score
// contribution and a reason when the rule fires.
type Signal func(in models.TransactionRiskInput) (float64, string, bool)

// VelocitySignal fires on bursts of recent transactions.
func VelocitySignal(cfg FraudConfig) Signal {
	return func(in models.TransactionRiskInput) (float64, string, bool) {
		if in.RecentTransactionCount < cfg.VelocityThreshold {
			return 0, "", false
		}
		return cfg.VelocityWeight, fmt.Sprintf("High velocity: %d transactions in %d minutes",
			in.RecentTransactionCount, cfg.VelocityWindowMinutes), true
	}
}

// AmountSignal fires on unusually large purchases.
func AmountSignal(cfg FraudConfig) Signal {
	return func(in models.TransactionRiskInput) (float64, string, bool) {
		if !in.Amount.GreaterThan(cfg.LargeAmount) {
			return 0, "", false
		}
		return cfg.AmountWeight, "Large amount: $" + in.Amount.StringFixed(2), true
	}
}

// CustomerRiskSignal scales with the customer's stored risk profile.
func CustomerRiskSignal(cfg FraudConfig) Signal {
	return func(in models.TransactionRiskInput) (float64, string, bool) {
		if in.CustomerRiskScore <= cfg.RiskScoreThreshold {
			return 0, "", false
		}
		return in.CustomerRiskScore * cfg.RiskScoreWeight,
			"High customer risk score: " + strconv.FormatFloat(in.CustomerRiskScore, 'f', -1, 64), true
	}
}

// LateHourSignal fires for purchases in the late night window (inclusive).
func LateHourSignal(cfg FraudConfig) Signal {
	return func(in models.TransactionRiskInput) (float64, string, bool) {
		if in.CurrentHour < cfg.LateHourStart || in.CurrentHour > cfg.LateHourEnd {
			return 0, "", false
		}
		return cfg.LateHourWeight, "Unusual hour: Late night transaction", true
	}
}

// FraudScorerOption configures FraudScorer.
type FraudScorerOption func(*FraudScorer)

// WithFraudConfig replaces the thresholds and rebuilds the default signals.
func WithFraudConfig(cfg FraudConfig) FraudScorerOption {
	return func(s *FraudScorer) {
		s.cfg = cfg
		s.signals = defaultSignals(cfg)
	}
}

// WithSignals overrides the signal list. Order only affects reason order.
func WithSignals(signals ...Signal) FraudScorerOption {
	return func(s *FraudScorer) {
		s.signals = signals
	}
}

// FraudScorer sums independent rule contributions into a capped score.
type FraudScorer struct {
	cfg     FraudConfig
	signals []Signal
}

func NewFraudScorer(opts ...FraudScorerOption) *FraudScorer {
	cfg := DefaultFraudConfig()
	s := &FraudScorer{cfg: cfg, signals: defaultSignals(cfg)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signals returns the rules evaluated for cfg in their default order.
func Signals(cfg FraudConfig) []Signal {
	return defaultSignals(cfg)
}

func defaultSignals(cfg FraudConfig) []Signal {
	return []Signal{
		VelocitySignal(cfg),
		AmountSignal(cfg),
		CustomerRiskSignal(cfg),
		LateHourSignal(cfg),
	}
}

// Analyze evaluates every signal; there is no early exit.
func (s *FraudScorer) Analyze(in models.TransactionRiskInput) models.FraudVerdict {
	var (
		total   float64
		reasons []string
	)
	for _, signal := range s.signals {
		contribution, reason, fired := signal(in)
		if !fired {
			continue
		}
		total += contribution
		reasons = append(reasons, reason)
	}

	score := math.Min(total, 1.0)
	if score < 0 || math.IsNaN(score) {
		score = 0
	}

	reason := models.NoFraudIndicators
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}

	return models.FraudVerdict{
		IsSuspicious: score >= s.cfg.SuspiciousThreshold,
		FraudScore:   features.Round2(score),
		Reason:       reason,
	}
}

var _ domsvc.FraudScorer = (*FraudScorer)(nil)
