package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TechMart/internal/domain/models"
	domrepo "TechMart/internal/domain/repository"
	domsvc "TechMart/internal/domain/service"
	applogger "TechMart/pkg/logger"

	"github.com/shopspring/decimal"
)

const highRiskScore = 0.8

// FraudConfig holds the fraud workflow tunables.
type FraudConfig struct {
	VelocityWindow time.Duration
}

// FraudUseCase gathers risk inputs for a purchase, scores it and raises alerts.
type FraudUseCase struct {
	customers    domrepo.CustomerRepository
	transactions domrepo.TransactionRepository
	alerts       domrepo.AlertRepository
	scorer       domsvc.FraudScorer
	notifier     domrepo.Notifier
	metrics      domrepo.Metrics
	l            *applogger.Logger
	cfg          FraudConfig
	now          func() time.Time
}

func NewFraudUseCase(
	customers domrepo.CustomerRepository,
	transactions domrepo.TransactionRepository,
	alerts domrepo.AlertRepository,
	scorer domsvc.FraudScorer,
	notifier domrepo.Notifier,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	cfg FraudConfig,
) *FraudUseCase {
	if cfg.VelocityWindow <= 0 {
		cfg.VelocityWindow = 10 * time.Minute
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &FraudUseCase{
		customers:    customers,
		transactions: transactions,
		alerts:       alerts,
		scorer:       scorer,
		notifier:     notifier,
		metrics:      metrics,
		l:            l,
		cfg:          cfg,
		now:          time.Now,
	}
}

// AnalyzeTransaction scores a prospective purchase against the customer's
// recent activity and risk profile. Unknown customers score as risk 0.
func (uc *FraudUseCase) AnalyzeTransaction(ctx context.Context, customerID int64, amount decimal.Decimal, ip string) (models.FraudVerdict, error) {
	now := uc.now().UTC()
	in, err := uc.riskInput(ctx, customerID, "", amount, ip, now)
	if err != nil {
		return models.FraudVerdict{}, err
	}
	verdict := uc.scorer.Analyze(in)
	uc.metrics.RecordFraudVerdict(verdict.IsSuspicious, verdict.FraudScore)

	if verdict.IsSuspicious {
		if err := uc.raiseAlert(ctx, customerID, amount, verdict); err != nil {
			return verdict, err
		}
	}
	return verdict, nil
}

// riskInput gathers the scorer inputs. excludeID keeps a stored transaction
// out of its own velocity count.
func (uc *FraudUseCase) riskInput(ctx context.Context, customerID int64, excludeID string, amount decimal.Decimal, ip string, now time.Time) (models.TransactionRiskInput, error) {
	count, err := uc.transactions.CountRecentTransactions(ctx, customerID, now.Add(-uc.cfg.VelocityWindow), excludeID)
	if err != nil {
		return models.TransactionRiskInput{}, fmt.Errorf("velocity lookup: %w", err)
	}
	risk := 0.0
	c, err := uc.customers.GetCustomer(ctx, customerID)
	switch {
	case err == nil:
		risk = c.RiskScore
	case errors.Is(err, models.ErrNotFound):
	default:
		return models.TransactionRiskInput{}, fmt.Errorf("customer lookup: %w", err)
	}
	return models.TransactionRiskInput{
		CustomerID:             customerID,
		Amount:                 amount,
		IPAddress:              ip,
		RecentTransactionCount: count,
		CustomerRiskScore:      risk,
		CurrentHour:            now.Hour(),
	}, nil
}

func (uc *FraudUseCase) raiseAlert(ctx context.Context, customerID int64, amount decimal.Decimal, v models.FraudVerdict) error {
	severity := models.SeverityMedium
	if v.FraudScore > highRiskScore {
		severity = models.SeverityHigh
	}
	id := customerID
	a := models.Alert{
		AlertType:  models.AlertFraud,
		Severity:   severity,
		Title:      fmt.Sprintf("Suspicious Transaction: Customer %d", customerID),
		Message:    fmt.Sprintf("Transaction of $%s flagged with fraud score %.2f. Reason: %s", amount.StringFixed(2), v.FraudScore, v.Reason),
		EntityType: "customer",
		EntityID:   &id,
	}
	if err := uc.alerts.CreateAlert(ctx, &a); err != nil {
		return fmt.Errorf("create fraud alert: %w", err)
	}
	uc.metrics.RecordAlert(a.AlertType, string(a.Severity))
	uc.l.Warn("suspicious transaction",
		applogger.Int64("customer_id", customerID),
		applogger.Float64("fraud_score", v.FraudScore),
		applogger.String("reason", v.Reason))

	if uc.notifier != nil {
		ev := models.Event{Type: models.EventFraudDetected, Data: map[string]interface{}{
			"customer_id": customerID,
			"amount":      amount,
			"fraud_score": v.FraudScore,
			"reason":      v.Reason,
			"alert_id":    a.ID,
			"alert_title": a.Title,
			"severity":    a.Severity,
		}}
		if err := uc.notifier.Notify(ctx, ev); err != nil {
			uc.l.Warn("notify failed", applogger.String("type", ev.Type), applogger.Error(err))
		}
	}
	return nil
}

// VelocityCheck reports a customer's transaction count in a window.
type VelocityCheck struct {
	CustomerID       int64 `json:"customer_id"`
	TransactionCount int   `json:"transaction_count"`
	WindowMinutes    int   `json:"window_minutes"`
	Threshold        int   `json:"threshold"`
	IsHighVelocity   bool  `json:"is_high_velocity"`
}

func (uc *FraudUseCase) CheckVelocity(ctx context.Context, customerID int64, windowMinutes, threshold int) (VelocityCheck, error) {
	if windowMinutes <= 0 || threshold <= 0 {
		return VelocityCheck{}, fmt.Errorf("%w: window and threshold must be positive", models.ErrInvalidInput)
	}
	since := uc.now().UTC().Add(-time.Duration(windowMinutes) * time.Minute)
	n, err := uc.transactions.CountRecentTransactions(ctx, customerID, since, "")
	if err != nil {
		return VelocityCheck{}, err
	}
	return VelocityCheck{
		CustomerID:       customerID,
		TransactionCount: n,
		WindowMinutes:    windowMinutes,
		Threshold:        threshold,
		IsHighVelocity:   n >= threshold,
	}, nil
}

// Statistics summarizes suspicious transactions over the last hours hours.
func (uc *FraudUseCase) Statistics(ctx context.Context, hours int) (models.FraudStatistics, error) {
	if hours <= 0 {
		return models.FraudStatistics{}, fmt.Errorf("%w: hours must be positive", models.ErrInvalidInput)
	}
	st, err := uc.transactions.FraudStatistics(ctx, uc.now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return st, err
	}
	st.PeriodHours = hours
	return st, nil
}

// SuspiciousTransactions lists flagged purchases from the last hours hours.
func (uc *FraudUseCase) SuspiciousTransactions(ctx context.Context, hours, skip, limit int) ([]models.SuspiciousTransaction, error) {
	if hours <= 0 || limit <= 0 || skip < 0 {
		return nil, fmt.Errorf("%w: hours and limit must be positive, skip non-negative", models.ErrInvalidInput)
	}
	since := uc.now().UTC().Add(-time.Duration(hours) * time.Hour)
	out, err := uc.transactions.ListSuspiciousTransactions(ctx, since, skip, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.SuspiciousTransaction{}
	}
	return out, nil
}

// ScoreTransaction scores a purchase from the stream and stores it with its
// verdict. The transaction never counts toward its own velocity, so a
// redelivered message scores the same as the first delivery and does not
// raise a second alert.
func (uc *FraudUseCase) ScoreTransaction(ctx context.Context, t *models.Transaction) (models.FraudVerdict, error) {
	at := t.Timestamp
	if at.IsZero() {
		at = uc.now()
		t.Timestamp = at.UTC()
	}
	prior, err := uc.transactions.GetTransaction(ctx, t.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		prior = nil
	case err != nil:
		return models.FraudVerdict{}, fmt.Errorf("load transaction: %w", err)
	}

	in, err := uc.riskInput(ctx, t.CustomerID, t.ID, t.TotalAmount, t.IPAddress, at.UTC())
	if err != nil {
		return models.FraudVerdict{}, err
	}
	verdict := uc.scorer.Analyze(in)
	if prior == nil {
		uc.metrics.RecordFraudVerdict(verdict.IsSuspicious, verdict.FraudScore)
	}

	t.IsSuspicious = verdict.IsSuspicious
	t.FraudScore = verdict.FraudScore
	if verdict.IsSuspicious && t.Status == models.TxPending {
		t.Status = models.TxFlagged
	}
	if err := uc.transactions.SaveTransaction(ctx, t); err != nil {
		return verdict, err
	}
	if !verdict.IsSuspicious {
		return verdict, nil
	}

	if prior != nil && prior.IsSuspicious {
		raised, err := uc.alerts.HasRecentUnresolvedAlert(ctx, models.AlertFraud, t.CustomerID, prior.Timestamp)
		if err != nil {
			return verdict, fmt.Errorf("fraud alert lookup: %w", err)
		}
		if raised {
			uc.l.Debug("fraud alert already raised",
				applogger.String("transaction_id", t.ID),
				applogger.Int64("customer_id", t.CustomerID))
			return verdict, nil
		}
	}
	if err := uc.raiseAlert(ctx, t.CustomerID, t.TotalAmount, verdict); err != nil {
		return verdict, err
	}
	return verdict, nil
}
