package usecase

import (
	"context"
	"fmt"
	"time"

	"TechMart/internal/domain/models"
	domrepo "TechMart/internal/domain/repository"
	applogger "TechMart/pkg/logger"
)

const (
	criticalStockFraction = 0.2
	alertDedupWindow      = 24 * time.Hour
)

// StockMonitor raises low-stock alerts for products near or at zero stock.
type StockMonitor struct {
	products domrepo.ProductRepository
	alerts   domrepo.AlertRepository
	notifier domrepo.Notifier
	metrics  domrepo.Metrics
	l        *applogger.Logger
	now      func() time.Time
}

func NewStockMonitor(products domrepo.ProductRepository, alerts domrepo.AlertRepository, notifier domrepo.Notifier, metrics domrepo.Metrics, l *applogger.Logger) *StockMonitor {
	if l == nil {
		l = applogger.Nop()
	}
	return &StockMonitor{products: products, alerts: alerts, notifier: notifier, metrics: metrics, l: l, now: time.Now}
}

// CheckStockLevels alerts on every product at or below 20% of its reorder
// threshold, unless an open alert for it was raised in the last 24 hours.
func (m *StockMonitor) CheckStockLevels(ctx context.Context) (models.StockCheckResult, error) {
	var res models.StockCheckResult
	products, err := m.products.ListCriticalStock(ctx, criticalStockFraction)
	if err != nil {
		return res, err
	}
	res.CriticalProducts = len(products)

	since := m.now().Add(-alertDedupWindow)
	for i := range products {
		p := &products[i]
		recent, err := m.alerts.HasRecentUnresolvedAlert(ctx, models.AlertLowStock, p.ID, since)
		if err != nil {
			return res, err
		}
		if recent {
			continue
		}

		a := stockAlert(p)
		if err := m.alerts.CreateAlert(ctx, &a); err != nil {
			return res, err
		}
		res.AlertsCreated++
		m.metrics.RecordAlert(a.AlertType, string(a.Severity))
		if m.notifier != nil {
			if err := m.notifier.Notify(ctx, models.Event{Type: models.EventAlertCreated, Data: a}); err != nil {
				m.l.Warn("notify failed", applogger.String("type", models.EventAlertCreated), applogger.Error(err))
			}
		}
	}
	m.l.Info("stock check finished",
		applogger.Int("critical", res.CriticalProducts),
		applogger.Int("alerts", res.AlertsCreated))
	return res, nil
}

func stockAlert(p *models.Product) models.Alert {
	pct := 0.0
	if p.ReorderThreshold > 0 {
		pct = float64(p.StockQuantity) / float64(p.ReorderThreshold) * 100
	}
	id := p.ID
	a := models.Alert{
		AlertType:  models.AlertLowStock,
		EntityType: "product",
		EntityID:   &id,
	}
	switch {
	case p.StockQuantity == 0:
		a.Severity = models.SeverityCritical
		a.Title = "Out of Stock: " + p.Name
		a.Message = fmt.Sprintf("Product %s (SKU: %s) is completely out of stock. Immediate reorder required.", p.Name, p.SKU)
	case pct <= 10:
		a.Severity = models.SeverityHigh
		a.Title = "Critical Stock Level: " + p.Name
		a.Message = fmt.Sprintf("Product %s (SKU: %s) has only %d units remaining. Urgent reorder needed.", p.Name, p.SKU, p.StockQuantity)
	default:
		a.Severity = models.SeverityMedium
		a.Title = "Low Stock Warning: " + p.Name
		a.Message = fmt.Sprintf("Product %s (SKU: %s) is running low with %d units. Consider reordering soon.", p.Name, p.SKU, p.StockQuantity)
	}
	return a
}
