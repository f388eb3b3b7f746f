package analytics

import (
	"fmt"
	"math"
	"time"

	"TechMart/internal/domain/models"
	domsvc "TechMart/internal/domain/service"
	"TechMart/internal/services/features"
)

// NoStockoutDays is used when demand is zero and stock never runs out.
const NoStockoutDays = 999.0

// PlannerConfig holds reorder policy parameters.
type PlannerConfig struct {
	HorizonDays     int
	SafetyStockDays float64
	DefaultLeadTime int
}

// PlannerOption configures ReorderPlanner.
type PlannerOption func(*PlannerConfig)

// WithHorizon sets the forecast horizon used for daily demand and urgency.
func WithHorizon(days int) PlannerOption {
	return func(c *PlannerConfig) {
		if days > 0 {
			c.HorizonDays = days
		}
	}
}

// WithSafetyStockDays sets how many days of demand are held as buffer.
func WithSafetyStockDays(days float64) PlannerOption {
	return func(c *PlannerConfig) {
		if days >= 0 {
			c.SafetyStockDays = days
		}
	}
}

// WithDefaultLeadTime sets the lead time assumed when a supplier has none on record.
func WithDefaultLeadTime(days int) PlannerOption {
	return func(c *PlannerConfig) {
		if days > 0 {
			c.DefaultLeadTime = days
		}
	}
}

// ReorderPlanner decides whether and how much to reorder for a product.
type ReorderPlanner struct {
	cfg        PlannerConfig
	forecaster domsvc.DemandForecaster
	selector   domsvc.SupplierSelector
}

func NewReorderPlanner(forecaster domsvc.DemandForecaster, selector domsvc.SupplierSelector, opts ...PlannerOption) *ReorderPlanner {
	cfg := PlannerConfig{
		HorizonDays:     14,
		SafetyStockDays: 3,
		DefaultLeadTime: 7,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ReorderPlanner{cfg: cfg, forecaster: forecaster, selector: selector}
}

// HorizonDays returns the planning horizon.
func (p *ReorderPlanner) HorizonDays() int { return p.cfg.HorizonDays }

// GenerateSuggestion returns a pending suggestion for a product whose stock is
// below its reorder threshold, together with the forecast it was built on.
// ok is false when no reorder is needed.
func (p *ReorderPlanner) GenerateSuggestion(in domsvc.PlanInput) (*models.ReorderSuggestion, models.ForecastResult, bool) {
	product := in.Product
	if !product.IsLowStock() {
		return nil, models.ForecastResult{}, false
	}

	horizon := p.cfg.HorizonDays
	forecast := p.forecaster.Forecast(in.History.Values(), horizon)

	supplierID, leadTime := p.pickSupplier(product, in.Candidates)

	dailyDemand := float64(forecast.PredictedDemand) / float64(horizon)
	safetyStock := math.Floor(dailyDemand * p.cfg.SafetyStockDays)
	quantity := int(math.Floor(dailyDemand*float64(leadTime)) + safetyStock)
	if quantity < product.ReorderQuantity {
		quantity = product.ReorderQuantity
	}
	if quantity < 1 {
		quantity = 1
	}

	daysUntilStockout := NoStockoutDays
	if dailyDemand > 0 {
		daysUntilStockout = float64(product.StockQuantity) / dailyDemand
	}
	urgency := features.Clamp(1.0-daysUntilStockout/float64(horizon), 0, 1)

	today := in.Today
	if today.IsZero() {
		today = time.Now()
	}
	stockout := features.TruncateDay(today).AddDate(0, 0, int(math.Floor(daysUntilStockout)))

	return &models.ReorderSuggestion{
		ProductID:             product.ID,
		SuggestedQuantity:     quantity,
		SuggestedSupplierID:   supplierID,
		UrgencyScore:          features.Round2(urgency),
		EstimatedStockoutDate: stockout,
		Reasoning:             reasoning(product.StockQuantity, dailyDemand, leadTime, forecast.ConfidenceScore),
		Status:                models.StatusPending,
	}, forecast, true
}

// pickSupplier selects among candidates and falls back to the product's
// current supplier when there are none.
func (p *ReorderPlanner) pickSupplier(product models.Product, candidates []models.SupplierCandidate) (*int64, int) {
	leadTime := p.cfg.DefaultLeadTime
	if best, ok := p.selector.SelectOptimalSupplier(candidates); ok {
		id := best.ID
		if best.AverageDeliveryDays != nil {
			leadTime = *best.AverageDeliveryDays
		}
		return &id, leadTime
	}
	if product.Supplier != nil {
		id := product.Supplier.ID
		if product.Supplier.AverageDeliveryDays != nil {
			leadTime = *product.Supplier.AverageDeliveryDays
		}
		return &id, leadTime
	}
	if product.SupplierID != 0 {
		id := product.SupplierID
		return &id, leadTime
	}
	return nil, leadTime
}

func reasoning(stock int, dailyDemand float64, leadTime int, confidence float64) string {
	return fmt.Sprintf("Current stock: %d, Daily demand: %d, Lead time: %d days, Forecast confidence: %.2f",
		stock, int(dailyDemand), leadTime, confidence)
}

var _ domsvc.ReorderPlanner = (*ReorderPlanner)(nil)
