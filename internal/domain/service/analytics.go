package service

import (
	"time"

	"TechMart/internal/domain/models"
)

// DemandForecaster predicts demand over a horizon from daily history.
type DemandForecaster interface {
	Forecast(series []float64, horizonDays int) models.ForecastResult
}

// SupplierSelector picks the best supplier among candidates.
type SupplierSelector interface {
	SelectOptimalSupplier(candidates []models.SupplierCandidate) (models.SupplierCandidate, bool)
}

// ReorderPlanner turns stock, history and suppliers into a reorder suggestion.
type ReorderPlanner interface {
	GenerateSuggestion(in PlanInput) (*models.ReorderSuggestion, models.ForecastResult, bool)
}

// FraudScorer assigns a risk verdict to a purchase attempt.
type FraudScorer interface {
	Analyze(in models.TransactionRiskInput) models.FraudVerdict
}

// PlanInput carries the data the planner needs for one product.
type PlanInput struct {
	Product    models.Product
	History    models.DemandSeries
	Candidates []models.SupplierCandidate
	Today      time.Time
}
