package analytics

import (
	"testing"
	"time"

	"TechMart/internal/domain/models"
	domsvc "TechMart/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedForecaster struct {
	result  models.ForecastResult
	horizon int
}

func (f *fixedForecaster) Forecast(_ []float64, horizonDays int) models.ForecastResult {
	f.horizon = horizonDays
	return f.result
}

var planDay = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func TestGenerateSuggestionWorkedExample(t *testing.T) {
	fc := &fixedForecaster{result: models.ForecastResult{PredictedDemand: 140, ConfidenceScore: 0.85, TrendFactor: 1, SeasonalityFactor: 1}}
	p := NewReorderPlanner(fc, NewSupplierScorer())

	s, forecast, ok := p.GenerateSuggestion(domsvc.PlanInput{
		Product: models.Product{ID: 7, StockQuantity: 10, ReorderThreshold: 50, ReorderQuantity: 100},
		Candidates: []models.SupplierCandidate{
			{ID: 3, ReliabilityScore: floatPtr(0.9), AverageDeliveryDays: intPtr(5)},
		},
		Today: planDay,
	})
	require.True(t, ok)
	require.NotNil(t, s)

	assert.Equal(t, 14, fc.horizon)
	assert.Equal(t, 140, forecast.PredictedDemand)
	assert.Equal(t, int64(7), s.ProductID)
	assert.Equal(t, 100, s.SuggestedQuantity)
	assert.Equal(t, 0.93, s.UrgencyScore)
	require.NotNil(t, s.SuggestedSupplierID)
	assert.Equal(t, int64(3), *s.SuggestedSupplierID)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), s.EstimatedStockoutDate)
	assert.Equal(t, models.StatusPending, s.Status)
	assert.Equal(t, "Current stock: 10, Daily demand: 10, Lead time: 5 days, Forecast confidence: 0.85", s.Reasoning)
}

func TestGenerateSuggestionQuantityAboveMinimum(t *testing.T) {
	fc := &fixedForecaster{result: models.ForecastResult{PredictedDemand: 280}}
	p := NewReorderPlanner(fc, NewSupplierScorer())

	s, _, ok := p.GenerateSuggestion(domsvc.PlanInput{
		Product:    models.Product{ID: 1, StockQuantity: 5, ReorderThreshold: 20, ReorderQuantity: 50},
		Candidates: []models.SupplierCandidate{{ID: 2, AverageDeliveryDays: intPtr(10)}},
		Today:      planDay,
	})
	require.True(t, ok)
	// daily 20, lead 10, safety 60
	assert.Equal(t, 260, s.SuggestedQuantity)
	assert.Equal(t, 0.98, s.UrgencyScore)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), s.EstimatedStockoutDate)
}

func TestGenerateSuggestionNotNeeded(t *testing.T) {
	fc := &fixedForecaster{result: models.ForecastResult{PredictedDemand: 1000}}
	p := NewReorderPlanner(fc, NewSupplierScorer())

	for _, stock := range []int{50, 51, 500} {
		s, _, ok := p.GenerateSuggestion(domsvc.PlanInput{
			Product: models.Product{ID: 1, StockQuantity: stock, ReorderThreshold: 50, ReorderQuantity: 10},
			Today:   planDay,
		})
		assert.False(t, ok, "stock %d", stock)
		assert.Nil(t, s)
	}
	assert.Zero(t, fc.horizon, "forecast should not run when stock is sufficient")
}

func TestGenerateSuggestionZeroDemand(t *testing.T) {
	p := NewReorderPlanner(NewForecaster(), NewSupplierScorer())

	s, forecast, ok := p.GenerateSuggestion(domsvc.PlanInput{
		Product: models.Product{ID: 1, StockQuantity: 3, ReorderThreshold: 10, ReorderQuantity: 50},
		Today:   planDay,
	})
	require.True(t, ok)
	assert.Equal(t, models.ZeroForecast(), forecast)
	assert.Equal(t, 50, s.SuggestedQuantity)
	assert.Equal(t, 0.0, s.UrgencyScore)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 999), s.EstimatedStockoutDate)
	assert.Nil(t, s.SuggestedSupplierID)
}

func TestGenerateSuggestionFallsBackToProductSupplier(t *testing.T) {
	fc := &fixedForecaster{result: models.ForecastResult{PredictedDemand: 28}}
	p := NewReorderPlanner(fc, NewSupplierScorer())

	s, _, ok := p.GenerateSuggestion(domsvc.PlanInput{
		Product: models.Product{
			ID: 1, StockQuantity: 4, ReorderThreshold: 10, ReorderQuantity: 1,
			SupplierID: 9,
			Supplier:   &models.Supplier{ID: 9, AverageDeliveryDays: intPtr(3)},
		},
		Today: planDay,
	})
	require.True(t, ok)
	require.NotNil(t, s.SuggestedSupplierID)
	assert.Equal(t, int64(9), *s.SuggestedSupplierID)
	// daily 2, lead 3, safety 6
	assert.Equal(t, 12, s.SuggestedQuantity)
	assert.Contains(t, s.Reasoning, "Lead time: 3 days")
}

func TestGenerateSuggestionDefaultLeadTime(t *testing.T) {
	fc := &fixedForecaster{result: models.ForecastResult{PredictedDemand: 14}}
	p := NewReorderPlanner(fc, NewSupplierScorer())

	s, _, ok := p.GenerateSuggestion(domsvc.PlanInput{
		Product:    models.Product{ID: 1, StockQuantity: 0, ReorderThreshold: 10},
		Candidates: []models.SupplierCandidate{{ID: 4}},
		Today:      planDay,
	})
	require.True(t, ok)
	// daily 1, lead 7, safety 3
	assert.Equal(t, 10, s.SuggestedQuantity)
	assert.Equal(t, 1.0, s.UrgencyScore)
}

func TestGenerateSuggestionCustomHorizon(t *testing.T) {
	fc := &fixedForecaster{result: models.ForecastResult{PredictedDemand: 70}}
	p := NewReorderPlanner(fc, NewSupplierScorer(), WithHorizon(7))

	s, _, ok := p.GenerateSuggestion(domsvc.PlanInput{
		Product: models.Product{ID: 1, StockQuantity: 35, ReorderThreshold: 40, ReorderQuantity: 1},
		Today:   planDay,
	})
	require.True(t, ok)
	assert.Equal(t, 7, fc.horizon)
	// daily 10, 3.5 days left of a 7 day horizon
	assert.Equal(t, 0.5, s.UrgencyScore)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), s.EstimatedStockoutDate)
}
