package analytics

import (
	"testing"

	"TechMart/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func constantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestForecastEmptySeries(t *testing.T) {
	f := NewForecaster()
	for _, h := range []int{-3, 0, 1, 7, 90} {
		assert.Equal(t, models.ZeroForecast(), f.Forecast(nil, h), "horizon %d", h)
	}
}

func TestForecastNonPositiveHorizon(t *testing.T) {
	f := NewForecaster()
	assert.Equal(t, models.ZeroForecast(), f.Forecast([]float64{5, 5, 5}, 0))
	assert.Equal(t, models.ZeroForecast(), f.Forecast([]float64{5, 5, 5}, -1))
}

func TestForecastFlatHistory(t *testing.T) {
	f := NewForecaster()
	got := f.Forecast(constantSeries(90, 10), 7)

	assert.Equal(t, 70, got.PredictedDemand)
	assert.Equal(t, 1.0, got.ConfidenceScore)
	assert.Equal(t, 1.0, got.TrendFactor)
	assert.Equal(t, 1.0, got.SeasonalityFactor)
}

func TestForecastConfidenceRamp(t *testing.T) {
	f := NewForecaster()
	tests := []struct {
		days int
		want float64
	}{
		{1, 0.01},
		{45, 0.5},
		{90, 1.0},
		{180, 1.0},
	}
	for _, tt := range tests {
		got := f.Forecast(constantSeries(tt.days, 4), 7)
		assert.Equal(t, tt.want, got.ConfidenceScore, "days %d", tt.days)
	}
}

func TestForecastBlendsShortAndLongAverages(t *testing.T) {
	// 23 days of 0 followed by 7 days of 10: ma7=10, ma30=7/3.
	series := append(constantSeries(23, 0), constantSeries(7, 10)...)
	f := NewForecaster()
	got := f.Forecast(series, 1)

	// The first half mean is 0, so trend stays neutral.
	assert.Equal(t, 1.0, got.TrendFactor)
	assert.GreaterOrEqual(t, got.SeasonalityFactor, 0.8)
	assert.LessOrEqual(t, got.SeasonalityFactor, 1.3)
	assert.GreaterOrEqual(t, got.PredictedDemand, 0)
}

func TestForecastMonotonicInHorizon(t *testing.T) {
	series := []float64{3, 8, 2, 9, 4, 4, 7, 1, 6, 5, 12, 3, 8, 7}
	f := NewForecaster()
	prev := -1
	for h := 1; h <= 90; h++ {
		got := f.Forecast(series, h)
		assert.GreaterOrEqual(t, got.PredictedDemand, prev, "horizon %d", h)
		prev = got.PredictedDemand
	}
}

func TestForecastCustomWindows(t *testing.T) {
	series := append(constantSeries(6, 1), constantSeries(6, 9)...)
	f := NewForecaster(WithWindows(3, 3), WithShortWeight(1))
	got := f.Forecast(series, 2)

	// ma=9, trend clamps to 2.0, seasonality bounded.
	assert.Equal(t, 2.0, got.TrendFactor)
	assert.GreaterOrEqual(t, got.PredictedDemand, 36)
}
