package analytics

import (
	"math"

	"TechMart/internal/domain/models"
	domsvc "TechMart/internal/domain/service"
	"TechMart/internal/services/features"
)

// ForecasterConfig holds the blend of short and long moving averages.
type ForecasterConfig struct {
	ShortWindow        int
	LongWindow         int
	ShortWeight        float64
	FullConfidenceDays int
}

// ForecasterOption configures Forecaster.
type ForecasterOption func(*ForecasterConfig)

// WithWindows sets the short and long moving average windows.
func WithWindows(short, long int) ForecasterOption {
	return func(c *ForecasterConfig) {
		if short > 0 {
			c.ShortWindow = short
		}
		if long > 0 {
			c.LongWindow = long
		}
	}
}

// WithShortWeight sets the weight of the short average; the long one gets the rest.
func WithShortWeight(w float64) ForecasterOption {
	return func(c *ForecasterConfig) {
		if w >= 0 && w <= 1 {
			c.ShortWeight = w
		}
	}
}

// WithFullConfidenceDays sets the history length that yields confidence 1.0.
func WithFullConfidenceDays(days int) ForecasterOption {
	return func(c *ForecasterConfig) {
		if days > 0 {
			c.FullConfidenceDays = days
		}
	}
}

// Forecaster is a hybrid moving-average demand model adjusted by trend and
// seasonality. It keeps no state between calls.
type Forecaster struct {
	cfg ForecasterConfig
}

// NewForecaster builds a forecaster with the 7/30-day 40/60 blend by default.
func NewForecaster(opts ...ForecasterOption) *Forecaster {
	cfg := ForecasterConfig{
		ShortWindow:        7,
		LongWindow:         30,
		ShortWeight:        0.4,
		FullConfidenceDays: 90,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Forecaster{cfg: cfg}
}

// Forecast predicts total demand over horizonDays. An empty series or a
// non-positive horizon returns the zero-data result.
func (f *Forecaster) Forecast(series []float64, horizonDays int) models.ForecastResult {
	if len(series) == 0 || horizonDays <= 0 {
		return models.ZeroForecast()
	}

	maShort := features.MovingAverage(series, f.cfg.ShortWindow)
	maLong := features.MovingAverage(series, f.cfg.LongWindow)
	base := maShort*f.cfg.ShortWeight + maLong*(1-f.cfg.ShortWeight)

	trend := features.TrendFactor(series)
	seasonality := features.SeasonalityFactor(series)

	raw := math.Floor(base * trend * seasonality * float64(horizonDays))
	predicted := 0
	if raw > 0 && !math.IsInf(raw, 0) && !math.IsNaN(raw) {
		predicted = int(raw)
	}

	confidence := math.Min(1.0, float64(len(series))/float64(f.cfg.FullConfidenceDays))

	return models.ForecastResult{
		PredictedDemand:   predicted,
		ConfidenceScore:   features.Round2(confidence),
		TrendFactor:       features.Round2(trend),
		SeasonalityFactor: features.Round2(seasonality),
	}
}

var _ domsvc.DemandForecaster = (*Forecaster)(nil)
