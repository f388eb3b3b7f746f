package features

import (
	"math"
	"time"

	"TechMart/internal/domain/models"
)

const (
	// NeutralFactor is returned whenever trend or seasonality cannot be estimated.
	NeutralFactor = 1.0

	MinTrendFactor       = 0.5
	MaxTrendFactor       = 2.0
	MinSeasonalityFactor = 0.8
	MaxSeasonalityFactor = 1.3

	// seasonalityWeight scales the coefficient of variation into the factor.
	seasonalityWeight = 0.2
	// minSeasonalityPoints is one week of history.
	minSeasonalityPoints = 7
)

// MovingAverage returns the mean of the last window points. Shorter series
// are averaged whole; an empty series yields 0.
func MovingAverage(series []float64, window int) float64 {
	if len(series) == 0 {
		return 0
	}
	if window <= 0 || len(series) < window {
		return Mean(series)
	}
	return Mean(series[len(series)-window:])
}

// TrendFactor compares the mean of the second half of the series against the
// first half. With an odd length the middle point belongs to the second half.
// The ratio is clamped to [0.5, 2.0]; degenerate input is neutral.
func TrendFactor(series []float64) float64 {
	if len(series) < 2 {
		return NeutralFactor
	}
	mid := len(series) / 2
	first := Mean(series[:mid])
	second := Mean(series[mid:])
	if first == 0 {
		return NeutralFactor
	}
	trend := second / first
	if math.IsNaN(trend) || math.IsInf(trend, 0) {
		return NeutralFactor
	}
	return Clamp(trend, MinTrendFactor, MaxTrendFactor)
}

// SeasonalityFactor maps demand variability to a multiplier:
// 1 + 0.2 * stdev/mean, clamped to [0.8, 1.3].
func SeasonalityFactor(series []float64) float64 {
	if len(series) < minSeasonalityPoints {
		return NeutralFactor
	}
	mean := Mean(series)
	if mean == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return NeutralFactor
	}
	stdev, ok := SampleStdDev(series)
	if !ok {
		return NeutralFactor
	}
	seasonality := 1.0 + (stdev/mean)*seasonalityWeight
	if math.IsNaN(seasonality) || math.IsInf(seasonality, 0) {
		return NeutralFactor
	}
	return Clamp(seasonality, MinSeasonalityFactor, MaxSeasonalityFactor)
}

// Mean is the arithmetic mean; 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SampleStdDev returns the n-1 standard deviation. ok is false when fewer than
// two points are available or the result is not finite.
func SampleStdDev(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	mean := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	v := math.Sqrt(ss / float64(len(xs)-1))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ZeroFill expands a gap-omitted series so that every day in [from, to]
// is present, missing days carrying quantity 0. Points outside the range are dropped.
func ZeroFill(points []models.DemandPoint, from, to time.Time) []models.DemandPoint {
	from = TruncateDay(from)
	to = TruncateDay(to)
	if to.Before(from) {
		return nil
	}
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[TruncateDay(p.Date)] += p.Quantity
	}
	days := int(to.Sub(from).Hours()/24) + 1
	out := make([]models.DemandPoint, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, models.DemandPoint{Date: d, Quantity: byDay[d]})
	}
	return out
}

// TruncateDay drops the time-of-day in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
