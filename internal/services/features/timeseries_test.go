package features

import (
	"math"
	"testing"
	"time"

	"TechMart/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		window int
		want   float64
	}{
		{"empty", nil, 7, 0},
		{"shorter than window", []float64{2, 4, 6}, 7, 4},
		{"exact window", []float64{1, 2, 3, 4, 5, 6, 7}, 7, 4},
		{"last window only", []float64{100, 100, 1, 1, 1, 1, 1, 1, 1}, 7, 1},
		{"window 30 over short history", []float64{10, 20}, 30, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MovingAverage(tt.series, tt.window), 1e-9)
		})
	}
}

func TestMovingAverageWithinRange(t *testing.T) {
	series := []float64{3, 9, 1, 14, 7, 7, 2, 0, 11, 5, 8}
	lo, hi := series[0], series[0]
	for _, v := range series {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for w := 1; w <= len(series)+3; w++ {
		ma := MovingAverage(series, w)
		assert.GreaterOrEqual(t, ma, lo, "window %d", w)
		assert.LessOrEqual(t, ma, hi, "window %d", w)
	}
}

func TestTrendFactor(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
	}{
		{"empty", nil, 1.0},
		{"single point", []float64{5}, 1.0},
		{"flat", []float64{4, 4, 4, 4}, 1.0},
		{"doubling", []float64{2, 2, 4, 4}, 2.0},
		{"growth capped", []float64{1, 1, 10, 10}, 2.0},
		{"decline floored", []float64{10, 10, 1, 1}, 0.5},
		{"zero first half", []float64{0, 0, 5, 5}, 1.0},
		// mid = 1: first [2], second [3, 3]
		{"odd length extra to second half", []float64{2, 3, 3}, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TrendFactor(tt.series), 1e-9)
		})
	}
}

func TestSeasonalityFactor(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
	}{
		{"too short", []float64{1, 5, 9, 1, 5, 9}, 1.0},
		{"all zero", []float64{0, 0, 0, 0, 0, 0, 0}, 1.0},
		{"constant", []float64{5, 5, 5, 5, 5, 5, 5}, 1.0},
		{"high variation capped", []float64{0, 0, 0, 0, 0, 0, 70}, 1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SeasonalityFactor(tt.series), 1e-9)
		})
	}
}

func TestSeasonalityFactorModerate(t *testing.T) {
	series := []float64{8, 12, 8, 12, 8, 12, 10}
	stdev, ok := SampleStdDev(series)
	require.True(t, ok)
	want := 1.0 + 0.2*stdev/Mean(series)
	assert.InDelta(t, want, SeasonalityFactor(series), 1e-9)
	assert.Greater(t, SeasonalityFactor(series), 1.0)
}

func TestFactorsStayInRange(t *testing.T) {
	inputs := [][]float64{
		nil,
		{0},
		{1e-300, 1e300},
		{0, 0, 0, 0, 0, 0, 0, 1e308},
		{5, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	}
	for _, in := range inputs {
		tr := TrendFactor(in)
		assert.GreaterOrEqual(t, tr, MinTrendFactor)
		assert.LessOrEqual(t, tr, MaxTrendFactor)

		s := SeasonalityFactor(in)
		assert.GreaterOrEqual(t, s, MinSeasonalityFactor)
		assert.LessOrEqual(t, s, MaxSeasonalityFactor)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.93, Round2(1-1.0/14))
	assert.Equal(t, 1.23, Round2(1.2345))
	assert.Equal(t, 0.0, Round2(0.001))
}

func TestZeroFill(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	points := []models.DemandPoint{
		{Date: day(2), Quantity: 4},
		{Date: day(4).Add(5 * time.Hour), Quantity: 6},
		{Date: day(9), Quantity: 100},
	}

	got := ZeroFill(points, day(1), day(5))
	require.Len(t, got, 5)
	want := []float64{0, 4, 0, 6, 0}
	for i, p := range got {
		assert.Equal(t, day(i+1), p.Date)
		assert.Equal(t, want[i], p.Quantity)
	}

	assert.Nil(t, ZeroFill(points, day(5), day(1)))
}
