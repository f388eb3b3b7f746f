package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstThenRefill(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := PerMinute(60, 3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))

	// other clients have their own bucket
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiterCapsAtCapacity(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := New(2, 10)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("k"))
	now = now.Add(time.Hour)
	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestLimiterSweep(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := PerMinute(100, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(10 * time.Minute)
	l.Allow("b")

	assert.Equal(t, 1, l.Sweep(5*time.Minute))
	assert.Len(t, l.buckets, 1)
}
