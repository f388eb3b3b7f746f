package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"TechMart/pkg/cache"
	"TechMart/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobSetDispatch(t *testing.T) {
	f := newInventoryFixture(t)
	monitor := NewStockMonitor(&fakeProducts{}, &fakeAlerts{}, nil, f.metrics, nil)
	jobs := NewJobSet(f.uc, monitor, f.metrics, nil)

	d := queue.NewDispatcher(2, time.Second)
	for _, j := range jobs.All() {
		require.True(t, d.Register(j))
	}

	for _, jobType := range []string{JobRefreshPredictions, JobGenerateSuggestions, JobCheckStockLevels} {
		msg, err := queue.NewMessage(jobType, nil)
		require.NoError(t, err)
		outcome, err := d.Dispatch(context.Background(), &msg)
		require.NoError(t, err, jobType)
		assert.Equal(t, queue.OutcomeDone, outcome)
		assert.Equal(t, 1, f.metrics.jobs[jobType])
	}

	assert.Len(t, f.predictions.rows, 6)
	assert.Len(t, f.suggestions.rows, 2)
	assert.Zero(t, f.metrics.jobErrors[JobGenerateSuggestions])
}

type recordingQueue struct {
	mu    sync.Mutex
	types []string
}

func (q *recordingQueue) Enqueue(_ context.Context, msgType string, _ interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.types = append(q.types, msgType)
	return nil
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.types)
}

func TestSchedulerTickDedup(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	q := &recordingQueue{}

	a := NewScheduler(q, mc, nil)
	b := NewScheduler(q, mc, nil)
	sc := Schedule{JobType: JobCheckStockLevels, Interval: time.Hour}

	assert.True(t, a.Tick(context.Background(), sc))
	assert.False(t, b.Tick(context.Background(), sc), "second instance skips the same interval")
	assert.Equal(t, []string{JobCheckStockLevels}, q.types)
}

func TestSchedulerStartStop(t *testing.T) {
	q := &recordingQueue{}
	s := NewScheduler(q, nil, nil,
		Schedule{JobType: JobRefreshPredictions, Interval: 20 * time.Millisecond},
		Schedule{JobType: JobCheckStockLevels, Interval: 0},
	)
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return q.count() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	n := q.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, q.count(), "no ticks after Stop")
	for _, jt := range q.types {
		assert.Equal(t, JobRefreshPredictions, jt)
	}
}
