package usecase

import (
	"context"
	"sync"
	"time"

	domrepo "TechMart/internal/domain/repository"
	"TechMart/pkg/cache"
	applogger "TechMart/pkg/logger"
	"TechMart/pkg/queue"
)

// Schedule enqueues a job type every Interval.
type Schedule struct {
	JobType  string
	Interval time.Duration
}

// Scheduler periodically places background jobs on the queue. With several
// instances running, a short cache lock per tick keeps a job from being
// enqueued more than once per interval.
type Scheduler struct {
	queue     queue.Enqueuer
	locks     domrepo.Cache
	schedules []Schedule
	l         *applogger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(q queue.Enqueuer, locks domrepo.Cache, l *applogger.Logger, schedules ...Schedule) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scheduler{queue: q, locks: locks, schedules: schedules, l: l}
}

// Start launches one ticker per schedule. Each job is also enqueued once at startup.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, sc := range s.schedules {
		if sc.Interval <= 0 {
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, sc)
	}
	s.l.Info("scheduler started", applogger.Int("schedules", len(s.schedules)))
	return nil
}

func (s *Scheduler) loop(ctx context.Context, sc Schedule) {
	defer s.wg.Done()
	ticker := time.NewTicker(sc.Interval)
	defer ticker.Stop()

	s.Tick(ctx, sc)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, sc)
		}
	}
}

// Tick enqueues one run of sc unless another instance already did this interval.
func (s *Scheduler) Tick(ctx context.Context, sc Schedule) bool {
	if s.locks != nil {
		ok, err := s.locks.TryLock(ctx, cache.Key("schedule", sc.JobType), sc.Interval/2)
		if err != nil {
			s.l.Warn("schedule lock failed", applogger.String("job", sc.JobType), applogger.Error(err))
			return false
		}
		if !ok {
			return false
		}
	}
	if err := s.queue.Enqueue(ctx, sc.JobType, nil); err != nil {
		s.l.Error("enqueue scheduled job", applogger.String("job", sc.JobType), applogger.Error(err))
		return false
	}
	s.l.Debug("scheduled job enqueued", applogger.String("job", sc.JobType))
	return true
}

// Stop halts the tickers and waits for the loops to exit or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
