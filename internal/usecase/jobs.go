package usecase

import (
	"context"
	"encoding/json"
	"time"

	domrepo "TechMart/internal/domain/repository"
	applogger "TechMart/pkg/logger"
	"TechMart/pkg/queue"
)

// Background job types placed on the queue by the scheduler.
const (
	JobRefreshPredictions  = "inventory.refresh_predictions"
	JobGenerateSuggestions = "inventory.generate_suggestions"
	JobCheckStockLevels    = "inventory.check_stock_levels"
)

// funcJob adapts a use case call to the queue's Job interface.
type funcJob struct {
	name    string
	run     func(ctx context.Context) error
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func (j *funcJob) Name() string { return j.name }
func (j *funcJob) Type() string { return j.name }

func (j *funcJob) Handle(ctx context.Context, _ json.RawMessage) error {
	start := time.Now()
	err := j.run(ctx)
	j.metrics.RecordJob(j.name, err)
	j.metrics.RecordLatency(j.name, time.Since(start).Seconds())
	if err != nil {
		j.l.Error("job failed", applogger.String("job", j.name), applogger.Error(err))
	}
	return err
}

// JobSet holds the background jobs backed by the use cases.
type JobSet struct {
	RefreshPredictions  queue.Job
	GenerateSuggestions queue.Job
	CheckStockLevels    queue.Job
}

func (s *JobSet) All() []queue.Job {
	return []queue.Job{s.RefreshPredictions, s.GenerateSuggestions, s.CheckStockLevels}
}

func NewJobSet(inv *InventoryUseCase, monitor *StockMonitor, metrics domrepo.Metrics, l *applogger.Logger) *JobSet {
	if l == nil {
		l = applogger.Nop()
	}
	return &JobSet{
		RefreshPredictions: &funcJob{
			name: JobRefreshPredictions, metrics: metrics, l: l,
			run: func(ctx context.Context) error {
				_, err := inv.RefreshPredictions(ctx)
				return err
			},
		},
		GenerateSuggestions: &funcJob{
			name: JobGenerateSuggestions, metrics: metrics, l: l,
			run: func(ctx context.Context) error {
				_, err := inv.GenerateAllSuggestions(ctx)
				return err
			},
		},
		CheckStockLevels: &funcJob{
			name: JobCheckStockLevels, metrics: metrics, l: l,
			run: func(ctx context.Context) error {
				_, err := monitor.CheckStockLevels(ctx)
				return err
			},
		},
	}
}
