package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"TechMart/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// QueueMode defines the operation mode of the queue.
type QueueMode int

const (
	ModeProducerConsumer QueueMode = iota
	ModeProducerOnly
	ModeConsumerOnly
)

// RedisQueue is a list-backed job queue with a retry ZSET and a dead letter list.
type RedisQueue struct {
	logger     *logger.Logger
	config     *QueueConfig
	client     *redis.Client
	dispatcher *Dispatcher
	wg         sync.WaitGroup
	mu         sync.RWMutex
	isRunning  bool
	mode       QueueMode
	ctx        context.Context
	cancel     context.CancelFunc
	keyPrefix  string
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		if prefix != "" {
			r.keyPrefix = prefix
		}
	}
}

// NewRedisQueue creates a new Redis queue.
func NewRedisQueue(lgr *logger.Logger, config *QueueConfig, client *redis.Client, mode QueueMode, opts ...RedisQueueOption) *RedisQueue {
	if config == nil {
		config = &QueueConfig{}
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	rq := &RedisQueue{
		logger:     lgr,
		config:     config,
		client:     client,
		dispatcher: NewDispatcher(config.RetryLimit, config.JobTimeout),
		mode:       mode,
		ctx:        ctx,
		cancel:     cancel,
		keyPrefix:  "techmart:queue",
	}

	for _, opt := range opts {
		opt(rq)
	}

	return rq
}

// RegisterJobs registers multiple jobs.
func (r *RedisQueue) RegisterJobs(jobs ...Job) {
	for _, job := range jobs {
		r.RegisterJob(job)
	}
}

// RegisterJob registers a single job.
func (r *RedisQueue) RegisterJob(job Job) {
	if r.mode == ModeProducerOnly {
		r.logger.Warn("job registration ignored in producer-only mode",
			logger.String("job", job.Name()))
		return
	}
	if !r.dispatcher.Register(job) {
		r.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	r.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start pings Redis and launches workers unless producer-only.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return fmt.Errorf("queue already running")
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	r.mu.Lock()
	r.isRunning = true
	r.mu.Unlock()

	if r.mode != ModeProducerOnly {
		for i := 0; i < r.config.Workers; i++ {
			r.wg.Add(1)
			go r.worker(i)
		}
		r.wg.Add(1)
		go r.retryProcessor()
	}
	r.logger.Info("redis queue started",
		logger.Int("workers", r.config.Workers),
		logger.String("addr", r.client.Options().Addr),
		logger.String("mode", r.modeString()))

	return nil
}

// Stop gracefully stops the queue.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.cancel()
	r.mu.Unlock()

	r.logger.Info("stopping redis queue...")

	doneCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		r.logger.Info("redis queue stopped gracefully")
		return nil
	}
}

// Enqueue adds a message to the queue.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	r.mu.RLock()
	running := r.isRunning
	r.mu.RUnlock()
	if !running {
		return fmt.Errorf("queue not running")
	}

	if r.mode != ModeProducerOnly && !r.dispatcher.Has(msgType) {
		return fmt.Errorf("%w: %s", ErrUnknownJob, msgType)
	}

	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := r.client.LPush(ctx, r.queueKey(), data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

// DeadLetterCount returns the number of messages that exhausted their retries.
func (r *RedisQueue) DeadLetterCount(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.deadLetterKey()).Result()
}

func (r *RedisQueue) worker(id int) {
	defer r.wg.Done()
	r.logger.Debug("queue worker started", logger.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("queue worker stopping", logger.Int("worker_id", id))
			return
		default:
			r.processNext()
		}
	}
}

func (r *RedisQueue) processNext() {
	result, err := r.client.BRPop(r.ctx, time.Second, r.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		r.logger.Error("brpop error", logger.Error(err))
		select {
		case <-time.After(time.Second):
		case <-r.ctx.Done():
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		r.logger.Error("unmarshal message", logger.Error(err))
		return
	}
	r.process(msg)
}

func (r *RedisQueue) process(msg Message) {
	start := time.Now()
	outcome, err := r.dispatcher.Dispatch(r.ctx, &msg)
	elapsed := time.Since(start)

	switch outcome {
	case OutcomeDone:
		r.logger.Debug("job done",
			logger.String("id", msg.ID),
			logger.String("type", msg.Type),
			logger.Duration("elapsed_ms", elapsed))
	case OutcomeCancelled:
		r.logger.Warn("job cancelled",
			logger.String("id", msg.ID),
			logger.String("type", msg.Type))
	case OutcomeRetry:
		retryAt := time.Now().Add(r.config.RetryDelay)
		r.logger.Error("job failed, retry scheduled",
			logger.String("id", msg.ID),
			logger.String("type", msg.Type),
			logger.Int("attempt", msg.Attempts),
			logger.Time("retry_at", retryAt),
			logger.Error(err))
		r.scheduleRetry(msg, retryAt)
	case OutcomeDead:
		r.logger.Error("job dead lettered",
			logger.String("id", msg.ID),
			logger.String("type", msg.Type),
			logger.Error(err))
		r.deadLetter(msg)
	}
}

func (r *RedisQueue) scheduleRetry(msg Message, at time.Time) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal retry", logger.Error(err))
		return
	}
	err = r.client.ZAdd(context.Background(), r.retryKey(), redis.Z{
		Score:  float64(at.Unix()),
		Member: data,
	}).Err()
	if err != nil {
		r.logger.Error("zadd retry", logger.Error(err))
	}
}

func (r *RedisQueue) deadLetter(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal dlq", logger.Error(err))
		return
	}
	if err := r.client.LPush(context.Background(), r.deadLetterKey(), data).Err(); err != nil {
		r.logger.Error("lpush dlq", logger.Error(err))
	}
}

func (r *RedisQueue) retryProcessor() {
	defer r.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.requeueDue()
		}
	}
}

// requeueDue moves retries whose time has come back onto the main list.
func (r *RedisQueue) requeueDue() {
	upTo := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := r.client.ZRangeByScore(r.ctx, r.retryKey(), &redis.ZRangeBy{Min: "0", Max: upTo}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("fetch retry messages", logger.Error(err))
		}
		return
	}

	for _, member := range due {
		pipe := r.client.TxPipeline()
		pipe.ZRem(r.ctx, r.retryKey(), member)
		pipe.LPush(r.ctx, r.queueKey(), member)
		if _, err := pipe.Exec(r.ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger.Error("move retry to queue", logger.Error(err))
		}
	}
}

func (r *RedisQueue) modeString() string {
	switch r.mode {
	case ModeProducerOnly:
		return "producer-only"
	case ModeConsumerOnly:
		return "consumer-only"
	default:
		return "producer-consumer"
	}
}

func (r *RedisQueue) queueKey() string      { return r.keyPrefix + ":messages" }
func (r *RedisQueue) retryKey() string      { return r.keyPrefix + ":retry" }
func (r *RedisQueue) deadLetterKey() string { return r.keyPrefix + ":dlq" }
