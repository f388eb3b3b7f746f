package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"TechMart/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	Logger      *logger.Logger
	Registerer  prometheus.Registerer
}

// WithConsumerBrokers sets Kafka brokers.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// WithConsumerGroupID sets consumer group ID.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		if groupID != "" {
			c.GroupID = groupID
		}
	}
}

// WithConsumerWorkers sets number of worker goroutines.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry configures retry attempts and backoff range.
func WithConsumerRetry(retries int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = retries
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets a Kafka topic name for DLQ.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.DLQTopic = topic
	}
}

// WithConsumerFetch sets fetch min/max bytes.
func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if minBytes > 0 {
			c.MinBytes = minBytes
		}
		if maxBytes > 0 {
			c.MaxBytes = maxBytes
		}
	}
}

// WithConsumerBufferSize sets the internal channel buffer size.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithConsumerLogger sets the logger.
func WithConsumerLogger(l *logger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Logger = l
	}
}

// WithConsumerRegisterer registers consumer metrics on reg instead of the default registry.
func WithConsumerRegisterer(reg prometheus.Registerer) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Registerer = reg
	}
}

// Consumer wraps Kafka readers with a worker pool. Messages of one
// partition are handled one at a time.
type Consumer struct {
	cfg       *ConsumerConfig
	log       *logger.Logger
	readers   map[string]*kafka.Reader
	handlers  map[string]MessageHandler
	stopChan  chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	msgChan   chan *message
	dlq       *kafka.Writer
	partMu    sync.Mutex
	partLocks map[string]map[int]*sync.Mutex
	hook      ConsumerHook
	metrics   *consumerMetrics
}

type message struct {
	topic string
	km    kafka.Message
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "techmart",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	l := cfg.Logger
	if l == nil {
		l = logger.Nop()
	}

	c := &Consumer{
		cfg:       cfg,
		log:       l,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		stopChan:  make(chan struct{}),
		msgChan:   make(chan *message, cfg.BufferSize),
		partLocks: make(map[string]map[int]*sync.Mutex),
		hook:      NoopHook{},
		metrics:   newConsumerMetrics(cfg.Registerer),
	}

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	return c, nil
}

// RegisterHandler registers a message handler for a specific topic.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka handler already registered", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start starts the Kafka consumer and workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.messageWorker()
	}
	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.consumeMessages(topic, reader)
	}

	c.log.Info("kafka consumer started",
		logger.Int("workers", c.cfg.WorkerCount),
		logger.String("group", c.cfg.GroupID))
	return nil
}

// Stop stops the Kafka consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		close(c.stopChan)
		stopErr = c.waitForWg(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Warn("kafka reader close", logger.String("topic", topic), logger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Warn("kafka dlq writer close", logger.Error(err))
			}
		}
		if stopErr == nil {
			c.log.Info("kafka consumer stopped")
		}
	})

	return stopErr
}

func (c *Consumer) waitForWg(ctx context.Context) error {
	doneChan := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(doneChan)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-doneChan:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader *kafka.Reader) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		km, err := reader.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.log.Error("kafka fetch", logger.String("topic", topic), logger.Error(err))
			}
			continue
		}

		select {
		case c.msgChan <- &message{topic: topic, km: km}:
			c.metrics.queueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) messageWorker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		}
	}
}

func (c *Consumer) handleMessage(msg *message) {
	handler, ok := c.handlers[msg.topic]
	if !ok {
		return
	}
	start := time.Now()

	pl := c.partitionLock(msg.topic, msg.km.Partition)
	pl.Lock()
	defer pl.Unlock()

	attempts, err := c.process(handler, msg.km)
	if err != nil {
		c.log.Error("kafka message failed",
			logger.String("topic", msg.topic),
			logger.Int("attempts", attempts),
			logger.Int64("offset", msg.km.Offset),
			logger.Error(err))
		c.metrics.failures.WithLabelValues(msg.topic).Inc()
		c.sendToDLQ(msg.topic, msg.km)
	}

	// Commit on success, or after DLQ to avoid poison loops
	if err == nil || c.dlq != nil {
		if reader := c.readers[msg.topic]; reader != nil {
			_ = c.commitWithRetry(reader, msg.km, 3)
		}
	}
	c.metrics.handleLatency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
}

// process runs hooks and handler with bounded retries. A panic in the handler
// is converted into an error.
func (c *Consumer) process(handler MessageHandler, km kafka.Message) (attempts int, err error) {
	topic := handler.Topic()
	for {
		attempts++
		hctx, hmsg, hdata, berr := c.hook.BeforeHandle(context.Background(), topic, km, km.Value)
		if berr != nil {
			c.hook.OnError(hctx, topic, km, km.Value, berr)
			return attempts, berr
		}

		err = safeHandle(hctx, handler, hdata)
		c.hook.AfterHandle(hctx, topic, hmsg, hdata, err)
		if err == nil {
			return attempts, nil
		}
		c.hook.OnError(hctx, topic, hmsg, hdata, err)
		if attempts > c.cfg.RetryMax {
			return attempts, err
		}

		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stopChan:
			return attempts, err
		}
	}
}

func safeHandle(ctx context.Context, h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, data)
}

func (c *Consumer) sendToDLQ(topic string, km kafka.Message) {
	if c.dlq == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     km.Key,
		Value:   km.Value,
		Time:    time.Now(),
		Headers: append(km.Headers, kafka.Header{Key: "source_topic", Value: []byte(topic)}),
	})
	if err != nil {
		c.log.Error("kafka dlq write", logger.String("dlq", c.cfg.DLQTopic), logger.Error(err))
	}
}

// commitWithRetry commits a single message offset with bounded retries.
func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, tries int) error {
	if tries <= 0 {
		tries = 1
	}
	var err error
	for attempt := 1; attempt <= tries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka commit", logger.Int("attempts", tries), logger.Error(err))
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.partMu.Lock()
	defer c.partMu.Unlock()

	byPart, ok := c.partLocks[topic]
	if !ok {
		byPart = make(map[int]*sync.Mutex)
		c.partLocks[topic] = byPart
	}
	l, ok := byPart[partition]
	if !ok {
		l = &sync.Mutex{}
		byPart[partition] = l
	}
	return l
}

func backoffWithJitter(lo, hi time.Duration, attempt int) time.Duration {
	if lo <= 0 {
		lo = 50 * time.Millisecond
	}
	if hi < lo {
		hi = lo
	}
	exp := lo * time.Duration(1<<uint(attempt-1))
	if exp > hi || exp <= 0 {
		exp = hi
	}
	// jitter up to 50%
	half := int64(exp) / 2
	if half <= 0 {
		return exp
	}
	return exp - time.Duration(rand.Int63n(half))
}

type consumerMetrics struct {
	queueDepth    *prometheus.GaugeVec
	failures      *prometheus.CounterVec
	handleLatency *prometheus.HistogramVec
}

var (
	defaultConsumerMetrics     *consumerMetrics
	defaultConsumerMetricsOnce sync.Once
)

// newConsumerMetrics registers on reg, or shares one default-registry set.
func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	build := func(r prometheus.Registerer) *consumerMetrics {
		m := &consumerMetrics{
			queueDepth: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{Name: "techmart_kafka_consumer_queue_depth", Help: "Messages waiting for a worker"},
				[]string{"topic"},
			),
			failures: prometheus.NewCounterVec(
				prometheus.CounterOpts{Name: "techmart_kafka_consumer_failures_total", Help: "Messages that exhausted retries"},
				[]string{"topic"},
			),
			handleLatency: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{Name: "techmart_kafka_consumer_handle_seconds", Help: "Handling time per message"},
				[]string{"topic"},
			),
		}
		r.MustRegister(m.queueDepth, m.failures, m.handleLatency)
		return m
	}
	if reg != nil {
		return build(reg)
	}
	defaultConsumerMetricsOnce.Do(func() {
		defaultConsumerMetrics = build(prometheus.DefaultRegisterer)
	})
	return defaultConsumerMetrics
}
