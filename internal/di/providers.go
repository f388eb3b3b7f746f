package di

import (
	"context"
	"fmt"
	"time"

	domrepo "TechMart/internal/domain/repository"
	"TechMart/internal/handler/api"
	"TechMart/internal/repository"
	"TechMart/internal/service/notify"
	"TechMart/internal/service/ratelimit"
	"TechMart/internal/services/analytics"
	"TechMart/internal/usecase"
	"TechMart/pkg/cache"
	pkgch "TechMart/pkg/clickhouse"
	"TechMart/pkg/config"
	xhttp "TechMart/pkg/http"
	pkgkafka "TechMart/pkg/kafka"
	applogger "TechMart/pkg/logger"
	"TechMart/pkg/metrics"
	"TechMart/pkg/queue"
	"TechMart/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
)

// ProvideLogger builds the application logger. With Kafka enabled, error
// logs are aggregated and shipped to the logs topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			Service:   "techmart",
			Topic:     cfg.Kafka.LogsTopic,
			Publisher: logPublisher{producer},
		})
	}
	return l, l.RemoveCollector, nil
}

// logPublisher ships collected log batches through the Kafka producer.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// ProvideRegistry creates the Prometheus registry every collector registers on.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) domrepo.Metrics {
	return metrics.New(reg)
}

// ProvideSQLRepository opens the relational store and applies the schema.
func ProvideSQLRepository(cfg *config.Config, l *applogger.Logger) (*repository.SQLRepository, func(), error) {
	repo, err := repository.Open(repository.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnLifetime: cfg.Database.ConnLifetime,
		ZeroFill:     cfg.Engine.ZeroFill,
	}, l)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return repo, func() { _ = repo.Close() }, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, pkgch.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, func() { _ = client.Close() }, nil
}

// ProvideRedisCache connects to Redis, or returns nil when disabled. Its
// client is shared with the job queue.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/2, 30*time.Second),
		cache.WithRedisPrefix("techmart"),
	)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideCache layers a local memory cache over Redis when available and
// falls back to memory only.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) (domrepo.Cache, func()) {
	if rc == nil {
		mc := cache.NewMemoryCache(cache.WithMemoryCleanup(time.Minute))
		return mc, func() { _ = mc.Close() }
	}
	lc := cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(5000),
		cache.WithLayeredLocalTTL(cfg.Cache.LocalTTL),
	)
	return lc, func() { _ = lc.Close() }
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideKafkaConsumer creates the transaction stream consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TraceHook{},
		pkgkafka.LoggingHook{Log: l, Slow: time.Second},
	))
	return consumer, nil
}

// ProvideDemandHistory picks the demand source: ClickHouse rollups or the
// relational transactions table.
func ProvideDemandHistory(cfg *config.Config, repo *repository.SQLRepository, ch *pkgch.Client, l *applogger.Logger) domrepo.DemandHistory {
	if cfg.History.Backend == "clickhouse" && ch != nil {
		return repository.NewCHHistory(ch, cfg.Engine.ZeroFill, l)
	}
	return repo
}

// ProvideTransactionFacts mirrors scored transactions into ClickHouse when it is enabled.
func ProvideTransactionFacts(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) domrepo.TransactionFacts {
	if ch == nil {
		return nil
	}
	return repository.NewCHHistory(ch, cfg.Engine.ZeroFill, l)
}

// ProvideHub creates the WebSocket hub. It is closed on shutdown.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *notify.Hub {
	return notify.NewHub(l, notify.WithAllowedOrigins(cfg.Server.AllowedOrigins))
}

// ProvideNotifier fans events out to WebSocket subscribers and, with Kafka
// enabled, the events topic.
func ProvideNotifier(cfg *config.Config, hub *notify.Hub, producer *pkgkafka.Producer, m domrepo.Metrics, l *applogger.Logger) domrepo.Notifier {
	sinks := []notify.Sink{{Name: "websocket", Notifier: hub}}
	if producer != nil {
		sinks = append(sinks, notify.Sink{Name: "kafka", Notifier: notify.NewKafkaNotifier(producer, cfg.Kafka.EventsTopic)})
	}
	return notify.NewFanout(l, m, sinks...)
}

func ProvideForecaster() *analytics.Forecaster {
	return analytics.NewForecaster()
}

func ProvideSupplierScorer(cfg *config.Config) *analytics.SupplierScorer {
	return analytics.NewSupplierScorer(analytics.WithDefaultPriceScore(cfg.Engine.DefaultPriceScore))
}

func ProvideReorderPlanner(cfg *config.Config, f *analytics.Forecaster, s *analytics.SupplierScorer) *analytics.ReorderPlanner {
	return analytics.NewReorderPlanner(f, s,
		analytics.WithHorizon(cfg.Engine.ReorderHorizonDays),
		analytics.WithSafetyStockDays(cfg.Engine.SafetyStockDays),
		analytics.WithDefaultLeadTime(cfg.Engine.DefaultLeadTimeDays),
	)
}

func ProvideFraudScorer(cfg *config.Config) *analytics.FraudScorer {
	fc := analytics.DefaultFraudConfig()
	fc.VelocityThreshold = cfg.Fraud.VelocityThreshold
	fc.VelocityWindowMinutes = int(cfg.Fraud.VelocityWindow / time.Minute)
	fc.LargeAmount = decimal.NewFromFloat(cfg.Fraud.LargeAmount)
	fc.SuspiciousThreshold = cfg.Fraud.SuspiciousThreshold
	return analytics.NewFraudScorer(analytics.WithFraudConfig(fc))
}

// ProvideInventoryUseCase creates the inventory use case.
func ProvideInventoryUseCase(
	cfg *config.Config,
	repo *repository.SQLRepository,
	history domrepo.DemandHistory,
	f *analytics.Forecaster,
	s *analytics.SupplierScorer,
	p *analytics.ReorderPlanner,
	c domrepo.Cache,
	n domrepo.Notifier,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.InventoryUseCase {
	return usecase.NewInventoryUseCase(usecase.InventoryDeps{
		Products:    repo,
		Suppliers:   repo,
		History:     history,
		Suggestions: repo,
		Predictions: repo,
		Forecaster:  f,
		Selector:    s,
		Planner:     p,
		Cache:       c,
		Notifier:    n,
		Metrics:     m,
		Logger:      l.With(applogger.String("component", "inventory")),
	}, usecase.InventoryConfig{
		HistoryDays:        cfg.Engine.HistoryDays,
		PredictionHorizons: cfg.Engine.PredictionHorizons,
		ForecastTTL:        cfg.Cache.PredictionsTTL,
		LockTTL:            cfg.Cache.LockTTL,
	})
}

func ProvideStockMonitor(repo *repository.SQLRepository, n domrepo.Notifier, m domrepo.Metrics, l *applogger.Logger) *usecase.StockMonitor {
	return usecase.NewStockMonitor(repo, repo, n, m, l.With(applogger.String("component", "stock_monitor")))
}

func ProvideFraudUseCase(cfg *config.Config, repo *repository.SQLRepository, scorer *analytics.FraudScorer, n domrepo.Notifier, m domrepo.Metrics, l *applogger.Logger) *usecase.FraudUseCase {
	return usecase.NewFraudUseCase(repo, repo, repo, scorer, n, m,
		l.With(applogger.String("component", "fraud")),
		usecase.FraudConfig{VelocityWindow: cfg.Fraud.VelocityWindow})
}

// ProvideTransactionsHandler scores the transaction stream from Kafka.
func ProvideTransactionsHandler(cfg *config.Config, fraud *usecase.FraudUseCase, facts domrepo.TransactionFacts, m domrepo.Metrics, l *applogger.Logger) *usecase.TransactionsHandler {
	return usecase.NewTransactionsHandler(cfg.Kafka.TransactionsTopic, fraud, facts, m, l)
}

func ProvideJobSet(inv *usecase.InventoryUseCase, monitor *usecase.StockMonitor, m domrepo.Metrics, l *applogger.Logger) *usecase.JobSet {
	return usecase.NewJobSet(inv, monitor, m, l)
}

// ProvideJobQueue creates the Redis job queue with every background job
// registered, or nil when the scheduler is disabled.
func ProvideJobQueue(cfg *config.Config, rc *cache.RedisCache, jobs *usecase.JobSet, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Scheduler.Enabled || rc == nil {
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
		JobTimeout: 30 * time.Minute,
	}, rc.Client(), queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Scheduler.QueueName))
	q.RegisterJobs(jobs.All()...)
	return q
}

// ProvideScheduler enqueues the background jobs on their intervals, or nil without a queue.
func ProvideScheduler(cfg *config.Config, q *queue.RedisQueue, c domrepo.Cache, l *applogger.Logger) *usecase.Scheduler {
	if q == nil {
		return nil
	}
	return usecase.NewScheduler(q, c, l,
		usecase.Schedule{JobType: usecase.JobRefreshPredictions, Interval: cfg.Scheduler.PredictionsInterval},
		usecase.Schedule{JobType: usecase.JobGenerateSuggestions, Interval: cfg.Scheduler.SuggestionsInterval},
		usecase.Schedule{JobType: usecase.JobCheckStockLevels, Interval: cfg.Scheduler.StockCheckInterval},
	)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
}

// ProvideRouter assembles the HTTP API.
func ProvideRouter(
	inv *usecase.InventoryUseCase,
	fraud *usecase.FraudUseCase,
	repo *repository.SQLRepository,
	hub *notify.Hub,
	rc *cache.RedisCache,
	l *applogger.Logger,
) *api.Router {
	checks := map[string]api.HealthCheck{"database": repo.Ping}
	if rc != nil {
		checks["redis"] = func(ctx context.Context) error { return rc.Client().Ping(ctx).Err() }
	}
	return api.NewRouter(
		api.NewInventoryHandler(l, inv),
		api.NewTransactionsHandler(l, fraud),
		api.NewAlertsHandler(l, repo),
		api.NewSystemHandler(l, hub, checks),
	)
}

// ProvideHTTPServer creates the Echo server with the API mounted.
func ProvideHTTPServer(cfg *config.Config, router *api.Router, limiter *ratelimit.Limiter, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		xhttp.WithLogger(l.With(applogger.String("component", "http"))),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	} else {
		opts = append(opts, xhttp.WithMetrics("", reg, reg))
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithRateLimiter(limiter))
	}
	return xhttp.NewServer(router, opts...)
}

// queueService adapts the job queue to the app lifecycle.
type queueService struct {
	q *queue.RedisQueue
}

func (s queueService) Start(context.Context) error { return s.q.Start() }
func (s queueService) Stop(ctx context.Context) error { return s.q.Stop(ctx) }

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	txHandler *usecase.TransactionsHandler,
	q *queue.RedisQueue,
	scheduler *usecase.Scheduler,
	hub *notify.Hub,
	limiter *ratelimit.Limiter,
) *server.App {
	opts := []server.Option{
		server.WithConsumer(consumer, txHandler),
		server.WithCloser("websocket hub", hub),
	}
	if q != nil {
		opts = append(opts, server.WithService("job queue", queueService{q}))
	}
	if scheduler != nil {
		opts = append(opts, server.WithService("scheduler", scheduler))
	}
	if limiter != nil {
		opts = append(opts, server.WithSweeper(limiter))
	}
	return server.New(cfg, l, httpServer, opts...)
}
