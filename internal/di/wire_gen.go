// Injector for the provider set in wire.go, kept in wire's output layout.
// `go generate ./internal/di` replaces this file with wire's own output;
// until then provider changes must be mirrored here by hand.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"TechMart/pkg/config"
	"TechMart/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	registry := ProvideRegistry()
	producer, cleanup, err := ProvideKafkaProducer(cfg, registry)
	if err != nil {
		return nil, nil, err
	}
	logger, cleanup2, err := ProvideLogger(cfg, producer)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	sqlRepository, cleanup3, err := ProvideSQLRepository(cfg, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	client, cleanup4, err := ProvideClickHouseClient(cfg)
	if err != nil {
		cleanup3()
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	demandHistory := ProvideDemandHistory(cfg, sqlRepository, client, logger)
	forecaster := ProvideForecaster()
	supplierScorer := ProvideSupplierScorer(cfg)
	reorderPlanner := ProvideReorderPlanner(cfg, forecaster, supplierScorer)
	redisCache, cleanup5, err := ProvideRedisCache(cfg)
	if err != nil {
		cleanup4()
		cleanup3()
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	domrepoCache, cleanup6 := ProvideCache(cfg, redisCache)
	hub := ProvideHub(cfg, logger)
	metrics := ProvideMetrics(registry)
	notifier := ProvideNotifier(cfg, hub, producer, metrics, logger)
	inventoryUseCase := ProvideInventoryUseCase(cfg, sqlRepository, demandHistory, forecaster, supplierScorer, reorderPlanner, domrepoCache, notifier, metrics, logger)
	fraudScorer := ProvideFraudScorer(cfg)
	fraudUseCase := ProvideFraudUseCase(cfg, sqlRepository, fraudScorer, notifier, metrics, logger)
	router := ProvideRouter(inventoryUseCase, fraudUseCase, sqlRepository, hub, redisCache, logger)
	limiter := ProvideRateLimiter(cfg)
	xhttpServer := ProvideHTTPServer(cfg, router, limiter, registry, logger)
	consumer, err := ProvideKafkaConsumer(cfg, registry, logger)
	if err != nil {
		cleanup6()
		cleanup5()
		cleanup4()
		cleanup3()
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	transactionFacts := ProvideTransactionFacts(cfg, client, logger)
	transactionsHandler := ProvideTransactionsHandler(cfg, fraudUseCase, transactionFacts, metrics, logger)
	stockMonitor := ProvideStockMonitor(sqlRepository, notifier, metrics, logger)
	jobSet := ProvideJobSet(inventoryUseCase, stockMonitor, metrics, logger)
	redisQueue := ProvideJobQueue(cfg, redisCache, jobSet, logger)
	scheduler := ProvideScheduler(cfg, redisQueue, domrepoCache, logger)
	app := ProvideApp(cfg, logger, xhttpServer, consumer, transactionsHandler, redisQueue, scheduler, hub, limiter)
	return app, func() {
		cleanup6()
		cleanup5()
		cleanup4()
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
