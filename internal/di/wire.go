//go:build wireinject
// +build wireinject

package di

import (
	"TechMart/pkg/config"
	"TechMart/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideRegistry,
		ProvideMetrics,
		ProvideLogger,

		// Infrastructure clients
		ProvideSQLRepository,
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories and notifications
		ProvideDemandHistory,
		ProvideTransactionFacts,
		ProvideHub,
		ProvideNotifier,

		// Engine
		ProvideForecaster,
		ProvideSupplierScorer,
		ProvideReorderPlanner,
		ProvideFraudScorer,

		// Use cases
		ProvideInventoryUseCase,
		ProvideStockMonitor,
		ProvideFraudUseCase,
		ProvideTransactionsHandler,
		ProvideJobSet,
		ProvideJobQueue,
		ProvideScheduler,

		// HTTP
		ProvideRateLimiter,
		ProvideRouter,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
