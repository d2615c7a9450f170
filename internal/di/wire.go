//go:build wireinject
// +build wireinject

package di

import (
	"PairScout/pkg/config"
	"PairScout/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideTickStorage,
		ProvideTickPublisher,
		ProvideStateStore,
		ProvideHistoryStore,
		ProvideFeatureStore,

		// External services
		ProvideBinanceStream,
		ProvideMarketData,
		ProvideNotifyQueue,
		ProvideNotifier,
		ProvideTradeEvents,

		// Use cases
		ProvideTickProcessor,
		ProvideTickCollector,
		ProvideKafkaTicksHandler,
		ProvidePairAnalyzer,
		ProvidePairScanner,
		ProvideLifecycle,
		ProvideScheduler,
		ProvideCandlesUseCase,

		// HTTP surface and application server
		ProvidePairsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
