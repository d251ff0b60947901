//go:build wireinject
// +build wireinject

package di

import (
	"FinScan/pkg/config"
	"FinScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideRateLimiter,

		// Infrastructure clients
		ProvideCandleCache,
		ProvideCandleSource,
		ProvideClickHouseClient,
		ProvideSignalStore,
		ProvideKafkaProducer,
		ProvideSignalPublisher,
		ProvideKafkaConsumer,

		// Evaluation services
		ProvideRegimeClassifier,
		ProvideConfluenceScorer,
		ProvideLevelCalculator,

		// Delivery
		ProvideHub,
		ProvideSinks,
		ProvidePipeline,
		ProvideEmitter,
		ProvideKafkaSignalsHandler,

		// Use cases
		ProvideEvaluator,
		ProvideScanner,
		ProvideOutcomeTracker,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
