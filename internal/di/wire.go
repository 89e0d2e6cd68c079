//go:build wireinject
// +build wireinject

package di

import (
	"tradehits/pkg/config"
	"tradehits/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories (with business logic)
		ProvideSnapshotStorage,
		ProvideSnapshotPublisher,
		ProvideSnapshotStore,
		ProvideFeedStream,

		// Engine services
		ProvideDetector,
		ProvideSentimentProvider,

		// Use cases
		ProvideSnapshotProcessor,
		ProvideSnapshotCollector,
		ProvideKafkaSnapshotsHandler,
		ProvideSignalEngine,
		ProvideFusedUseCase,
		ProvideUniverse,
		ProvideRefresher,
		ProvideRefreshQueue,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
