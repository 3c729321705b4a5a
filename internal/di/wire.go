//go:build wireinject
// +build wireinject

package di

import (
	"OptAlert/pkg/config"
	"OptAlert/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Broker access
		ProvideMarketData,
		ProvideCache,
		ProvideCatalog,

		// Alerting
		ProvideJournal,
		ProvideHub,
		ProvideKafkaProducer,
		ProvideNotifiers,
		ProvideDispatcher,

		// Strategies and lifecycle
		ProvideStrategies,
		ProvideScheduler,
		ProvideClickHouseClient,
		ProvideReportSinks,
		ProvideController,

		// Operational surface
		ProvideDescriptors,
		ProvideStatusHandler,
		ProvideHandler,
		ProvideHTTPServer,
		ProvideRetention,

		ProvideApp,
	)
	return &server.App{}, nil
}
