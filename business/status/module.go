// Package status implements the status bounded context: indicator
// descriptors, the refresh engine and the status stream.
package status

import (
	"context"

	chainDI "github.com/fd1az/bridge-status/business/chain/di"
	"github.com/fd1az/bridge-status/business/status/app"
	statusDI "github.com/fd1az/bridge-status/business/status/di"
	"github.com/fd1az/bridge-status/business/status/infra/indexer"
	"github.com/fd1az/bridge-status/business/status/infra/taiko"
	"github.com/fd1az/bridge-status/internal/config"
	"github.com/fd1az/bridge-status/internal/di"
	"github.com/fd1az/bridge-status/internal/logger"
	"github.com/fd1az/bridge-status/internal/monolith"
)

// Module implements the status bounded context.
type Module struct{}

// RegisterServices registers all status services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ChainReader (private - contract reads and event watches)
	di.RegisterToken(c, statusDI.ChainReader, func(sr di.ServiceRegistry) app.ChainReader {
		log := sr.Get("logger").(logger.LoggerInterface)

		reader, err := taiko.NewReader(taiko.DefaultReaderConfig(), chainDI.GetGasOracle(sr), log)
		if err != nil {
			panic("failed to create rollup reader: " + err.Error())
		}
		return reader
	})

	// Register IndexerReader (private - event indexer REST client)
	di.RegisterToken(c, statusDI.IndexerReader, func(sr di.ServiceRegistry) app.IndexerReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := indexer.NewClient(indexer.Config{
			RequestsPerMinute: cfg.Indexer.RequestsPerMinute,
			Timeout:           cfg.Indexer.Timeout,
			CacheTTL:          cfg.Indexer.CacheTTL,
		}, log)
		if err != nil {
			panic("failed to create indexer client: " + err.Error())
		}
		return client
	})

	// Register Stream (public)
	di.RegisterToken(c, statusDI.Stream, func(sr di.ServiceRegistry) *app.Stream {
		return app.NewStream()
	})

	// Register Dashboard (public)
	di.RegisterToken(c, statusDI.Dashboard, func(sr di.ServiceRegistry) *app.Dashboard {
		log := sr.Get("logger").(logger.LoggerInterface)
		accessors := app.Accessors{
			Chain:   statusDI.GetChainReader(sr),
			Indexer: statusDI.GetIndexerReader(sr),
		}
		return app.NewDashboard(chainDI.GetResolver(sr), accessors, statusDI.GetStream(sr), log)
	})

	return nil
}

// Startup wires the indicator health check and dashboard teardown. The
// first layer is activated by the caller so it can report progress.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	dashboard := statusDI.GetDashboard(mono.Services())

	mono.Health().RegisterCheck("indicators", dashboard.Check)
	mono.OnClose("dashboard", func() error {
		dashboard.Stop()
		return nil
	})

	log.Info(ctx, "status module started")
	return nil
}
