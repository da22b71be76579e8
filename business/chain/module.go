// Package chain implements the chain bounded context: layers, networks and
// the shared RPC handles every indicator reads through.
package chain

import (
	"context"

	"github.com/fd1az/bridge-status/business/chain/app"
	chainDI "github.com/fd1az/bridge-status/business/chain/di"
	"github.com/fd1az/bridge-status/business/chain/infra/ethereum"
	"github.com/fd1az/bridge-status/internal/config"
	"github.com/fd1az/bridge-status/internal/di"
	"github.com/fd1az/bridge-status/internal/logger"
	"github.com/fd1az/bridge-status/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Pool (private - shared client handles)
	di.RegisterToken(c, chainDI.Pool, func(sr di.ServiceRegistry) *ethereum.Pool {
		log := sr.Get("logger").(logger.LoggerInterface)
		return ethereum.NewPool(log)
	})

	// Register GasOracle (public)
	di.RegisterToken(c, chainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		log := sr.Get("logger").(logger.LoggerInterface)

		oracle, err := ethereum.NewGasOracle(ethereum.DefaultGasOracleConfig(), log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	// Register Resolver (public)
	di.RegisterToken(c, chainDI.Resolver, func(sr di.ServiceRegistry) *app.Resolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewResolver(cfg, chainDI.GetPool(sr), log)
	})

	return nil
}

// Startup wires the chain health check and pool teardown.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	pool := chainDI.GetPool(mono.Services())

	mono.Health().RegisterCheck("chain", pool.Check)
	mono.OnClose("chain pool", func() error {
		pool.Close()
		return nil
	})

	log.Info(ctx, "chain module started")
	return nil
}
