// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/bridge-status/business/chain/app"
	"github.com/fd1az/bridge-status/business/chain/infra/ethereum"
	"github.com/fd1az/bridge-status/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Resolver  = di.NewToken[*app.Resolver]("chain.Resolver")
	GasOracle = di.NewToken[app.GasOracle]("chain.GasOracle")
)

// Private dependency tokens - internal to chain module
var (
	Pool = di.NewToken[*ethereum.Pool]("chain:pool")
)

// Helper functions for type-safe access
func GetResolver(c di.ServiceRegistry) *app.Resolver {
	return di.GetToken(c, Resolver)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}

func GetPool(c di.ServiceRegistry) *ethereum.Pool {
	return di.GetToken(c, Pool)
}
