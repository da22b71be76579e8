// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"

	"github.com/fd1az/bridge-status/business/chain/domain"
)

// Backend is the read-only chain handle shared by every indicator of a layer.
type Backend interface {
	ethereum.ContractCaller
	ethereum.LogFilterer
	ethereum.GasPricer

	// ChainID returns the chain id reported by the node.
	ChainID(ctx context.Context) (*big.Int, error)

	// RawCall performs a JSON-RPC call outside the typed eth namespace
	// (e.g. txpool_status).
	RawCall(ctx context.Context, result any, method string, args ...any) error

	// Name identifies the backend in logs and metrics.
	Name() string
}

// Dialer opens (or reuses) a Backend for a network.
type Dialer interface {
	Dial(ctx context.Context, network domain.Network) (Backend, error)
}

// GasOracle provides the current gas price of a chain.
type GasOracle interface {
	GasPrice(ctx context.Context, client Backend) (*domain.GasPrice, error)
}
