// Package app contains the indicator registry, the refresh engine and the
// status stream of the status context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	chainApp "github.com/fd1az/bridge-status/business/chain/app"
	chainDomain "github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/internal/asset"
)

// FetchFunc reads one value. Implementations must be read-only and
// idempotent; overlapping calls are allowed.
type FetchFunc func(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)

// EmitFunc delivers one value from a subscription. Safe for concurrent use.
type EmitFunc func(domain.Value)

// SubscribeFunc starts listening and calls emit for every new fact until the
// returned subscription is released.
type SubscribeFunc func(ctx context.Context, client chainApp.Backend, contract common.Address, emit EmitFunc) (event.Subscription, error)

// ProvenBlock is a BlockProven event of the base rollup contract.
type ProvenBlock struct {
	BlockID uint64
	Prover  common.Address
}

// ChainReader reads rollup state from chain clients.
type ChainReader interface {
	LatestSyncedHeader(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	WatchSyncedHeaders(ctx context.Context, client chainApp.Backend, contract common.Address, emit EmitFunc) (event.Subscription, error)

	PendingTransactions(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	QueuedTransactions(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	GasPrice(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)

	AvailableSlots(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	LastVerifiedBlockID(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	NextBlockID(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	UnverifiedBlocks(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	EthDeposits(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	NextEthDeposit(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)

	BlockFee(ctx context.Context, client chainApp.Backend, contract common.Address, token *asset.Asset) (domain.Value, error)
	ProofReward(ctx context.Context, client chainApp.Backend, contract common.Address, token *asset.Asset) (domain.Value, error)
	AverageProofTime(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error)
	WatchBlockProven(ctx context.Context, client chainApp.Backend, contract common.Address, fn func(ProvenBlock)) (event.Subscription, error)
}

// IndexerReader reads aggregate counts from the event indexer at baseURL.
type IndexerReader interface {
	UniqueProvers(ctx context.Context, baseURL string) (domain.Value, error)
	UniqueProposers(ctx context.Context, baseURL string) (domain.Value, error)
}

// Accessors groups the data sources indicators are built from.
type Accessors struct {
	Chain   ChainReader
	Indexer IndexerReader
}

// LayerResolver resolves a layer into its chain configuration.
type LayerResolver interface {
	Resolve(ctx context.Context, layer chainDomain.Layer) (*chainApp.ChainConfig, error)
}
