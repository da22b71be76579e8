package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	chainApp "github.com/fd1az/bridge-status/business/chain/app"
	chainDomain "github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
	"github.com/fd1az/bridge-status/internal/logger"
)

// Refresh intervals.
const (
	StateInterval     = 20 * time.Second
	FeeInterval       = 15 * time.Second
	ProofTimeInterval = 5 * time.Second
)

// Registry is the ordered indicator set of a layer plus the errors of
// optional indicators that could not be built.
type Registry struct {
	Descriptors []Descriptor
	Errors      []error
}

// IDs returns the descriptor ids in order.
func (r Registry) IDs() []string {
	ids := make([]string, len(r.Descriptors))
	for i, d := range r.Descriptors {
		ids[i] = d.ID
	}
	return ids
}

// RegistryOption configures BuildIndicators.
type RegistryOption func(*registryBuilder)

// WithClock sets the clock used by time-derived indicators.
func WithClock(now func() time.Time) RegistryOption {
	return func(b *registryBuilder) { b.now = now }
}

// WithRegistryLogger logs construction failures to log.
func WithRegistryLogger(log logger.LoggerInterface) RegistryOption {
	return func(b *registryBuilder) { b.logger = log }
}

type registryBuilder struct {
	cfg       *chainApp.ChainConfig
	accessors Accessors
	now       func() time.Time
	logger    logger.LoggerInterface

	reg Registry
}

// BuildIndicators returns the dashboard indicators for cfg. The same config
// always yields the same set in the same order. Indicators whose contract or
// indexer is not configured are omitted.
func BuildIndicators(cfg *chainApp.ChainConfig, accessors Accessors, opts ...RegistryOption) Registry {
	b := &registryBuilder{
		cfg:       cfg,
		accessors: accessors,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	base, rollup := cfg.Base, cfg.Rollup
	chain := accessors.Chain

	if cfg.IndexerURL != "" && accessors.Indexer != nil {
		b.add(b.uniqueProvers(), b.uniqueProposers())
	}

	if chain == nil {
		return b.reg
	}

	if base.HasRollup() {
		b.add(Descriptor{
			ID:       domain.L1LatestSyncedHeader,
			Header:   "L1 Latest Synced Header",
			Tooltip:  "The most recent Layer 2 Header that has been synchronized with the TaikoL1 smart contract.",
			Side:     chainDomain.SideBase,
			Client:   base.Client,
			Contract: base.Rollup,
			Strategy: Subscribe{Seed: chain.LatestSyncedHeader, Subscribe: chain.WatchSyncedHeaders},
			Classify: domain.ClassifyAlwaysGreen,
			Link:     domain.BlockLink(rollup.Network.ExplorerURL),
		})
	}

	if rollup.HasRollup() {
		b.add(Descriptor{
			ID:       domain.L2LatestSyncedHeader,
			Header:   "L2 Latest Synced Header",
			Tooltip:  "The most recent Layer 1 Header that has been synchronized with the TaikoL2 smart contract. The headers are synchronized with every L2 block.",
			Side:     chainDomain.SideRollup,
			Client:   rollup.Client,
			Contract: rollup.Rollup,
			Strategy: Subscribe{Seed: chain.LatestSyncedHeader, Subscribe: chain.WatchSyncedHeaders},
			Classify: domain.ClassifyAlwaysGreen,
			Link:     domain.BlockLink(base.Network.ExplorerURL),
		})
	}

	b.add(
		Descriptor{
			ID:       domain.TxMempoolPending,
			Header:   "Tx Mempool (pending)",
			Tooltip:  "The current processable transactions in the mempool that have not been added to a block yet.",
			Side:     chainDomain.SideRollup,
			Client:   rollup.Client,
			Strategy: Poll{Interval: StateInterval, Fetch: chain.PendingTransactions},
			Classify: domain.ClassifyMempool,
		},
		Descriptor{
			ID:       domain.TxMempoolQueued,
			Header:   "Tx Mempool (queued)",
			Tooltip:  "The current transactions in the mempool where the transaction nonce is not in sequence. They are currently non-processable.",
			Side:     chainDomain.SideRollup,
			Client:   rollup.Client,
			Strategy: Poll{Interval: StateInterval, Fetch: chain.QueuedTransactions},
			Classify: domain.ClassifyMempool,
		},
	)

	if base.HasRollup() {
		b.add(
			b.baseState(domain.AvailableSlots, "Available Slots",
				"The amount of slots for proposed blocks on the TaikoL1 smart contract. When this number is 0, no blocks can be proposed until a block has been proven.",
				chain.AvailableSlots, domain.ClassifyAvailableSlots, ""),
			b.baseState(domain.LastVerifiedBlockID, "Last Verified Block ID",
				"The most recently verified Layer 2 block on the TaikoL1 smart contract.",
				chain.LastVerifiedBlockID, domain.ClassifyAlwaysGreen, domain.BlockLink(rollup.Network.ExplorerURL)),
			b.baseState(domain.NextBlockID, "Next Block ID",
				"The ID that the next proposed block on the TaikoL1 smart contract will receive.",
				chain.NextBlockID, domain.ClassifyAlwaysGreen, ""),
			b.baseState(domain.UnverifiedBlocks, "Unverified Blocks",
				"The amount of pending proposed blocks that have not been proven on the TaikoL1 smart contract.",
				chain.UnverifiedBlocks, domain.ClassifyUnverifiedBlocks, ""),
			b.baseState(domain.EthDeposits, "ETH Deposits",
				"The number of pending ETH deposits for L1 => L2",
				chain.EthDeposits, domain.ClassifyEthDeposits, ""),
			b.baseState(domain.NextEthDeposit, "Next ETH Deposit",
				"The next ETH deposit that will be processed",
				chain.NextEthDeposit, domain.ClassifyAlwaysGreen, ""),
		)
	}

	b.add(Descriptor{
		ID:       domain.GasPrice,
		Header:   "Gas Price (gwei)",
		Tooltip:  "The current recommended gas price for a transaction on Layer 2.",
		Side:     chainDomain.SideRollup,
		Client:   rollup.Client,
		Strategy: Poll{Interval: StateInterval, Fetch: chain.GasPrice},
		Classify: domain.ClassifyAlwaysGreen,
	})

	if base.HasRollup() {
		b.optional(domain.BlockFee, b.blockFee)
		b.optional(domain.ProofReward, b.proofReward)
		b.optional(domain.LatestProof, b.latestProof)
		b.optional(domain.AverageProofTime, b.averageProofTime)
	}

	return b.reg
}

func (b *registryBuilder) add(ds ...Descriptor) {
	b.reg.Descriptors = append(b.reg.Descriptors, ds...)
}

// optional builds one descriptor and records, rather than propagates, a
// failure or panic.
func (b *registryBuilder) optional(id string, build func() (Descriptor, error)) {
	d, err := func() (d Descriptor, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		d, err = build()
		if err == nil {
			err = d.Validate()
		}
		return d, err
	}()

	if err != nil {
		err = apperror.New(apperror.CodeIndicatorBuildFailed,
			apperror.WithCause(err),
			apperror.WithContext(id))
		b.reg.Errors = append(b.reg.Errors, err)
		if b.logger != nil {
			b.logger.Warn(context.Background(), "optional indicator omitted", "indicator", id, "error", err)
		}
		return
	}
	b.add(d)
}

func (b *registryBuilder) baseState(id, header, tooltip string, fetch FetchFunc, classify domain.Classifier, link domain.Link) Descriptor {
	return Descriptor{
		ID:       id,
		Header:   header,
		Tooltip:  tooltip,
		Side:     chainDomain.SideBase,
		Client:   b.cfg.Base.Client,
		Contract: b.cfg.Base.Rollup,
		Strategy: Poll{Interval: StateInterval, Fetch: fetch},
		Classify: classify,
		Link:     link,
	}
}

func (b *registryBuilder) uniqueProvers() Descriptor {
	url := b.cfg.IndexerURL
	return Descriptor{
		ID:      domain.UniqueProvers,
		Header:  "Unique Provers",
		Tooltip: "The number of unique provers who successfully submitted a proof to the TaikoL1 smart contract.",
		Side:    chainDomain.SideBase,
		Client:  b.cfg.Base.Client,
		Strategy: Once{Fetch: func(ctx context.Context, _ chainApp.Backend, _ common.Address) (domain.Value, error) {
			return b.accessors.Indexer.UniqueProvers(ctx, url)
		}},
		Classify: domain.ClassifyAlwaysGreen,
		Link:     domain.Link(strings.TrimRight(url, "/") + "/uniqueProvers"),
	}
}

func (b *registryBuilder) uniqueProposers() Descriptor {
	url := b.cfg.IndexerURL
	return Descriptor{
		ID:      domain.UniqueProposers,
		Header:  "Unique Proposers",
		Tooltip: "The number of unique proposers who successfully submitted a proposed block to the TaikoL1 smart contract.",
		Side:    chainDomain.SideBase,
		Client:  b.cfg.Base.Client,
		Strategy: Once{Fetch: func(ctx context.Context, _ chainApp.Backend, _ common.Address) (domain.Value, error) {
			return b.accessors.Indexer.UniqueProposers(ctx, url)
		}},
		Classify: domain.ClassifyAlwaysGreen,
		Link:     domain.Link(strings.TrimRight(url, "/") + "/uniqueProposers"),
	}
}

func (b *registryBuilder) blockFee() (Descriptor, error) {
	token := b.cfg.FeeToken
	if token == nil {
		return Descriptor{}, fmt.Errorf("fee token not configured")
	}
	chain := b.accessors.Chain

	d := b.baseState(domain.BlockFee, "Block Fee",
		"The current fee to propose a block to the TaikoL1 smart contract.",
		func(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
			return chain.BlockFee(ctx, client, contract, token)
		},
		domain.ClassifyAlwaysGreen, "")
	d.Strategy = Poll{Interval: FeeInterval, Fetch: d.Strategy.(Poll).Fetch}
	return d, nil
}

func (b *registryBuilder) proofReward() (Descriptor, error) {
	token := b.cfg.FeeToken
	if token == nil {
		return Descriptor{}, fmt.Errorf("fee token not configured")
	}
	chain := b.accessors.Chain

	d := b.baseState(domain.ProofReward, "Proof Reward",
		"The current reward for successfully submitting a proof for a proposed block on the TaikoL1 smart contract.",
		func(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
			return chain.ProofReward(ctx, client, contract, token)
		},
		domain.ClassifyAlwaysGreen, "")
	d.Strategy = Poll{Interval: FeeInterval, Fetch: d.Strategy.(Poll).Fetch}
	return d, nil
}

// latestProof shows when a proof by anyone other than the oracle prover was
// last observed, as Unix milliseconds. The value is the observation time,
// not data from the event.
func (b *registryBuilder) latestProof() (Descriptor, error) {
	chain := b.accessors.Chain
	oracle := b.cfg.OracleProver
	now := b.now

	subscribe := func(ctx context.Context, client chainApp.Backend, contract common.Address, emit EmitFunc) (event.Subscription, error) {
		return chain.WatchBlockProven(ctx, client, contract, func(p ProvenBlock) {
			if IsOracleProver(p.Prover, oracle) {
				return
			}
			emit(domain.Int64(now().UnixMilli()))
		})
	}

	return Descriptor{
		ID:       domain.LatestProof,
		Header:   "Latest Proof",
		Tooltip:  "The most recent block proof submitted on TaikoL1 contract.",
		Side:     chainDomain.SideBase,
		Client:   b.cfg.Base.Client,
		Contract: b.cfg.Base.Rollup,
		Strategy: Subscribe{Subscribe: subscribe},
		Classify: domain.ClassifyAlwaysGreen,
		Initial:  domain.Int64(0),
	}, nil
}

func (b *registryBuilder) averageProofTime() (Descriptor, error) {
	d := b.baseState(domain.AverageProofTime, "Average Proof Time",
		"The current average proof time, updated when a block is successfully proven.",
		b.accessors.Chain.AverageProofTime, domain.ClassifyAlwaysGreen, "")
	d.Strategy = Poll{Interval: ProofTimeInterval, Fetch: b.accessors.Chain.AverageProofTime}
	return d, nil
}

// IsOracleProver reports whether prover is the oracle prover. Addresses
// compare by value, so hex case does not matter. A zero oracle matches
// nothing.
func IsOracleProver(prover, oracle common.Address) bool {
	if oracle == (common.Address{}) {
		return false
	}
	return prover == oracle
}
