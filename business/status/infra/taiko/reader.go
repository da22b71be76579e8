// Package taiko reads rollup state from the TaikoL1 and TaikoL2 contracts
// and the rollup node's transaction pool.
package taiko

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	chainApp "github.com/fd1az/bridge-status/business/chain/app"
	"github.com/fd1az/bridge-status/business/status/app"
	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
	"github.com/fd1az/bridge-status/internal/asset"
	"github.com/fd1az/bridge-status/internal/cache"
	"github.com/fd1az/bridge-status/internal/logger"
)

const (
	tracerName = "github.com/fd1az/bridge-status/business/status/infra/taiko"
	meterName  = "github.com/fd1az/bridge-status/business/status/infra/taiko"

	eventCrossChainSynced = "CrossChainSynced"
	eventBlockProven      = "BlockProven"
)

// errSubscriptionClosed reports a transport that closed a subscription
// without an error.
var errSubscriptionClosed = errors.New("log subscription closed by backend")

// Ensure Reader implements ChainReader.
var _ app.ChainReader = (*Reader)(nil)

// ReaderConfig holds reader settings.
type ReaderConfig struct {
	// StateTTL bounds how long contract state is shared between indicators
	// that poll together.
	StateTTL time.Duration
	// ConfigTTL bounds how long the protocol config is cached.
	ConfigTTL time.Duration
	// LogBuffer is the channel size for event subscriptions.
	LogBuffer int
	// ResubscribeBackoff caps the wait between attempts to re-establish a
	// dropped event subscription.
	ResubscribeBackoff time.Duration
	// CallTimeout bounds a shared contract read. Shared reads outlive the
	// caller that started them.
	CallTimeout time.Duration
}

// DefaultReaderConfig returns sensible defaults.
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		StateTTL:           2 * time.Second,
		ConfigTTL:          10 * time.Minute,
		LogBuffer:          16,
		ResubscribeBackoff: 30 * time.Second,
		CallTimeout:        15 * time.Second,
	}
}

// readerMetrics holds OTEL metric instruments.
type readerMetrics struct {
	calls        metric.Int64Counter
	cacheHits    metric.Int64Counter
	events       metric.Int64Counter
	resubscribes metric.Int64Counter
}

// Reader implements app.ChainReader over go-ethereum contract calls.
type Reader struct {
	config ReaderConfig
	abi    abi.ABI
	gas    chainApp.GasOracle
	logger logger.LoggerInterface

	group     singleflight.Group
	states    *cache.Cache[string, StateVariables]
	protocols *cache.Cache[string, uint64]
	txpools   *cache.Cache[string, TxPoolStatus]

	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewReader creates a contract reader.
func NewReader(cfg ReaderConfig, gas chainApp.GasOracle, log logger.LoggerInterface) (*Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(RollupABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rollup ABI: %w", err)
	}
	defaults := DefaultReaderConfig()
	if cfg.LogBuffer <= 0 {
		cfg.LogBuffer = defaults.LogBuffer
	}
	if cfg.ResubscribeBackoff <= 0 {
		cfg.ResubscribeBackoff = defaults.ResubscribeBackoff
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaults.CallTimeout
	}

	r := &Reader{
		config:    cfg,
		abi:       parsed,
		gas:       gas,
		logger:    log,
		states:    cache.New[string, StateVariables](cfg.StateTTL),
		protocols: cache.New[string, uint64](cfg.ConfigTTL),
		txpools:   cache.New[string, TxPoolStatus](cfg.StateTTL),
		tracer:    otel.Tracer(tracerName),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.calls, err = meter.Int64Counter(
		"taiko_contract_calls_total",
		metric.WithDescription("Rollup contract calls by method and result"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	r.metrics.cacheHits, err = meter.Int64Counter(
		"taiko_state_cache_hits_total",
		metric.WithDescription("Contract reads served from cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	r.metrics.events, err = meter.Int64Counter(
		"taiko_events_decoded_total",
		metric.WithDescription("Contract events decoded"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return err
	}

	r.metrics.resubscribes, err = meter.Int64Counter(
		"taiko_event_resubscribes_total",
		metric.WithDescription("Event subscriptions re-established after a drop"),
		metric.WithUnit("{resubscribe}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// call packs method, executes it read-only and unpacks the result.
func (r *Reader) call(ctx context.Context, client chainApp.Backend, contract common.Address, method string, args ...any) ([]any, error) {
	ctx, span := r.tracer.Start(ctx, "taiko."+method,
		trace.WithAttributes(
			attribute.String("backend", client.Name()),
			attribute.String("contract", contract.Hex()),
		),
	)
	defer span.End()

	result := "ok"
	defer func() {
		r.metrics.calls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("result", result),
		))
	}()

	data, err := r.abi.Pack(method, args...)
	if err != nil {
		result = "error"
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s on %s", method, contract.Hex())))
	}

	values, err := r.abi.Unpack(method, out)
	if err != nil {
		result = "error"
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("decode "+method))
	}
	if len(values) == 0 {
		result = "error"
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(method+": empty result"))
	}
	return values, nil
}

// shared runs fn once for every concurrent caller of key. fn runs detached
// from the cancellation of the caller that started it, so a caller that
// gives up never fails the others; each caller still returns on its own ctx.
func (r *Reader) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := r.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.CallTimeout)
		defer cancel()
		return fn(callCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func cacheKey(client chainApp.Backend, contract common.Address) string {
	return client.Name() + "|" + contract.Hex()
}

// StateVariables returns the contract's state. Concurrent callers share one
// call, and results are reused for StateTTL.
func (r *Reader) StateVariables(ctx context.Context, client chainApp.Backend, contract common.Address) (StateVariables, error) {
	key := cacheKey(client, contract)
	if s, ok := r.states.Get(key); ok {
		r.metrics.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("read", "state")))
		return s, nil
	}

	v, err := r.shared(ctx, "state|"+key, func(ctx context.Context) (any, error) {
		values, err := r.call(ctx, client, contract, "getStateVariables")
		if err != nil {
			return nil, err
		}
		state := *abi.ConvertType(values[0], new(StateVariables)).(*StateVariables)
		r.states.Set(key, state)
		return state, nil
	})
	if err != nil {
		return StateVariables{}, err
	}
	return v.(StateVariables), nil
}

// MaxProposedBlocks returns maxNumProposedBlocks from the protocol config.
func (r *Reader) MaxProposedBlocks(ctx context.Context, client chainApp.Backend, contract common.Address) (uint64, error) {
	key := cacheKey(client, contract)
	if n, ok := r.protocols.Get(key); ok {
		r.metrics.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("read", "config")))
		return n, nil
	}

	v, err := r.shared(ctx, "config|"+key, func(ctx context.Context) (any, error) {
		values, err := r.call(ctx, client, contract, "getConfig")
		if err != nil {
			return nil, err
		}
		cfg := abi.ConvertType(values[0], new(ProtocolConfig)).(*ProtocolConfig)
		if !cfg.MaxNumProposedBlocks.IsUint64() {
			return nil, apperror.New(apperror.CodeContractCallFailed,
				apperror.WithContext("maxNumProposedBlocks overflows uint64"))
		}
		n := cfg.MaxNumProposedBlocks.Uint64()
		r.protocols.Set(key, n)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

// TxPool returns the rollup node's transaction pool counters.
func (r *Reader) TxPool(ctx context.Context, client chainApp.Backend) (TxPoolStatus, error) {
	key := client.Name()
	if s, ok := r.txpools.Get(key); ok {
		r.metrics.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("read", "txpool")))
		return s, nil
	}

	v, err := r.shared(ctx, "txpool|"+key, func(ctx context.Context) (any, error) {
		var raw struct {
			Pending hexutil.Uint64 `json:"pending"`
			Queued  hexutil.Uint64 `json:"queued"`
		}
		if err := client.RawCall(ctx, &raw, "txpool_status"); err != nil {
			return nil, err
		}
		s := TxPoolStatus{Pending: uint64(raw.Pending), Queued: uint64(raw.Queued)}
		r.txpools.Set(key, s)
		return s, nil
	})
	if err != nil {
		return TxPoolStatus{}, err
	}
	return v.(TxPoolStatus), nil
}

// stateValue derives one value from the contract state.
func (r *Reader) stateValue(ctx context.Context, client chainApp.Backend, contract common.Address, fn func(StateVariables) uint64) (domain.Value, error) {
	s, err := r.StateVariables(ctx, client, contract)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.Uint64(fn(s)), nil
}

// LatestSyncedHeader returns the latest synced block hash of the other chain.
func (r *Reader) LatestSyncedHeader(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
	values, err := r.call(ctx, client, contract, "getCrossChainBlockHash", big.NewInt(0))
	if err != nil {
		return domain.Value{}, err
	}
	hash := common.Hash(values[0].([32]byte))
	return domain.Text(hash.Hex()), nil
}

// WatchSyncedHeaders emits the block hash of every CrossChainSynced event.
func (r *Reader) WatchSyncedHeaders(ctx context.Context, client chainApp.Backend, contract common.Address, emit app.EmitFunc) (event.Subscription, error) {
	return r.watch(ctx, client, contract, eventCrossChainSynced, func(l types.Log) error {
		values, err := r.abi.Unpack(eventCrossChainSynced, l.Data)
		if err != nil {
			return err
		}
		emit(domain.Text(common.Hash(values[0].([32]byte)).Hex()))
		return nil
	})
}

// WatchBlockProven reports the prover of every BlockProven event.
func (r *Reader) WatchBlockProven(ctx context.Context, client chainApp.Backend, contract common.Address, fn func(app.ProvenBlock)) (event.Subscription, error) {
	return r.watch(ctx, client, contract, eventBlockProven, func(l types.Log) error {
		values, err := r.abi.Unpack(eventBlockProven, l.Data)
		if err != nil {
			return err
		}
		if len(values) < 4 {
			return fmt.Errorf("unexpected BlockProven payload: %d fields", len(values))
		}

		var id uint64
		if len(l.Topics) > 1 {
			id = new(big.Int).SetBytes(l.Topics[1].Bytes()).Uint64()
		}
		fn(app.ProvenBlock{BlockID: id, Prover: values[3].(common.Address)})
		return nil
	})
}

// watch subscribes to one event of contract and hands each log to handle.
// Undecodable logs are logged and skipped. The first subscription is made
// before returning so an unusable endpoint fails the caller; later drops
// are re-established with backoff until the subscription is released.
func (r *Reader) watch(ctx context.Context, client chainApp.Backend, contract common.Address, name string, handle func(types.Log) error) (event.Subscription, error) {
	ev, ok := r.abi.Events[name]
	if !ok {
		return nil, fmt.Errorf("event %s not in ABI", name)
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{ev.ID}},
	}

	first, err := r.subscribeLogs(ctx, client, query, name, handle)
	if err != nil {
		return nil, apperror.New(apperror.CodeEventSubscriptionFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s on %s", name, contract.Hex())))
	}

	logCtx := context.WithoutCancel(ctx)
	attrs := metric.WithAttributes(attribute.String("event", name))
	return event.ResubscribeErr(r.config.ResubscribeBackoff, func(subCtx context.Context, lastErr error) (event.Subscription, error) {
		if first != nil {
			sub := first
			first = nil
			return sub, nil
		}

		r.logger.Warn(logCtx, "event subscription lost, resubscribing",
			"event", name, "backend", client.Name(), "error", lastErr)
		sub, err := r.subscribeLogs(subCtx, client, query, name, handle)
		if err != nil {
			r.logger.Warn(logCtx, "event resubscribe failed",
				"event", name, "backend", client.Name(), "error", err)
			return nil, err
		}
		r.metrics.resubscribes.Add(logCtx, 1, attrs)
		return sub, nil
	}), nil
}

// subscribeLogs opens one log subscription. Its Err channel reports the
// transport error that ended it.
func (r *Reader) subscribeLogs(ctx context.Context, client chainApp.Backend, query ethereum.FilterQuery, name string, handle func(types.Log) error) (event.Subscription, error) {
	logs := make(chan types.Log, r.config.LogBuffer)
	sub, err := client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, err
	}

	logCtx := context.WithoutCancel(ctx)
	attrs := metric.WithAttributes(attribute.String("event", name))
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case <-quit:
				return nil
			case err, ok := <-sub.Err():
				if !ok || err == nil {
					err = errSubscriptionClosed
				}
				return err
			case l := <-logs:
				if l.Removed {
					continue
				}
				if err := handle(l); err != nil {
					r.logger.Warn(logCtx, "undecodable event skipped",
						"event", name, "tx", l.TxHash.Hex(), "error", err)
					continue
				}
				r.metrics.events.Add(logCtx, 1, attrs)
			}
		}
	}), nil
}

// PendingTransactions returns the processable mempool size.
func (r *Reader) PendingTransactions(ctx context.Context, client chainApp.Backend, _ common.Address) (domain.Value, error) {
	s, err := r.TxPool(ctx, client)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.Uint64(s.Pending), nil
}

// QueuedTransactions returns the non-processable mempool size.
func (r *Reader) QueuedTransactions(ctx context.Context, client chainApp.Backend, _ common.Address) (domain.Value, error) {
	s, err := r.TxPool(ctx, client)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.Uint64(s.Queued), nil
}

// GasPrice returns the rollup's gas price in gwei.
func (r *Reader) GasPrice(ctx context.Context, client chainApp.Backend, _ common.Address) (domain.Value, error) {
	price, err := r.gas.GasPrice(ctx, client)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.Number(price.Gwei()), nil
}

// AvailableSlots returns how many more blocks can be proposed.
func (r *Reader) AvailableSlots(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
	limit, err := r.MaxProposedBlocks(ctx, client, contract)
	if err != nil {
		return domain.Value{}, err
	}
	return r.stateValue(ctx, client, contract, func(s StateVariables) uint64 {
		return saturatingSub(limit, s.PendingBlocks())
	})
}

// LastVerifiedBlockID returns the latest verified block id.
func (r *Reader) LastVerifiedBlockID(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
	return r.stateValue(ctx, client, contract, func(s StateVariables) uint64 { return s.LastVerifiedBlockId })
}

// NextBlockID returns the id the next proposed block will receive.
func (r *Reader) NextBlockID(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
	return r.stateValue(ctx, client, contract, func(s StateVariables) uint64 { return s.NumBlocks })
}

// UnverifiedBlocks returns the number of proposed but unverified blocks.
func (r *Reader) UnverifiedBlocks(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
	return r.stateValue(ctx, client, contract, StateVariables.PendingBlocks)
}

// EthDeposits returns the number of pending ETH deposits.
func (r *Reader) EthDeposits(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
	return r.stateValue(ctx, client, contract, StateVariables.PendingEthDeposits)
}

// NextEthDeposit returns the id of the next ETH deposit to process.
func (r *Reader) NextEthDeposit(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
	return r.stateValue(ctx, client, contract, func(s StateVariables) uint64 { return s.NextEthDepositToProcess })
}

// BlockFee returns the current block proposal fee.
func (r *Reader) BlockFee(ctx context.Context, client chainApp.Backend, contract common.Address, token *asset.Asset) (domain.Value, error) {
	values, err := r.call(ctx, client, contract, "getBlockFee")
	if err != nil {
		return domain.Value{}, err
	}
	fee := asset.NewAmountFromUint64(token, values[0].(uint64))
	return domain.NumberWithUnit(fee.ToDecimal(), token.Symbol()), nil
}

// ProofReward returns the reward for a proof delivered at the current
// average proof time.
func (r *Reader) ProofReward(ctx context.Context, client chainApp.Backend, contract common.Address, token *asset.Asset) (domain.Value, error) {
	s, err := r.StateVariables(ctx, client, contract)
	if err != nil {
		return domain.Value{}, err
	}
	values, err := r.call(ctx, client, contract, "getProofReward", s.ProofTimeSeconds())
	if err != nil {
		return domain.Value{}, err
	}
	reward := asset.NewAmountFromUint64(token, values[0].(uint64))
	return domain.NumberWithUnit(reward.ToDecimal(), token.Symbol()), nil
}

// AverageProofTime returns the issued proof time in seconds.
func (r *Reader) AverageProofTime(ctx context.Context, client chainApp.Backend, contract common.Address) (domain.Value, error) {
	s, err := r.StateVariables(ctx, client, contract)
	if err != nil {
		return domain.Value{}, err
	}
	seconds := decimal.NewFromUint64(s.ProofTimeIssued).Div(decimal.NewFromInt(1000))
	return domain.NumberWithUnit(seconds, "seconds"), nil
}
