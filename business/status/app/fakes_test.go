package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	chainApp "github.com/fd1az/bridge-status/business/chain/app"
	chainDomain "github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/internal/asset"
	"github.com/fd1az/bridge-status/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

type fakeBackend struct{ name string }

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}
func (f *fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}
func (f *fakeBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}
func (f *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported")
}
func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error)   { return big.NewInt(1), nil }
func (f *fakeBackend) ChainID(context.Context) (*big.Int, error)           { return big.NewInt(1), nil }
func (f *fakeBackend) RawCall(context.Context, any, string, ...any) error { return nil }
func (f *fakeBackend) Name() string                                       { return f.name }

// fakeSub is a subscription that records releases.
type fakeSub struct {
	name   string
	unsubs atomic.Int32
	errc   chan error
	once   sync.Once
	onStop func()
}

func newFakeSub(name string, onStop func()) *fakeSub {
	return &fakeSub{name: name, errc: make(chan error, 1), onStop: onStop}
}

func (s *fakeSub) Unsubscribe() {
	s.unsubs.Add(1)
	s.once.Do(func() {
		if s.onStop != nil {
			s.onStop()
		}
		close(s.errc)
	})
}

func (s *fakeSub) Err() <-chan error { return s.errc }

// fakeChain answers every read with a value derived from the client name and
// records subscriptions.
type fakeChain struct {
	mu     sync.Mutex
	events []string
	subs   []*fakeSub
	proven []func(ProvenBlock)
}

func (f *fakeChain) record(ev string) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *fakeChain) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeChain) subscription(client chainApp.Backend) *fakeSub {
	name := client.Name()
	f.record("sub:" + name)
	sub := newFakeSub(name, func() { f.record("unsub:" + name) })
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub
}

func (f *fakeChain) text(client chainApp.Backend) (domain.Value, error) {
	return domain.Text(client.Name()), nil
}

func (f *fakeChain) LatestSyncedHeader(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) WatchSyncedHeaders(_ context.Context, c chainApp.Backend, _ common.Address, _ EmitFunc) (event.Subscription, error) {
	return f.subscription(c), nil
}
func (f *fakeChain) PendingTransactions(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) QueuedTransactions(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) GasPrice(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) AvailableSlots(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) LastVerifiedBlockID(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) NextBlockID(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) UnverifiedBlocks(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) EthDeposits(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) NextEthDeposit(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) BlockFee(_ context.Context, c chainApp.Backend, _ common.Address, _ *asset.Asset) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) ProofReward(_ context.Context, c chainApp.Backend, _ common.Address, _ *asset.Asset) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) AverageProofTime(_ context.Context, c chainApp.Backend, _ common.Address) (domain.Value, error) {
	return f.text(c)
}
func (f *fakeChain) WatchBlockProven(_ context.Context, c chainApp.Backend, _ common.Address, fn func(ProvenBlock)) (event.Subscription, error) {
	f.mu.Lock()
	f.proven = append(f.proven, fn)
	f.mu.Unlock()
	return f.subscription(c), nil
}

// prove delivers a BlockProven event to the latest watcher.
func (f *fakeChain) prove(p ProvenBlock) {
	f.mu.Lock()
	fn := f.proven[len(f.proven)-1]
	f.mu.Unlock()
	fn(p)
}

type fakeIndexer struct {
	provers   int64
	proposers int64
	calls     atomic.Int32
}

func (f *fakeIndexer) UniqueProvers(context.Context, string) (domain.Value, error) {
	f.calls.Add(1)
	return domain.Int64(f.provers), nil
}

func (f *fakeIndexer) UniqueProposers(context.Context, string) (domain.Value, error) {
	f.calls.Add(1)
	return domain.Int64(f.proposers), nil
}

var oracleProver = common.HexToAddress("0x1567CDAb5F7a69154e61A16D8Ff5eE6A3e991b39")

func fullConfig(baseName, rollupName string) *chainApp.ChainConfig {
	return &chainApp.ChainConfig{
		Layer: chainDomain.LayerTwo,
		Base: chainApp.Endpoint{
			Network: chainDomain.Network{Name: baseName, ExplorerURL: "https://" + baseName + ".explorer"},
			Client:  &fakeBackend{name: baseName},
			Rollup:  common.HexToAddress("0x01"),
		},
		Rollup: chainApp.Endpoint{
			Network: chainDomain.Network{Name: rollupName, ExplorerURL: "https://" + rollupName + ".explorer"},
			Client:  &fakeBackend{name: rollupName},
			Rollup:  common.HexToAddress("0x02"),
		},
		FeeToken:     asset.NewAsset("TKO", 8),
		OracleProver: oracleProver,
		IndexerURL:   "https://indexer.test",
	}
}
