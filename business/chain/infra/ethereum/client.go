// Package ethereum provides go-ethereum adapters for the chain context.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
	"github.com/fd1az/bridge-status/internal/circuitbreaker"
	"github.com/fd1az/bridge-status/internal/logger"
)

const (
	tracerName = "github.com/fd1az/bridge-status/business/chain/infra/ethereum"
	meterName  = "github.com/fd1az/bridge-status/business/chain/infra/ethereum"
)

// ClientConfig holds configuration for a chain client.
type ClientConfig struct {
	Name         string
	URL          string
	PollInterval time.Duration // log polling interval when push subscriptions are unavailable
	DialTimeout  time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(name, url string) ClientConfig {
	return ClientConfig{
		Name:         name,
		URL:          url,
		PollInterval: 12 * time.Second, // ~1 block
		DialTimeout:  10 * time.Second,
	}
}

// clientMetrics holds OTEL metric instruments.
type clientMetrics struct {
	rpcCalls        metric.Int64Counter
	rpcLatency      metric.Float64Histogram
	pollFallback    metric.Int64Counter
	logsDelivered   metric.Int64Counter
	connectionState metric.Int64Gauge
}

// Client is a shared, read-only chain handle. Every call goes through a
// per-endpoint circuit breaker.
type Client struct {
	config ClientConfig
	logger logger.LoggerInterface

	eth *ethclient.Client
	rpc *rpc.Client

	pushCapable atomic.Bool
	state       atomic.Value // domain.ConnectionState
	lastErr     atomic.Value // string
	lastUpdate  atomic.Int64

	closeMu sync.Mutex
	closed  atomic.Bool

	cb *circuitbreaker.CircuitBreaker[any]

	tracer  trace.Tracer
	metrics *clientMetrics
}

// Dial connects to cfg.URL.
func Dial(ctx context.Context, cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	c := &Client{
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	c.state.Store(domain.StateDisconnected)
	c.lastErr.Store("")

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	c.initCircuitBreaker()

	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// initMetrics initializes OTEL metric instruments.
func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.rpcCalls, err = meter.Int64Counter(
		"chain_rpc_calls_total",
		metric.WithDescription("Total chain RPC calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	c.metrics.rpcLatency, err = meter.Float64Histogram(
		"chain_rpc_latency_ms",
		metric.WithDescription("Chain RPC call latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	c.metrics.pollFallback, err = meter.Int64Counter(
		"chain_log_poll_fallback_total",
		metric.WithDescription("Log subscriptions served by polling"),
		metric.WithUnit("{subscription}"),
	)
	if err != nil {
		return err
	}

	c.metrics.logsDelivered, err = meter.Int64Counter(
		"chain_logs_delivered_total",
		metric.WithDescription("Logs delivered by polling subscriptions"),
		metric.WithUnit("{log}"),
	)
	if err != nil {
		return err
	}

	c.metrics.connectionState, err = meter.Int64Gauge(
		"chain_connection_state",
		metric.WithDescription("Chain connection state (0=disconnected, 1=connecting, 2=connected)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	return nil
}

func (c *Client) initCircuitBreaker() {
	cfg := circuitbreaker.DefaultConfig("chain-" + c.config.Name)
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		c.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	c.cb = circuitbreaker.New[any](cfg)
}

func (c *Client) connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "chain.connect",
		trace.WithAttributes(
			attribute.String("name", c.config.Name),
			attribute.String("url", c.config.URL),
		),
	)
	defer span.End()

	if c.config.URL == "" {
		err := apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithContext(c.config.Name+": url not configured"))
		span.RecordError(err)
		return err
	}

	c.setState(ctx, domain.StateConnecting)

	dialCtx := ctx
	if c.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.config.DialTimeout)
		defer cancel()
	}

	rc, err := rpc.DialContext(dialCtx, c.config.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		c.setState(ctx, domain.StateDisconnected)
		c.lastErr.Store(err.Error())
		return apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name))
	}

	c.rpc = rc
	c.eth = ethclient.NewClient(rc)
	c.pushCapable.Store(isPushURL(c.config.URL))
	c.setState(ctx, domain.StateConnected)

	span.SetStatus(codes.Ok, "connected")
	c.logger.Info(ctx, "chain client connected",
		"name", c.config.Name, "url", c.config.URL, "push", c.pushCapable.Load())
	return nil
}

func isPushURL(url string) bool {
	return strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") ||
		!strings.Contains(url, "://") // IPC path
}

// call runs fn through the circuit breaker with tracing and metrics.
func call[T any](ctx context.Context, c *Client, method string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if c.closed.Load() {
		return zero, apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithContext(c.config.Name+": client closed"))
	}

	ctx, span := c.tracer.Start(ctx, "chain."+method,
		trace.WithAttributes(attribute.String("backend", c.config.Name)),
	)
	defer span.End()

	start := time.Now()
	result, err := circuitbreaker.Call(c.cb, func() (T, error) { return fn(ctx) })

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, method+" failed")
		if !errors.Is(err, context.Canceled) {
			c.lastErr.Store(err.Error())
		}
	}
	c.lastUpdate.Store(time.Now().UnixNano())

	attrs := metric.WithAttributes(
		attribute.String("backend", c.config.Name),
		attribute.String("method", method),
		attribute.String("result", outcome),
	)
	c.metrics.rpcCalls.Add(ctx, 1, attrs)
	c.metrics.rpcLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		if apperror.IsAppError(err) {
			return zero, err
		}
		return zero, apperror.New(apperror.CodeChainRPCError,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name+" "+method))
	}
	return result, nil
}

// Name identifies the client in logs and metrics.
func (c *Client) Name() string {
	return c.config.Name
}

// CodeAt returns the contract code at account.
func (c *Client) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return call(ctx, c, "code_at", func(ctx context.Context) ([]byte, error) {
		return c.eth.CodeAt(ctx, account, blockNumber)
	})
}

// CallContract executes a read-only contract call.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return call(ctx, c, "call_contract", func(ctx context.Context) ([]byte, error) {
		return c.eth.CallContract(ctx, msg, blockNumber)
	})
}

// FilterLogs returns logs matching q.
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return call(ctx, c, "filter_logs", func(ctx context.Context) ([]types.Log, error) {
		return c.eth.FilterLogs(ctx, q)
	})
}

// SuggestGasPrice returns the node's gas price suggestion.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return call(ctx, c, "gas_price", func(ctx context.Context) (*big.Int, error) {
		return c.eth.SuggestGasPrice(ctx)
	})
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return call(ctx, c, "chain_id", func(ctx context.Context) (*big.Int, error) {
		return c.eth.ChainID(ctx)
	})
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return call(ctx, c, "block_number", func(ctx context.Context) (uint64, error) {
		return c.eth.BlockNumber(ctx)
	})
}

// RawCall performs an arbitrary JSON-RPC call.
func (c *Client) RawCall(ctx context.Context, result any, method string, args ...any) error {
	_, err := call(ctx, c, method, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.rpc.CallContext(ctx, result, method, args...)
	})
	return err
}

// SubscribeFilterLogs streams logs matching q. Push subscriptions are used
// when the transport supports them; otherwise logs are polled.
func (c *Client) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	ctx, span := c.tracer.Start(ctx, "chain.subscribe_logs",
		trace.WithAttributes(
			attribute.String("backend", c.config.Name),
			attribute.Bool("push", c.pushCapable.Load()),
		),
	)
	defer span.End()

	if c.closed.Load() {
		return nil, apperror.New(apperror.CodeChainConnectionFailed,
			apperror.WithContext(c.config.Name+": client closed"))
	}

	if c.pushCapable.Load() {
		sub, err := c.eth.SubscribeFilterLogs(ctx, q, ch)
		if err == nil {
			span.SetStatus(codes.Ok, "subscribed")
			return sub, nil
		}
		if !errors.Is(err, rpc.ErrNotificationsUnsupported) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "subscribe failed")
			return nil, apperror.New(apperror.CodeEventSubscriptionFailed,
				apperror.WithCause(err),
				apperror.WithContext(c.config.Name))
		}
		c.pushCapable.Store(false)
		c.logger.Warn(ctx, "push subscriptions unsupported, polling logs", "backend", c.config.Name)
	}

	span.AddEvent("poll_fallback")
	c.metrics.pollFallback.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", c.config.Name)))

	from, err := c.BlockNumber(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeEventSubscriptionFailed,
			apperror.WithCause(err),
			apperror.WithContext(c.config.Name))
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		return c.pollLogs(q, from+1, ch, quit)
	}), nil
}

// pollLogs delivers logs in block order starting at next until quit closes.
func (c *Client) pollLogs(q ethereum.FilterQuery, next uint64, ch chan<- types.Log, quit <-chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-quit
		cancel()
	}()

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return nil
		case <-ticker.C:
		}

		head, err := c.BlockNumber(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn(ctx, "log poll head failed", "backend", c.config.Name, "error", err)
			continue
		}
		if head < next {
			continue
		}

		query := q
		query.FromBlock = new(big.Int).SetUint64(next)
		query.ToBlock = new(big.Int).SetUint64(head)

		logs, err := c.FilterLogs(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn(ctx, "log poll failed", "backend", c.config.Name, "from", next, "to", head, "error", err)
			continue
		}

		for _, l := range logs {
			select {
			case ch <- l:
				c.metrics.logsDelivered.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", c.config.Name)))
			case <-quit:
				return nil
			}
		}
		next = head + 1
	}
}

// Status returns detailed connection status.
func (c *Client) Status() domain.ConnectionStatus {
	var updated time.Time
	if ns := c.lastUpdate.Load(); ns > 0 {
		updated = time.Unix(0, ns)
	}
	return domain.ConnectionStatus{
		Name:       c.config.Name,
		URL:        c.config.URL,
		State:      c.state.Load().(domain.ConnectionState),
		UsingHTTP:  !c.pushCapable.Load(),
		LastError:  c.lastErr.Load().(string),
		LastUpdate: updated,
	}
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed.Load() {
		return
	}
	c.closed.Store(true)

	if c.rpc != nil {
		c.rpc.Close()
	}
	c.setState(context.Background(), domain.StateDisconnected)
	c.logger.Info(context.Background(), "chain client closed", "name", c.config.Name)
}

func (c *Client) setState(ctx context.Context, state domain.ConnectionState) {
	c.state.Store(state)

	stateValue := int64(0)
	switch state {
	case domain.StateConnecting:
		stateValue = 1
	case domain.StateConnected:
		stateValue = 2
	}

	c.metrics.connectionState.Record(ctx, stateValue,
		metric.WithAttributes(attribute.String("backend", c.config.Name)))
}
