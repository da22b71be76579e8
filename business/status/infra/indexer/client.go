// Package indexer reads prover and proposer statistics from the event
// indexer HTTP API.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fd1az/bridge-status/business/status/app"
	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
	"github.com/fd1az/bridge-status/internal/cache"
	"github.com/fd1az/bridge-status/internal/circuitbreaker"
	"github.com/fd1az/bridge-status/internal/httpclient"
	"github.com/fd1az/bridge-status/internal/logger"
	"github.com/fd1az/bridge-status/internal/ratelimit"
)

const (
	pathUniqueProvers   = "/uniqueProvers"
	pathUniqueProposers = "/uniqueProposers"
)

// Ensure Client implements IndexerReader.
var _ app.IndexerReader = (*Client)(nil)

// Config holds indexer client settings.
type Config struct {
	RequestsPerMinute int
	Timeout           time.Duration
	CacheTTL          time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Timeout:           10 * time.Second,
		CacheTTL:          30 * time.Second,
	}
}

type uniqueProversResponse struct {
	UniqueProvers uint64 `json:"uniqueProvers"`
}

type uniqueProposersResponse struct {
	UniqueProposers uint64 `json:"uniqueProposers"`
}

// Client implements app.IndexerReader over the indexer REST API. The base
// URL is passed per call since it changes with the active layer.
type Client struct {
	http    httpclient.Client
	breaker *circuitbreaker.CircuitBreaker[any]
	group   singleflight.Group
	counts  *cache.Cache[string, uint64]
	logger  logger.LoggerInterface
}

// NewClient creates an indexer client.
func NewClient(cfg Config, log logger.LoggerInterface, opts ...httpclient.ClientOption) (*Client, error) {
	base := []httpclient.ClientOption{
		httpclient.WithProviderName("event-indexer"),
		httpclient.WithRateLimiter(ratelimit.New(cfg.RequestsPerMinute)),
	}
	if cfg.Timeout > 0 {
		base = append(base, httpclient.WithRequestTimeout(cfg.Timeout))
	}

	hc, err := httpclient.NewInstrumentedClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return newClient(hc, cfg, log), nil
}

func newClient(hc httpclient.Client, cfg Config, log logger.LoggerInterface) *Client {
	return &Client{
		http:    hc,
		breaker: circuitbreaker.New[any](circuitbreaker.DefaultConfig("event-indexer")),
		counts:  cache.New[string, uint64](cfg.CacheTTL),
		logger:  log,
	}
}

// UniqueProvers returns the number of distinct addresses that proved blocks.
func (c *Client) UniqueProvers(ctx context.Context, baseURL string) (domain.Value, error) {
	n, err := c.count(ctx, baseURL, pathUniqueProvers, func(ctx context.Context) (uint64, error) {
		var resp uniqueProversResponse
		err := c.http.GetJSON(ctx, join(baseURL, pathUniqueProvers), nil, &resp)
		return resp.UniqueProvers, err
	})
	if err != nil {
		return domain.Value{}, err
	}
	return domain.Uint64(n), nil
}

// UniqueProposers returns the number of distinct addresses that proposed blocks.
func (c *Client) UniqueProposers(ctx context.Context, baseURL string) (domain.Value, error) {
	n, err := c.count(ctx, baseURL, pathUniqueProposers, func(ctx context.Context) (uint64, error) {
		var resp uniqueProposersResponse
		err := c.http.GetJSON(ctx, join(baseURL, pathUniqueProposers), nil, &resp)
		return resp.UniqueProposers, err
	})
	if err != nil {
		return domain.Value{}, err
	}
	return domain.Uint64(n), nil
}

// count serves path from cache or one shared request. The request runs
// detached from the cancellation of the caller that started it.
func (c *Client) count(ctx context.Context, baseURL, path string, get func(context.Context) (uint64, error)) (uint64, error) {
	if baseURL == "" {
		return 0, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("event indexer url not configured"))
	}

	key := join(baseURL, path)
	if n, ok := c.counts.Get(key); ok {
		return n, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		reqCtx := context.WithoutCancel(ctx)
		n, err := circuitbreaker.Call(c.breaker, func() (uint64, error) { return get(reqCtx) })
		if err != nil {
			return nil, err
		}
		c.counts.Set(key, n)
		return n, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res = <-ch:
	}

	v, err := res.Val, res.Err
	if err != nil {
		c.logger.Debug(ctx, "indexer request failed", "url", key, "error", err)
		return 0, apperror.New(apperror.CodeIndexerRequestFailed,
			apperror.WithCause(err),
			apperror.WithContext(key))
	}
	return v.(uint64), nil
}

func join(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + path
}
