package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bridge-status/business/chain/app"
	"github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/internal/cache"
	"github.com/fd1az/bridge-status/internal/logger"
)

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL    time.Duration // How long to cache gas prices
	MaxGasPrice *big.Int      // Prices above this are logged as suspicious
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig() GasOracleConfig {
	maxGas := new(big.Int)
	maxGas.SetString("500000000000", 10) // 500 gwei

	return GasOracleConfig{
		CacheTTL:    5 * time.Second,
		MaxGasPrice: maxGas,
	}
}

// gasOracleMetrics holds OTEL metric instruments.
type gasOracleMetrics struct {
	gasPriceFetches metric.Int64Counter
	gasPriceGwei    metric.Float64Gauge
	cacheHits       metric.Int64Counter
}

// GasOracle reads gas prices with a short per-backend cache.
type GasOracle struct {
	config GasOracleConfig
	logger logger.LoggerInterface
	now    func() time.Time

	priceCache *cache.Cache[string, *domain.GasPrice]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

var _ app.GasOracle = (*GasOracle)(nil)

// NewGasOracle creates a new gas oracle instance.
func NewGasOracle(cfg GasOracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config:     cfg,
		logger:     log,
		now:        time.Now,
		priceCache: cache.New[string, *domain.GasPrice](cfg.CacheTTL),
		tracer:     otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return g, nil
}

// initMetrics initializes OTEL metric instruments.
func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.gasPriceFetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GasPrice retrieves the current gas price of client's chain.
func (g *GasOracle) GasPrice(ctx context.Context, client app.Backend) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.get_price",
		trace.WithAttributes(attribute.String("backend", client.Name())),
	)
	defer span.End()

	backendAttr := metric.WithAttributes(attribute.String("backend", client.Name()))

	if price, found := g.priceCache.Get(client.Name()); found {
		g.metrics.cacheHits.Add(ctx, 1, backendAttr)
		span.AddEvent("cache_hit")
		return price, nil
	}

	g.metrics.gasPriceFetches.Add(ctx, 1, backendAttr)

	wei, err := client.SuggestGasPrice(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	if g.config.MaxGasPrice != nil && wei.Cmp(g.config.MaxGasPrice) > 0 {
		span.AddEvent("gas_price_exceeded_max",
			trace.WithAttributes(attribute.String("wei", wei.String())))
		g.logger.Warn(ctx, "gas price exceeds max", "backend", client.Name(), "wei", wei.String())
	}

	price := domain.NewGasPrice(wei, g.now())
	g.priceCache.Set(client.Name(), price)

	gwei, _ := price.Gwei().Float64()
	g.metrics.gasPriceGwei.Record(ctx, gwei, backendAttr)

	span.SetAttributes(attribute.Float64("gwei", gwei))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}
