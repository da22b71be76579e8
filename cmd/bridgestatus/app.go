package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fd1az/bridge-status/business/chain"
	"github.com/fd1az/bridge-status/business/status"
	"github.com/fd1az/bridge-status/internal/apm"
	"github.com/fd1az/bridge-status/internal/config"
	"github.com/fd1az/bridge-status/internal/logger"
	"github.com/fd1az/bridge-status/internal/metrics"
	"github.com/fd1az/bridge-status/internal/monolith"
)

// application is the subset of the monolith the commands drive.
type application interface {
	monolith.Monolith
	RegisterModules(modules ...monolith.Module) error
	StartModules(ctx context.Context, modules ...monolith.Module) error
	Close() error
}

// runtime holds everything a command has to tear down.
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	mono    application
	modules []monolith.Module
	closers []func(context.Context)
}

// bootstrap loads configuration, sets up logging and telemetry and registers
// every module. Modules are started separately so the TUI can show progress.
func bootstrap(ctx context.Context, opts *rootOptions, newLogger func(cfg *config.Config) *logger.Logger) (*runtime, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger(cfg)
	rt := &runtime{cfg: cfg, log: log}

	if cfg.Telemetry.Enabled {
		if err := rt.initTelemetry(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	}

	rt.mono = monolith.New(cfg, log, version)
	rt.modules = []monolith.Module{
		&chain.Module{},  // Must be first - provides clients and layer resolution
		&status.Module{}, // Depends on chain for the resolver and gas oracle
	}

	if err := rt.mono.RegisterModules(rt.modules...); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}

	if cfg.Health.Enabled {
		health := rt.mono.Health()
		health.Start()
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
		rt.closers = append(rt.closers, func(ctx context.Context) { _ = health.Stop(ctx) })
	}

	return rt, nil
}

func (rt *runtime) initTelemetry(ctx context.Context) error {
	cfg := rt.cfg.Telemetry

	tp, err := apm.NewTraceProvider(ctx, apm.Config{
		Provider:    apm.ParseProvider(cfg.TraceProvider),
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Headers:     cfg.OTLPHeaders,
	}, rt.log)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	rt.closers = append(rt.closers, func(context.Context) { _ = tp.Stop() })
	rt.log.Info(ctx, "tracing initialized", "provider", cfg.TraceProvider, "endpoint", cfg.OTLPEndpoint)

	metricOpts := []metrics.Option{
		metrics.WithService(cfg.ServiceName, version),
		metrics.WithReader(metrics.PrometheusReader()),
	}
	if apm.ParseProvider(cfg.TraceProvider) == apm.OTLPGRPCProvider && cfg.OTLPEndpoint != "" {
		metricOpts = append(metricOpts, metrics.WithReader(
			metrics.OTLPReader(cfg.OTLPEndpoint, apm.ParseHeaders(cfg.OTLPHeaders)),
		))
	}

	mp, err := metrics.NewMetricProvider(ctx, metricOpts...)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	rt.closers = append(rt.closers, func(ctx context.Context) { _ = mp.Shutdown(ctx) })

	port := cfg.PrometheusPort
	if port == 0 {
		port = 9090
	}
	prom := metrics.NewPrometheusServer(port)
	prom.Start(func(err error) {
		rt.log.Warn(context.Background(), "prometheus server stopped", "port", port, "error", err)
	})
	rt.closers = append(rt.closers, func(ctx context.Context) { _ = prom.Stop(ctx) })
	rt.log.Info(ctx, "prometheus metrics server started", "port", port)

	return nil
}

// Start runs every module's startup hook.
func (rt *runtime) Start(ctx context.Context) error {
	if err := rt.mono.StartModules(ctx, rt.modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return nil
}

// Close stops the modules and then the telemetry and health servers.
func (rt *runtime) Close() {
	if rt.mono != nil {
		if err := rt.mono.Close(); err != nil {
			rt.log.Error(context.Background(), "shutdown errors", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i](ctx)
	}
}

// consoleLogger writes human friendly logs to stderr.
func consoleLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.ConsoleWriter(os.Stderr), logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, logger.TraceIDFromContext)
}

// eventLogger discards output and forwards warnings and errors to fn.
func eventLogger(fn logger.EventFn) func(cfg *config.Config) *logger.Logger {
	return func(cfg *config.Config) *logger.Logger {
		return logger.NewWithEvents(io.Discard, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, logger.TraceIDFromContext,
			logger.Events{Warn: fn, Error: fn})
	}
}
