package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chainApp "github.com/fd1az/bridge-status/business/chain/app"
	chainDomain "github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/internal/logger"
)

// Dashboard owns the active layer's engine. Activations are serialised and
// always stop the previous engine before anything of the new layer starts.
type Dashboard struct {
	resolver  LayerResolver
	accessors Accessors
	stream    *Stream
	logger    logger.LoggerInterface
	regOpts   []RegistryOption

	mu       sync.Mutex
	engine   *Engine
	layer    chainDomain.Layer
	config   *chainApp.ChainConfig
	registry Registry
}

// NewDashboard creates a dashboard writing into stream.
func NewDashboard(resolver LayerResolver, accessors Accessors, stream *Stream, log logger.LoggerInterface, opts ...RegistryOption) *Dashboard {
	return &Dashboard{
		resolver:  resolver,
		accessors: accessors,
		stream:    stream,
		logger:    log,
		regOpts:   append([]RegistryOption{WithRegistryLogger(log)}, opts...),
	}
}

// Activate tears down the current layer and starts layer. ctx must outlive
// the activation; cancelling it stops every indicator loop.
func (d *Dashboard) Activate(ctx context.Context, layer chainDomain.Layer) (Registry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	cfg, err := d.resolver.Resolve(ctx, layer)
	if err != nil {
		d.stream.Reset(nil)
		return Registry{}, err
	}

	reg := BuildIndicators(cfg, d.accessors, d.regOpts...)

	engine, err := NewEngine(d.stream, d.logger)
	if err != nil {
		return Registry{}, err
	}
	if err := engine.Start(ctx, reg.Descriptors); err != nil {
		engine.StopAll()
		d.stream.Reset(nil)
		return Registry{}, err
	}

	d.engine = engine
	d.layer = layer
	d.config = cfg
	d.registry = reg

	d.logger.Info(ctx, "dashboard activated",
		"layer", layer.String(),
		"indicators", len(reg.Descriptors),
		"omitted_with_errors", len(reg.Errors))
	return reg, nil
}

// Stop tears down the active layer. Safe to call repeatedly.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Dashboard) stopLocked() {
	if d.engine == nil {
		return
	}
	d.engine.StopAll()
	d.engine = nil
	d.layer = 0
	d.config = nil
}

// Layer returns the active layer, or zero when nothing is active.
func (d *Dashboard) Layer() chainDomain.Layer {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.engine == nil {
		return 0
	}
	return d.layer
}

// Config returns the active chain configuration.
func (d *Dashboard) Config() *chainApp.ChainConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// Registry returns the registry of the last successful activation.
func (d *Dashboard) Registry() Registry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry
}

// Stream returns the status stream.
func (d *Dashboard) Stream() *Stream {
	return d.stream
}

// Stats returns the active engine's counters.
func (d *Dashboard) Stats() EngineStats {
	d.mu.Lock()
	engine := d.engine
	d.mu.Unlock()

	if engine == nil {
		return EngineStats{}
	}
	return engine.Stats()
}

// Check is a health check: the dashboard is active and no indicator has only
// ever failed.
func (d *Dashboard) Check(ctx context.Context) (bool, string) {
	stats := d.Stats()
	if !stats.Running {
		return false, "dashboard not active"
	}
	if failing := stats.Failing(); len(failing) > 0 {
		return false, "failing: " + strings.Join(failing, ", ")
	}
	return true, fmt.Sprintf("%d indicators", len(stats.Indicators))
}
