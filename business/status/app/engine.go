package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
	"github.com/fd1az/bridge-status/internal/logger"
)

const (
	tracerName = "github.com/fd1az/bridge-status/business/status/app"
	meterName  = "github.com/fd1az/bridge-status/business/status/app"
)

// IndicatorStats are the counters of one indicator.
type IndicatorStats struct {
	ID        string
	Strategy  string
	Attempts  uint64
	Failures  uint64
	Accepted  uint64
	Rejected  uint64
	LastError string
}

// EngineStats summarises an engine.
type EngineStats struct {
	Running    bool
	Indicators []IndicatorStats
}

// Failing returns the ids of indicators that have never accepted a value but
// failed at least once.
func (s EngineStats) Failing() []string {
	var ids []string
	for _, in := range s.Indicators {
		if in.Accepted == 0 && in.Failures > 0 {
			ids = append(ids, in.ID)
		}
	}
	return ids
}

// engineMetrics holds OTEL metric instruments.
type engineMetrics struct {
	fetches       metric.Int64Counter
	fetchLatency  metric.Float64Histogram
	rejected      metric.Int64Counter
	emissions     metric.Int64Counter
	subscriptions metric.Int64UpDownCounter
	panics        metric.Int64Counter
}

// indicator is the engine's runtime state of one descriptor.
type indicator struct {
	desc Descriptor
	seq  atomic.Uint64

	attempts atomic.Uint64
	failures atomic.Uint64
	accepted atomic.Uint64
	rejected atomic.Uint64
	lastErr  atomic.Value // string
}

// Engine drives descriptors and writes their values into a Stream. An Engine
// is single-use: Start once, StopAll when done.
type Engine struct {
	stream *Stream
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *engineMetrics

	mu         sync.RWMutex
	started    bool
	stopped    bool
	cancel     context.CancelFunc
	subs       []event.Subscription
	indicators []*indicator

	wg sync.WaitGroup
}

// NewEngine creates an engine writing into stream.
func NewEngine(stream *Stream, log logger.LoggerInterface) (*Engine, error) {
	e := &Engine{
		stream: stream,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return e, nil
}

// initMetrics initializes OTEL metric instruments.
func (e *Engine) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &engineMetrics{}

	e.metrics.fetches, err = meter.Int64Counter(
		"status_fetches_total",
		metric.WithDescription("Indicator fetches by result"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	e.metrics.fetchLatency, err = meter.Float64Histogram(
		"status_fetch_latency_ms",
		metric.WithDescription("Indicator fetch latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	e.metrics.rejected, err = meter.Int64Counter(
		"status_updates_rejected_total",
		metric.WithDescription("Updates discarded because a newer fetch already applied"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return err
	}

	e.metrics.emissions, err = meter.Int64Counter(
		"status_emissions_total",
		metric.WithDescription("Values emitted by event subscriptions"),
		metric.WithUnit("{emission}"),
	)
	if err != nil {
		return err
	}

	e.metrics.subscriptions, err = meter.Int64UpDownCounter(
		"status_active_subscriptions",
		metric.WithDescription("Live event subscriptions"),
		metric.WithUnit("{subscription}"),
	)
	if err != nil {
		return err
	}

	e.metrics.panics, err = meter.Int64Counter(
		"status_panics_recovered_total",
		metric.WithDescription("Panics recovered inside an indicator"),
		metric.WithUnit("{panic}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Start resets the stream to descriptors and activates one update mechanism
// per descriptor. ctx bounds the lifetime of every loop.
func (e *Engine) Start(ctx context.Context, descriptors []Descriptor) error {
	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := seen[d.ID]; dup {
			return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("duplicate indicator "+d.ID))
		}
		seen[d.ID] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started || e.stopped {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("engine already used"))
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)
	e.stream.Reset(descriptors)

	e.indicators = make([]*indicator, 0, len(descriptors))
	for _, d := range descriptors {
		in := &indicator{desc: d}
		in.lastErr.Store("")
		e.indicators = append(e.indicators, in)

		switch s := d.Strategy.(type) {
		case Poll:
			e.wg.Add(1)
			go e.poll(ctx, in, s)
		case Once:
			e.launch(ctx, in, s.Fetch)
		case Subscribe:
			go e.subscribe(ctx, in, s)
		}
	}

	e.logger.Info(ctx, "refresh engine started", "indicators", len(descriptors))
	return nil
}

// poll fetches immediately, then on every tick. Fetches may overlap.
func (e *Engine) poll(ctx context.Context, in *indicator, p Poll) {
	defer e.wg.Done()

	e.launch(ctx, in, p.Fetch)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.launch(ctx, in, p.Fetch)
		}
	}
}

// launch assigns the next sequence number and runs fetch in its own
// goroutine.
func (e *Engine) launch(ctx context.Context, in *indicator, fetch FetchFunc) {
	seq := in.seq.Add(1)
	go e.fetch(ctx, in, fetch, seq)
}

func (e *Engine) fetch(ctx context.Context, in *indicator, fetch FetchFunc, seq uint64) {
	attempt := in.attempts.Add(1)

	ctx, span := e.tracer.Start(ctx, "status.fetch",
		trace.WithAttributes(
			attribute.String("indicator", in.desc.ID),
			attribute.Int64("seq", int64(seq)),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.recovered(ctx, in, "fetch", r)
			span.SetStatus(codes.Error, "panic")
		}
	}()

	start := time.Now()
	value, err := fetch(ctx, in.desc.Client, in.desc.Contract)

	result := "ok"
	if err != nil {
		result = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("indicator", in.desc.ID),
		attribute.String("result", result),
	)
	e.metrics.fetches.Add(ctx, 1, attrs)
	e.metrics.fetchLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		failures := in.failures.Add(1)
		in.lastErr.Store(err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")

		logFn := e.logger.Warn
		if !apperror.IsTransient(err) {
			logFn = e.logger.Error
		}
		logFn(ctx, "indicator fetch failed",
			"indicator", in.desc.ID,
			"attempt", attempt,
			"failures", failures,
			"never_succeeded", in.accepted.Load() == 0,
			"error", apperror.Wrap(err, apperror.CodeIndicatorFetchFailed, in.desc.ID))
		return
	}

	e.apply(ctx, in, seq, value)
}

// subscribe seeds the indicator and establishes its event subscription.
func (e *Engine) subscribe(ctx context.Context, in *indicator, s Subscribe) {
	if s.Seed != nil {
		e.launch(ctx, in, s.Seed)
	}

	emit := func(v domain.Value) {
		defer func() {
			if r := recover(); r != nil {
				e.recovered(ctx, in, "emit", r)
			}
		}()
		e.metrics.emissions.Add(ctx, 1, metric.WithAttributes(attribute.String("indicator", in.desc.ID)))
		e.apply(ctx, in, in.seq.Add(1), v)
	}

	sub, err := e.establish(ctx, in, s.Subscribe, emit)
	if err != nil {
		if ctx.Err() == nil {
			in.failures.Add(1)
			in.lastErr.Store(err.Error())
			e.logger.Error(ctx, "indicator subscription failed",
				"indicator", in.desc.ID,
				"error", apperror.Wrap(err, apperror.CodeEventSubscriptionFailed, in.desc.ID))
		}
		return
	}

	if !e.track(sub) {
		sub.Unsubscribe()
		return
	}
	e.metrics.subscriptions.Add(ctx, 1, metric.WithAttributes(attribute.String("indicator", in.desc.ID)))
	e.logger.Debug(ctx, "indicator subscribed", "indicator", in.desc.ID)

	go e.watch(ctx, in, sub)
}

func (e *Engine) establish(ctx context.Context, in *indicator, fn SubscribeFunc, emit EmitFunc) (sub event.Subscription, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.recovered(ctx, in, "subscribe", r)
			sub, err = nil, apperror.New(apperror.CodeEventSubscriptionFailed,
				apperror.WithContext(fmt.Sprintf("%s: panic: %v", in.desc.ID, r)))
		}
	}()

	sub, err = fn(ctx, in.desc.Client, in.desc.Contract, emit)
	if err == nil && sub == nil {
		err = apperror.New(apperror.CodeEventSubscriptionFailed,
			apperror.WithContext(in.desc.ID+": no subscription returned"))
	}
	return sub, err
}

// track records sub for StopAll and reserves its watcher in the wait group.
// It reports false once the engine stopped.
func (e *Engine) track(sub event.Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return false
	}
	e.subs = append(e.subs, sub)
	e.wg.Add(1)
	return true
}

// watch logs a subscription that ends with an error.
func (e *Engine) watch(ctx context.Context, in *indicator, sub event.Subscription) {
	defer e.wg.Done()
	defer e.metrics.subscriptions.Add(context.Background(), -1,
		metric.WithAttributes(attribute.String("indicator", in.desc.ID)))

	select {
	case <-ctx.Done():
	case err, ok := <-sub.Err():
		if ok && err != nil && ctx.Err() == nil {
			in.failures.Add(1)
			in.lastErr.Store(err.Error())
			e.logger.Error(ctx, "indicator subscription ended",
				"indicator", in.desc.ID,
				"error", apperror.Wrap(err, apperror.CodeEventSubscriptionFailed, in.desc.ID))
		}
	}
}

// apply writes an update unless the engine has stopped. Holding the read
// lock across Stream.Apply lets StopAll wait for in-flight writes.
func (e *Engine) apply(ctx context.Context, in *indicator, seq uint64, v domain.Value) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.stopped {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.recovered(ctx, in, "classify", r)
		}
	}()

	if e.stream.Apply(in.desc.ID, seq, v) {
		in.accepted.Add(1)
		return
	}

	in.rejected.Add(1)
	e.metrics.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("indicator", in.desc.ID)))
	e.logger.Debug(ctx, "stale indicator update discarded", "indicator", in.desc.ID, "seq", seq)
}

func (e *Engine) recovered(ctx context.Context, in *indicator, stage string, r any) {
	in.failures.Add(1)
	in.lastErr.Store(fmt.Sprintf("panic in %s: %v", stage, r))
	e.metrics.panics.Add(ctx, 1, metric.WithAttributes(
		attribute.String("indicator", in.desc.ID),
		attribute.String("stage", stage),
	))
	e.logger.Error(ctx, "indicator panic recovered", "indicator", in.desc.ID, "stage", stage, "panic", r)
}

// StopAll cancels every loop and releases every subscription. No stream
// mutation happens after it returns. Safe to call repeatedly and before Start.
func (e *Engine) StopAll() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	if e.cancel != nil {
		e.cancel()
	}
	subs := e.subs
	e.subs = nil
	e.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	e.wg.Wait()

	e.logger.Info(context.Background(), "refresh engine stopped", "subscriptions", len(subs))
}

// Stats returns per-indicator counters in descriptor order.
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := EngineStats{
		Running:    e.started && !e.stopped,
		Indicators: make([]IndicatorStats, 0, len(e.indicators)),
	}
	for _, in := range e.indicators {
		stats.Indicators = append(stats.Indicators, IndicatorStats{
			ID:        in.desc.ID,
			Strategy:  in.desc.StrategyName(),
			Attempts:  in.attempts.Load(),
			Failures:  in.failures.Load(),
			Accepted:  in.accepted.Load(),
			Rejected:  in.rejected.Load(),
			LastError: in.lastErr.Load().(string),
		})
	}
	return stats
}
