package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

func newReaders(ctx context.Context, cfg Config) ([]sdkmetric.Reader, error) {
	readers := make([]sdkmetric.Reader, 0, len(cfg.Readers))

	for _, r := range cfg.Readers {
		switch r.Exporter {
		case ExporterPrometheus:
			exp, err := prometheus.New()
			if err != nil {
				return nil, fmt.Errorf("prometheus exporter: %w", err)
			}
			readers = append(readers, exp)

		case ExporterOTLP:
			opts := []otlpmetricgrpc.Option{
				otlpmetricgrpc.WithEndpointURL(r.Endpoint),
				otlpmetricgrpc.WithHeaders(r.Headers),
			}
			if r.Insecure {
				opts = append(opts, otlpmetricgrpc.WithInsecure())
			}

			exp, err := otlpmetricgrpc.New(ctx, opts...)
			if err != nil {
				return nil, fmt.Errorf("otlp metric exporter: %w", err)
			}

			interval := r.Interval
			if interval <= 0 {
				interval = defaultOTLPInterval
			}
			readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)))

		default:
			return nil, fmt.Errorf("unknown metric exporter %q", r.Exporter)
		}
	}

	return readers, nil
}

// NewMetricProvider builds a meter provider from the configured readers and
// installs it globally so every adapter's otel.Meter picks it up.
func NewMetricProvider(ctx context.Context, options ...Option) (MetricProvider, error) {
	var cfg Config
	for _, opt := range options {
		opt(&cfg)
	}
	if len(cfg.Readers) == 0 {
		return nil, fmt.Errorf("no metric readers configured")
	}

	readers, err := newReaders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := make([]sdkmetric.Option, 0, len(readers)+1)
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	opts = append(opts, sdkmetric.WithResource(resource.NewSchemaless(attrs...)))

	meterProvider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

// PrometheusServer exposes /metrics for the Prometheus reader.
type PrometheusServer struct {
	server *http.Server
}

// NewPrometheusServer creates a metrics server on port.
func NewPrometheusServer(port int) *PrometheusServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &PrometheusServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background. Listen errors are reported through errFn.
func (s *PrometheusServer) Start(errFn func(error)) {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && errFn != nil {
			errFn(err)
		}
	}()
}

// Stop gracefully stops the server.
func (s *PrometheusServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
