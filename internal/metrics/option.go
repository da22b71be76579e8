package metrics

import (
	"strings"
	"time"
)

// Exporter selects where a reader ships metrics.
type Exporter string

const (
	ExporterPrometheus Exporter = "prometheus"
	ExporterOTLP       Exporter = "otlp"
)

const defaultOTLPInterval = 15 * time.Second

// Reader describes one metric reader of the meter provider.
type Reader struct {
	Exporter Exporter
	Endpoint string
	Headers  map[string]string
	Insecure bool
	Interval time.Duration
}

// PrometheusReader is scraped through the /metrics endpoint.
func PrometheusReader() Reader {
	return Reader{Exporter: ExporterPrometheus}
}

// OTLPReader pushes to a collector over gRPC. Plain http endpoints are dialed
// without TLS.
func OTLPReader(endpoint string, headers map[string]string) Reader {
	return Reader{
		Exporter: ExporterOTLP,
		Endpoint: endpoint,
		Headers:  headers,
		Insecure: strings.HasPrefix(endpoint, "http://"),
		Interval: defaultOTLPInterval,
	}
}

// Config is assembled from Options by NewMetricProvider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Readers        []Reader
}

type Option func(*Config)

// WithReader adds a reader.
func WithReader(r Reader) Option {
	return func(c *Config) {
		c.Readers = append(c.Readers, r)
	}
}

// WithService sets the service resource attributes.
func WithService(name, version string) Option {
	return func(c *Config) {
		c.ServiceName = name
		c.ServiceVersion = version
	}
}
