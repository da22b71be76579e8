package metrics

import (
	"context"
	"testing"
)

func TestNewMetricProvider_Prometheus(t *testing.T) {
	mp, err := NewMetricProvider(context.Background(),
		WithService("bridge-status-test", "dev"),
		WithReader(PrometheusReader()),
	)
	if err != nil {
		t.Fatalf("NewMetricProvider: %v", err)
	}
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("indicator_fetch_total")
	if err != nil {
		t.Fatalf("Int64Counter: %v", err)
	}
	counter.Add(context.Background(), 1)
}

func TestNewMetricProvider_NoReaders(t *testing.T) {
	if _, err := NewMetricProvider(context.Background(), WithService("svc", "")); err == nil {
		t.Fatal("expected error without readers")
	}
}

func TestOTLPReader(t *testing.T) {
	tests := []struct {
		endpoint     string
		wantInsecure bool
	}{
		{"http://collector:4317", true},
		{"https://collector.example.com:4317", false},
	}

	for _, tt := range tests {
		r := OTLPReader(tt.endpoint, map[string]string{"x-api-key": "k"})
		if r.Exporter != ExporterOTLP || r.Insecure != tt.wantInsecure {
			t.Errorf("%s: reader = %+v", tt.endpoint, r)
		}
		if r.Interval != defaultOTLPInterval {
			t.Errorf("%s: interval = %s", tt.endpoint, r.Interval)
		}
	}
}
