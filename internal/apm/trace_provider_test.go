package apm

import (
	"context"
	"io"
	"testing"

	"github.com/fd1az/bridge-status/internal/logger"
)

func TestParseProvider(t *testing.T) {
	tests := map[string]Provider{
		"zipkin":    ZipkinProvider,
		"OTLP-GRPC": OTLPGRPCProvider,
		"otlp-http": OTLPHTTPProvider,
		" console ": ConsoleProvider,
		"newrelic":  EmptyProvider,
		"":          EmptyProvider,
	}
	for in, want := range tests {
		if got := ParseProvider(in); got != want {
			t.Errorf("ParseProvider(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders("x-honeycomb-team=abc, api-key=def,broken")
	if len(got) != 2 || got["x-honeycomb-team"] != "abc" || got["api-key"] != "def" {
		t.Errorf("unexpected headers: %v", got)
	}
}

func TestNewTraceProvider_Empty(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	tp, err := NewTraceProvider(context.Background(), Config{Provider: EmptyProvider}, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tp.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
