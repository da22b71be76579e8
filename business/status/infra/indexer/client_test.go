package indexer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
	"github.com/fd1az/bridge-status/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/uniqueProvers":
			w.Write([]byte(`{"uniqueProvers":12,"provers":[]}`))
		case "/api/uniqueProposers":
			w.Write([]byte(`{"uniqueProposers":4,"proposers":[]}`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Counts(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)

	client, err := NewClient(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tests := []struct {
		name  string
		fetch func(context.Context, string) (domain.Value, error)
		want  uint64
	}{
		{"provers", client.UniqueProvers, 12},
		{"proposers", client.UniqueProposers, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fetch(context.Background(), srv.URL+"/api/")
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if !got.Equal(domain.Uint64(tt.want)) {
				t.Errorf("got %s, want %d", got, tt.want)
			}
		})
	}

	if _, err := client.UniqueProvers(context.Background(), srv.URL+"/api"); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2 (second provers read is cached)", hits.Load())
	}
}

func TestClient_Errors(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)

	client, err := NewClient(Config{Timeout: time.Second}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.UniqueProvers(context.Background(), srv.URL+"/missing")
	if apperror.GetCode(err) != apperror.CodeIndexerRequestFailed {
		t.Errorf("status error code = %s", apperror.GetCode(err))
	}

	_, err = client.UniqueProposers(context.Background(), "")
	if apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("empty url code = %s", apperror.GetCode(err))
	}
}

func TestClient_SharedRequestSurvivesCancelledCaller(t *testing.T) {
	var hits atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(entered)
		}
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uniqueProvers":12,"provers":[]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := client.UniqueProvers(ctx, srv.URL)
		first <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the server")
	}

	type result struct {
		v   domain.Value
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := client.UniqueProvers(context.Background(), srv.URL)
		second <- result{v, err}
	}()

	cancel()
	select {
	case err := <-first:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case res := <-second:
		if res.err != nil {
			t.Fatalf("second caller: %v", res.err)
		}
		if !res.v.Equal(domain.Uint64(12)) {
			t.Errorf("second caller got %s, want 12", res.v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}

	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}
