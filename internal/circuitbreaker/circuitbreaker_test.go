package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/bridge-status/internal/apperror"
)

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cfg := DefaultConfig("test-rpc")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Minute

	cb := New[int](cfg)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	if apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeCircuitOpen)
	}
}

func TestCircuitBreaker_CanceledDoesNotTrip(t *testing.T) {
	cfg := DefaultConfig("test-rpc")
	cfg.FailureThreshold = 1

	cb := New[int](cfg)
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, context.Canceled })
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCall_Typed(t *testing.T) {
	cb := New[any](DefaultConfig("shared"))

	got, err := Call(cb, func() (string, error) { return "0x01", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0x01" {
		t.Errorf("got %q, want 0x01", got)
	}

	n, err := Call(cb, func() (*int, error) { return nil, nil })
	if err != nil || n != nil {
		t.Errorf("expected nil result without error, got %v, %v", n, err)
	}
}
