package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	chainApp "github.com/fd1az/bridge-status/business/chain/app"
	"github.com/fd1az/bridge-status/business/status/domain"
)

func newTestEngine(t *testing.T) (*Engine, *Stream) {
	t.Helper()
	stream := NewStream()
	engine, err := NewEngine(stream, testLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(engine.StopAll)
	return engine, stream
}

func counterFetch(n *atomic.Int64) FetchFunc {
	return func(context.Context, chainApp.Backend, common.Address) (domain.Value, error) {
		return domain.Int64(n.Add(1)), nil
	}
}

func TestEngine_PollFetchesImmediatelyAndRepeats(t *testing.T) {
	engine, stream := newTestEngine(t)

	var slow, fast atomic.Int64
	err := engine.Start(context.Background(), []Descriptor{
		{
			ID:       "slow",
			Strategy: Poll{Interval: time.Hour, Fetch: counterFetch(&slow)},
			Classify: domain.ClassifyAlwaysGreen,
		},
		{
			ID:       "fast",
			Strategy: Poll{Interval: 20 * time.Millisecond, Fetch: counterFetch(&fast)},
			Classify: domain.ClassifyAlwaysGreen,
		},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	eventually(t, time.Second, func() bool { return slow.Load() == 1 },
		"first fetch should not wait for the interval")
	eventually(t, time.Second, func() bool { return fast.Load() >= 4 },
		"poll should keep fetching every interval")

	st, _ := stream.Get("fast")
	if st.Value.IsUnknown() || st.Color != domain.ColorGreen {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestEngine_OnceFetchesExactlyOnce(t *testing.T) {
	engine, stream := newTestEngine(t)

	var calls atomic.Int64
	err := engine.Start(context.Background(), []Descriptor{{
		ID:       "once",
		Strategy: Once{Fetch: counterFetch(&calls)},
		Classify: domain.ClassifyAlwaysGreen,
	}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	eventually(t, time.Second, func() bool {
		st, _ := stream.Get("once")
		return !st.Value.IsUnknown()
	}, "once value never applied")

	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch called %d times, want 1", got)
	}
}

func TestEngine_LastWriteWins(t *testing.T) {
	engine, stream := newTestEngine(t)

	release := make(chan struct{})
	var calls atomic.Int64
	fetch := func(ctx context.Context, _ chainApp.Backend, _ common.Address) (domain.Value, error) {
		if calls.Add(1) == 1 {
			<-release
			return domain.Text("A"), nil
		}
		return domain.Text("B"), nil
	}

	err := engine.Start(context.Background(), []Descriptor{{
		ID:       "lww",
		Strategy: Poll{Interval: 10 * time.Millisecond, Fetch: fetch},
		Classify: domain.ClassifyAlwaysGreen,
	}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	eventually(t, time.Second, func() bool {
		st, _ := stream.Get("lww")
		return st.Value.Equal(domain.Text("B"))
	}, "later fetch should apply while the first is outstanding")

	close(release)

	eventually(t, time.Second, func() bool {
		for _, in := range engine.Stats().Indicators {
			if in.ID == "lww" && in.Rejected > 0 {
				return true
			}
		}
		return false
	}, "late result of the first fetch should be rejected")

	st, _ := stream.Get("lww")
	if !st.Value.Equal(domain.Text("B")) {
		t.Errorf("value = %s, want B", st.Value)
	}
}

func TestEngine_FailureKeepsLastValue(t *testing.T) {
	engine, stream := newTestEngine(t)

	var calls atomic.Int64
	fetch := func(context.Context, chainApp.Backend, common.Address) (domain.Value, error) {
		if calls.Add(1) == 1 {
			return domain.Int64(7), nil
		}
		return domain.Value{}, errors.New("rpc unavailable")
	}

	err := engine.Start(context.Background(), []Descriptor{{
		ID:       "unverified",
		Strategy: Poll{Interval: 10 * time.Millisecond, Fetch: fetch},
		Classify: domain.ClassifyUnverifiedBlocks,
	}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	eventually(t, time.Second, func() bool { return calls.Load() >= 5 },
		"loop should continue after failures")

	st, _ := stream.Get("unverified")
	if !st.Value.Equal(domain.Int64(7)) || st.Color != domain.ColorGreen {
		t.Errorf("status = %s/%s, want 7/green", st.Value, st.Color)
	}

	stats := engine.Stats().Indicators[0]
	if stats.Failures == 0 || stats.LastError == "" {
		t.Errorf("failures not recorded: %+v", stats)
	}
}

func TestEngine_NoMutationAfterStopAll(t *testing.T) {
	stream := NewStream()
	engine, err := NewEngine(stream, testLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	release := make(chan struct{})
	var calls atomic.Int64
	hung := func(context.Context, chainApp.Backend, common.Address) (domain.Value, error) {
		<-release
		return domain.Text("late"), nil
	}

	const interval = 10 * time.Millisecond
	err = engine.Start(context.Background(), []Descriptor{
		{ID: "poll", Strategy: Poll{Interval: interval, Fetch: counterFetch(&calls)}, Classify: domain.ClassifyAlwaysGreen},
		{ID: "hung", Strategy: Once{Fetch: hung}, Classify: domain.ClassifyAlwaysGreen},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	eventually(t, time.Second, func() bool { return calls.Load() >= 2 }, "poll never ran")

	engine.StopAll()
	engine.StopAll()

	before := stream.Snapshot()
	sub := stream.Subscribe(16)
	defer sub.Cancel()

	close(release)
	time.Sleep(3 * interval * 2)

	select {
	case u := <-sub.C:
		t.Fatalf("stream mutated after StopAll: %+v", u)
	default:
	}

	after := stream.Snapshot()
	for i := range before {
		if before[i].Seq != after[i].Seq || !before[i].Value.Equal(after[i].Value) {
			t.Errorf("%s changed after StopAll", before[i].ID)
		}
	}
	if engine.Stats().Running {
		t.Error("engine should report stopped")
	}
}

func TestEngine_SubscribeSeedsAndReleasesOnce(t *testing.T) {
	engine, stream := newTestEngine(t)

	sub := newFakeSub("events", nil)
	var emit EmitFunc
	subscribed := make(chan struct{})

	err := engine.Start(context.Background(), []Descriptor{{
		ID: "events",
		Strategy: Subscribe{
			Seed: func(context.Context, chainApp.Backend, common.Address) (domain.Value, error) {
				return domain.Text("seed"), nil
			},
			Subscribe: func(_ context.Context, _ chainApp.Backend, _ common.Address, e EmitFunc) (event.Subscription, error) {
				emit = e
				close(subscribed)
				return sub, nil
			},
		},
		Classify: domain.ClassifyAlwaysGreen,
	}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	<-subscribed
	eventually(t, time.Second, func() bool {
		st, _ := stream.Get("events")
		return !st.Value.IsUnknown()
	}, "seed or emission never applied")

	emit(domain.Text("0xabc"))
	st, _ := stream.Get("events")
	if !st.Value.Equal(domain.Text("0xabc")) {
		t.Errorf("value = %s, want emitted value", st.Value)
	}

	engine.StopAll()
	engine.StopAll()
	eventually(t, time.Second, func() bool { return sub.unsubs.Load() >= 1 }, "subscription never released")
	time.Sleep(10 * time.Millisecond)
	if got := sub.unsubs.Load(); got != 1 {
		t.Errorf("Unsubscribe called %d times, want 1", got)
	}

	emit(domain.Text("after-stop"))
	st, _ = stream.Get("events")
	if st.Value.Equal(domain.Text("after-stop")) {
		t.Error("emission after StopAll must not reach the stream")
	}
}

func TestEngine_PanicsAreIsolated(t *testing.T) {
	engine, stream := newTestEngine(t)

	panicky := func(context.Context, chainApp.Backend, common.Address) (domain.Value, error) {
		panic("decoder bug")
	}
	badClassifier := func(domain.Value) domain.Color { panic("classifier bug") }

	var calls atomic.Int64
	err := engine.Start(context.Background(), []Descriptor{
		{ID: "panics", Strategy: Once{Fetch: panicky}, Classify: domain.ClassifyAlwaysGreen},
		{ID: "bad-classify", Strategy: Once{Fetch: counterFetch(&calls)}, Classify: badClassifier},
		{
			ID: "bad-subscribe",
			Strategy: Subscribe{Subscribe: func(context.Context, chainApp.Backend, common.Address, EmitFunc) (event.Subscription, error) {
				panic("listener bug")
			}},
			Classify: domain.ClassifyAlwaysGreen,
		},
		{ID: "healthy", Strategy: Once{Fetch: counterFetch(&calls)}, Classify: domain.ClassifyAlwaysGreen},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	eventually(t, time.Second, func() bool {
		st, _ := stream.Get("healthy")
		return !st.Value.IsUnknown()
	}, "healthy indicator should be unaffected")

	eventually(t, time.Second, func() bool {
		var failing int
		for _, in := range engine.Stats().Indicators {
			if in.Failures > 0 {
				failing++
			}
		}
		return failing == 3
	}, "each panic should be recorded against its own indicator")

	if st, _ := stream.Get("bad-classify"); !st.Value.IsUnknown() {
		t.Error("a panicking classifier must not change the stream")
	}
}

func TestEngine_StartValidation(t *testing.T) {
	t.Run("duplicate ids", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		d := Descriptor{ID: "x", Strategy: Once{Fetch: counterFetch(new(atomic.Int64))}, Classify: domain.ClassifyAlwaysGreen}
		if err := engine.Start(context.Background(), []Descriptor{d, d}); err == nil {
			t.Error("expected duplicate id error")
		}
	})

	t.Run("invalid poll interval", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		d := Descriptor{ID: "x", Strategy: Poll{Fetch: counterFetch(new(atomic.Int64))}, Classify: domain.ClassifyAlwaysGreen}
		if err := engine.Start(context.Background(), []Descriptor{d}); err == nil {
			t.Error("expected invalid interval error")
		}
	})

	t.Run("single use", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		if err := engine.Start(context.Background(), nil); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := engine.Start(context.Background(), nil); err == nil {
			t.Error("second Start should fail")
		}
	})

	t.Run("stop before start", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		engine.StopAll()
		if err := engine.Start(context.Background(), nil); err == nil {
			t.Error("Start after StopAll should fail")
		}
	})
}
