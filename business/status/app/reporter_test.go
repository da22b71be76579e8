package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fd1az/bridge-status/business/status/domain"
)

type recordingReporter struct {
	mu        sync.Mutex
	snapshots [][]domain.Status
	reports   []domain.Status
}

func (r *recordingReporter) Snapshot(statuses []domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, statuses)
}

func (r *recordingReporter) Report(status domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, status)
}

func (r *recordingReporter) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots), len(r.reports)
}

func TestForward(t *testing.T) {
	stream := NewStream()
	stream.Reset([]Descriptor{{ID: "a", Classify: domain.ClassifyAlwaysGreen}})

	ctx, cancel := context.WithCancel(context.Background())
	rep := &recordingReporter{}
	done := make(chan struct{})
	go func() {
		Forward(ctx, stream, rep, 8)
		close(done)
	}()

	eventually(t, time.Second, func() bool { s, _ := rep.counts(); return s == 1 }, "initial snapshot missing")

	stream.Apply("a", 1, domain.Int64(3))
	eventually(t, time.Second, func() bool { _, n := rep.counts(); return n == 1 }, "update not forwarded")

	stream.Reset([]Descriptor{{ID: "b"}, {ID: "c"}})
	eventually(t, time.Second, func() bool { s, _ := rep.counts(); return s == 2 }, "reset not forwarded")

	rep.mu.Lock()
	if got := rep.snapshots[1]; len(got) != 2 || got[0].ID != "b" {
		t.Errorf("reset snapshot = %v", got)
	}
	if !rep.reports[0].Value.Equal(domain.Int64(3)) {
		t.Errorf("report = %+v", rep.reports[0])
	}
	rep.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward did not return after cancel")
	}
}

// blockingReporter stalls on its first Report until release is closed.
type blockingReporter struct {
	recordingReporter
	release chan struct{}
	once    sync.Once
	entered chan struct{}
}

func (r *blockingReporter) Report(status domain.Status) {
	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})
	r.recordingReporter.Report(status)
}

func (r *blockingReporter) latest(id string) (domain.Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return domain.Status{}, false
	}
	for _, s := range r.snapshots[len(r.snapshots)-1] {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Status{}, false
}

func TestForward_SlowReporterCatchesUp(t *testing.T) {
	stream := NewStream()
	stream.Reset([]Descriptor{{ID: "a"}, {ID: "b"}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := &blockingReporter{release: make(chan struct{}), entered: make(chan struct{})}
	go Forward(ctx, stream, rep, 1)

	eventually(t, time.Second, func() bool { s, _ := rep.counts(); return s == 1 }, "initial snapshot missing")

	stream.Apply("a", 1, domain.Int64(1))
	<-rep.entered

	for seq := uint64(1); seq <= 3; seq++ {
		stream.Apply("b", seq, domain.Uint64(seq+4))
	}
	if stream.Dropped() == 0 {
		t.Fatal("expected updates to be dropped on the stalled reporter")
	}
	close(rep.release)

	eventually(t, time.Second, func() bool {
		s, ok := rep.latest("b")
		return ok && s.Value.Equal(domain.Uint64(7))
	}, "reporter never caught up with b")
}
