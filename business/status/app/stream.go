package app

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fd1az/bridge-status/business/status/domain"
)

// Update is delivered to stream subscribers. Reset means the subscriber
// must resynchronise from Subscription.Snapshot: either the indicator set
// changed or updates were dropped on its full buffer.
type Update struct {
	Status domain.Status
	Reset  bool
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithStreamClock sets the clock used to stamp accepted updates.
func WithStreamClock(now func() time.Time) StreamOption {
	return func(s *Stream) { s.now = now }
}

type streamEntry struct {
	status   domain.Status
	classify domain.Classifier
}

// subscriber channels hold buffer updates plus one slot reserved for a
// resync marker. resync is set while a marker is pending.
type subscriber struct {
	ch     chan Update
	buffer int
	resync atomic.Bool
}

// Stream holds the latest value and color of every indicator and fans
// accepted updates out to subscribers.
type Stream struct {
	now func() time.Time

	mu      sync.RWMutex
	order   []string
	entries map[string]*streamEntry

	subMu sync.Mutex
	subs  map[*subscriber]struct{}

	dropped atomic.Uint64
}

// NewStream creates an empty stream.
func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{
		now:     time.Now,
		entries: make(map[string]*streamEntry),
		subs:    make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset replaces the indicator set. Every entry starts at its Initial value,
// or unknown.
func (s *Stream) Reset(descriptors []Descriptor) {
	s.mu.Lock()
	s.order = make([]string, 0, len(descriptors))
	s.entries = make(map[string]*streamEntry, len(descriptors))
	for _, d := range descriptors {
		st := domain.Status{
			ID:      d.ID,
			Header:  d.Header,
			Tooltip: d.Tooltip,
			Value:   d.Initial,
			Color:   domain.ColorUnknown,
			Link:    d.Link,
		}
		if !d.Initial.IsUnknown() && d.Classify != nil {
			st.Color = d.Classify(d.Initial)
		}
		s.order = append(s.order, d.ID)
		s.entries[d.ID] = &streamEntry{status: st, classify: d.Classify}
	}
	s.publish(Update{Reset: true})
	s.mu.Unlock()
}

// Apply records value for id if seq is newer than the last applied sequence.
// It reports whether the update was accepted. The classifier runs only for
// accepted updates.
func (s *Stream) Apply(id string, seq uint64, value domain.Value) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || seq <= e.status.Seq {
		return false
	}

	color := domain.ColorGreen
	if e.classify != nil {
		color = e.classify(value)
	}

	e.status.Value = value
	e.status.Color = color
	e.status.Seq = seq
	e.status.UpdatedAt = s.now()
	s.publish(Update{Status: e.status})
	return true
}

// Get returns the current status of id.
func (s *Stream) Get(id string) (domain.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.Status{}, false
	}
	return e.status, true
}

// Snapshot returns every status in indicator order.
func (s *Stream) Snapshot() []domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Status, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].status)
	}
	return out
}

// Subscription is one subscriber's view of the stream.
type Subscription struct {
	// C receives accepted updates in apply order.
	C <-chan Update

	stream *Stream
	sub    *subscriber
	once   sync.Once
}

// Subscribe registers a subscriber with the given channel buffer. Updates
// that do not fit are dropped and replaced by a single Reset update, so the
// subscriber catches up on its next Snapshot.
func (s *Stream) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{ch: make(chan Update, buffer+1), buffer: buffer}

	s.subMu.Lock()
	s.subs[sub] = struct{}{}
	s.subMu.Unlock()

	return &Subscription{C: sub.ch, stream: s, sub: sub}
}

// Snapshot returns every status in indicator order and re-arms the resync
// marker for later drops.
func (s *Subscription) Snapshot() []domain.Status {
	s.sub.resync.Store(false)
	return s.stream.Snapshot()
}

// Cancel unregisters the subscriber and closes C. Safe to call repeatedly.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.stream.subMu.Lock()
		delete(s.stream.subs, s.sub)
		close(s.sub.ch)
		s.stream.subMu.Unlock()
	})
}

// Dropped returns the number of updates dropped on full subscriber buffers.
func (s *Stream) Dropped() uint64 {
	return s.dropped.Load()
}

// publish is called with s.mu held so subscribers observe updates in apply
// order.
func (s *Stream) publish(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for sub := range s.subs {
		if len(sub.ch) < sub.buffer {
			sub.ch <- u
			continue
		}

		s.dropped.Add(1)
		if sub.resync.CompareAndSwap(false, true) {
			// A channel with no room left already holds a marker.
			select {
			case sub.ch <- Update{Reset: true}:
			default:
			}
		}
	}
}
