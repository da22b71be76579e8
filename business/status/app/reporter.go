package app

import (
	"context"

	"github.com/fd1az/bridge-status/business/status/domain"
)

// Reporter renders the dashboard somewhere: a terminal UI, a log stream.
type Reporter interface {
	// Snapshot replaces everything shown with statuses.
	Snapshot(statuses []domain.Status)
	// Report shows one accepted update.
	Report(status domain.Status)
}

// Forward replays the stream's snapshot into r and then forwards every
// update until ctx is done. A reset is forwarded as a fresh snapshot so a
// reporter never mixes indicators of two layers and catches up after
// updates were dropped on a slow reporter.
func Forward(ctx context.Context, stream *Stream, r Reporter, buffer int) {
	sub := stream.Subscribe(buffer)
	defer sub.Cancel()

	r.Snapshot(sub.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub.C:
			if !ok {
				return
			}
			if u.Reset {
				r.Snapshot(sub.Snapshot())
				continue
			}
			r.Report(u.Status)
		}
	}
}
