package chain

import (
	"context"
	"time"
)

// reconnectBackoff paces websocket reconnect attempts: a fixed base delay
// plus a per-attempt increment, capped so a long outage never grows the
// wait past a few minutes between tries.
type reconnectBackoff struct {
	base      time.Duration
	increment time.Duration
	max       time.Duration
}

func newReconnectBackoff() reconnectBackoff {
	return reconnectBackoff{base: time.Second, increment: 2 * time.Second, max: 2 * time.Minute}
}

func (b reconnectBackoff) duration(attempt int) time.Duration {
	d := b.base + b.increment*time.Duration(attempt)
	if d > b.max {
		return b.max
	}
	return d
}

// wait blocks for the attempt-th backoff interval, or returns ctx.Err() if
// cancelled first.
func (b reconnectBackoff) wait(ctx context.Context, attempt int) error {
	t := time.NewTimer(b.duration(attempt))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
