package tracking

import (
	"context"
	"sync"
	"time"
)

// broadcaster wakes any number of waiters when signaled, generalizing the
// close-and-replace notification channel used by the storage log's
// WaitForAppend: waiters select on the current channel, and signal swaps in
// a fresh one after closing the old, so a signal can never be missed by a
// waiter that started observing before it.
type broadcaster struct {
	mu sync.Mutex
	ch chan struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{ch: make(chan struct{})}
}

// wait blocks until signal is called, ctx is done, or timeout elapses
// (timeout <= 0 means no timeout). It reports whether it returned because
// of a signal.
func (b *broadcaster) wait(ctx context.Context, timeout time.Duration) bool {
	return b.waitAny(ctx, timeout, nil)
}

// waitAny is wait plus an extra channel (typically a per-caller "stop" or
// "closed" signal) that also unblocks the wait, reporting false.
func (b *broadcaster) waitAny(ctx context.Context, timeout time.Duration, extra <-chan struct{}) bool {
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()

	if timeout <= 0 {
		select {
		case <-ch:
			return true
		case <-ctx.Done():
			return false
		case <-extra:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	case <-extra:
		return false
	}
}

func (b *broadcaster) signal() {
	b.mu.Lock()
	old := b.ch
	b.ch = make(chan struct{})
	b.mu.Unlock()
	close(old)
}
