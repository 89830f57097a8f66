package tracking

import (
	"context"
	"testing"
	"time"
)

func TestCleanerSweepLeavesCaughtUpConsumerTailingWhileEvictingStaleOne(t *testing.T) {
	s, _ := mustOpen(t, Options{CachedEvents: 2, FetchDelay: 5 * time.Millisecond, CleanupDelay: time.Hour, OptimizeEventConsumption: true})
	ctx := context.Background()

	drain := s.OpenStream(Token{}, false)
	defer drain.Close()
	if _, ok := drain.peek(ctx, 0); ok {
		t.Fatalf("expected no event on an empty store")
	}

	if _, err := s.Publish(ctx,
		TrackedEvent{Payload: []byte("0")},
		TrackedEvent{Payload: []byte("1")},
		TrackedEvent{Payload: []byte("2")},
		TrackedEvent{Payload: []byte("3")},
	); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var first TrackedEvent
	for i := 0; i < 4; i++ {
		ev, err := drain.NextAvailable(ctx)
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		if i == 0 {
			first = ev
		}
	}

	// With CachedEvents=2 drain fell behind the cache while reading and
	// finished on its private stream; one empty non-blocking peek moves it
	// back into the tailing set, anchored at the newest node. Caught up at
	// the tail, it must survive the sweep.
	if _, ok := drain.peek(ctx, 0); ok {
		t.Fatalf("expected no event after draining everything published")
	}
	if !drain.isTailing() {
		t.Fatalf("expected drain to still be tailing before the sweep")
	}

	stale := &Consumer{store: s, closedCh: make(chan struct{})}
	stale.lastToken.Store(&tokenState{tok: first.Token, has: true})
	if n := s.findNode(first.Token, true); n != nil {
		stale.lastNode.Store(n)
	}
	s.tailingConsumers.add(stale)

	s.cleaner.sweep()

	if stale.isTailing() {
		t.Fatalf("expected sweep to evict the consumer anchored at an evicted node")
	}
	if stale.closed.Load() {
		t.Fatalf("sweep must evict from the tailing set without closing the consumer")
	}
	if !drain.isTailing() {
		t.Fatalf("sweep should not evict a consumer still within the cached window")
	}
}

func TestCleanerSweepNoopWhenOldestHasNoPrevious(t *testing.T) {
	s, _ := mustOpen(t, Options{CachedEvents: 100, FetchDelay: 5 * time.Millisecond, CleanupDelay: time.Hour, OptimizeEventConsumption: true})
	ctx := context.Background()

	drain := s.OpenStream(Token{}, false)
	defer drain.Close()

	if _, ok := drain.peek(ctx, 0); ok {
		t.Fatalf("expected no event on an empty store")
	}

	if _, err := s.Publish(ctx, TrackedEvent{Payload: []byte("first")}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := drain.NextAvailable(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	// The cache's oldest node is the very first event the store ever saw, so
	// sweep has nothing to evict regardless of who is tailing.
	s.cleaner.sweep()
	if !drain.isTailing() {
		t.Fatalf("expected the sole tailing consumer to remain tailing")
	}
}
