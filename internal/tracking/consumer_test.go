package tracking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConsumerNextNodeFindsSuccessorFromOldest(t *testing.T) {
	s, _ := mustOpen(t, Options{CachedEvents: 100, FetchDelay: 5 * time.Millisecond, CleanupDelay: time.Hour, OptimizeEventConsumption: true})
	ctx := context.Background()

	drain := s.OpenStream(Token{}, false)
	defer drain.Close()
	if _, ok := drain.peek(ctx, 0); ok {
		t.Fatalf("expected no event on an empty store")
	}

	if _, err := s.Publish(ctx, TrackedEvent{Payload: []byte("a")}, TrackedEvent{Payload: []byte("b")}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	first, err := drain.NextAvailable(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}

	// A fresh consumer anchored at nothing but whose token snapshot matches
	// the second cached node's previousToken should find that node via the
	// fallback scan from oldest in nextNode, without ever having called
	// peekGlobalStream yet.
	c := s.OpenStream(Token{}, false)
	defer c.Close()
	c.setToken(first.Token, true)

	n := c.nextNode()
	if n == nil {
		t.Fatalf("expected nextNode to find the successor of %v", first.Token)
	}
	if string(n.event.Payload) != "b" {
		t.Fatalf("got %q want %q", n.event.Payload, "b")
	}
}

func TestConsumerBehindGlobalCacheAfterTrim(t *testing.T) {
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

	c := &Consumer{store: s, closedCh: make(chan struct{})}
	c.lastToken.Store(&tokenState{tok: first.Token, has: true})
	if n := s.findNode(first.Token, true); n != nil {
		c.lastNode.Store(n)
	}
	s.tailingConsumers.add(c)

	if !c.behindGlobalCache() {
		t.Fatalf("expected consumer anchored at an evicted node to report behind the cache")
	}
}

func TestConsumerNotBehindGlobalCacheWhenAnchorStillCached(t *testing.T) {
	s, _ := mustOpen(t, Options{CachedEvents: 100, FetchDelay: 5 * time.Millisecond, CleanupDelay: time.Hour, OptimizeEventConsumption: true})
	ctx := context.Background()

	drain := s.OpenStream(Token{}, false)
	defer drain.Close()
	if _, ok := drain.peek(ctx, 0); ok {
		t.Fatalf("expected no event on an empty store")
	}

	if _, err := s.Publish(ctx, TrackedEvent{Payload: []byte("a")}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	first, err := drain.NextAvailable(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}

	c := &Consumer{store: s, closedCh: make(chan struct{})}
	c.lastToken.Store(&tokenState{tok: first.Token, has: true})
	if n := s.findNode(first.Token, true); n != nil {
		c.lastNode.Store(n)
	}
	s.tailingConsumers.add(c)

	if c.behindGlobalCache() {
		t.Fatalf("expected consumer anchored at a still-cached node to not be behind")
	}
}

func TestConsumerCloseUnblocksNextAvailablePromptly(t *testing.T) {
	s, _ := mustOpen(t, Options{CachedEvents: 100, FetchDelay: time.Hour, CleanupDelay: time.Hour, OptimizeEventConsumption: true})
	ctx := context.Background()

	c := s.OpenStream(Token{}, false)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.NextAvailable(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	c.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("NextAvailable did not return promptly after Close")
	}
}

func TestConsumerPrivateReadSwitchesToTailingOnceCaughtUp(t *testing.T) {
	s, _ := mustOpen(t, Options{CachedEvents: 100, FetchDelay: 5 * time.Millisecond, CleanupDelay: time.Hour, OptimizeEventConsumption: true})
	ctx := context.Background()

	if _, err := s.Publish(ctx, TrackedEvent{Payload: []byte("a")}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	c := s.OpenStream(Token{}, false)
	defer c.Close()
	if c.isTailing() {
		t.Fatalf("a consumer opened with no matching cached node should start private")
	}

	ev, err := c.NextAvailable(ctx)
	if err != nil {
		t.Fatalf("nextAvailable: %v", err)
	}
	if string(ev.Payload) != "a" {
		t.Fatalf("got %q", ev.Payload)
	}

	// A second, non-blocking peek finds the private stream caught up and
	// switches the consumer into the tailing set before reporting no event.
	if _, ok := c.peek(ctx, 0); ok {
		t.Fatalf("expected no event available on the caught-up private stream")
	}
	if !c.isTailing() {
		t.Fatalf("expected consumer to join the tailing set once its private read caught up empty")
	}
}
