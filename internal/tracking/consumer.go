package tracking

import (
	"context"
	"sync/atomic"
	"time"
)

// tokenState is the atomically published (token, hasToken) pair backing a
// Consumer's position. A plain Token can't represent "no token yet" on its
// own, so the pair is boxed and swapped as a unit.
type tokenState struct {
	tok Token
	has bool
}

// Consumer implements a single reader's position over a Store, transparently
// switching between tailing the shared cache and reading the storage engine
// directly. A Consumer is not safe for concurrent use by multiple goroutines
// calling its own methods, but its internal state is safe to observe
// concurrently from the producer and cleaner.
type Consumer struct {
	store *Store

	lastToken atomic.Pointer[tokenState]
	lastNode  atomic.Pointer[node]

	peeked    TrackedEvent
	hasPeeked bool

	privateStream EventStream

	closed   atomic.Bool
	closedCh chan struct{}
}

func newConsumer(store *Store, tok Token, has bool) *Consumer {
	c := &Consumer{store: store, closedCh: make(chan struct{})}
	c.lastToken.Store(&tokenState{tok: tok, has: has})
	return c
}

func (c *Consumer) tokenSnapshot() (Token, bool) {
	st := c.lastToken.Load()
	if st == nil {
		return Token{}, false
	}
	return st.tok, st.has
}

func (c *Consumer) setToken(tok Token, has bool) {
	c.lastToken.Store(&tokenState{tok: tok, has: has})
}

func (c *Consumer) isTailing() bool {
	return c.store.tailingConsumers.contains(c)
}

// behindGlobalCache reports whether this consumer has fallen behind the
// cache's retained window: either its anchored node was trimmed away, or it
// has no anchor and can't find its successor from the current oldest node.
func (c *Consumer) behindGlobalCache() bool {
	oldest := c.store.oldest.Load()
	if oldest == nil {
		return false
	}
	if ln := c.lastNode.Load(); ln != nil {
		return ln.index < oldest.index
	}
	return c.nextNode() == nil
}

func (c *Consumer) stopTailingGlobalStream() {
	c.store.tailingConsumers.remove(c)
	c.lastNode.Store(nil)
}

// nextNode returns the node immediately after this consumer's position, or
// nil if none is cached yet.
func (c *Consumer) nextNode() *node {
	if ln := c.lastNode.Load(); ln != nil {
		return ln.next.Load()
	}
	tok, has := c.tokenSnapshot()
	n := c.store.oldest.Load()
	for n != nil {
		if n.hasPrevious == has && (!has || n.previousToken == tok) {
			return n
		}
		n = n.next.Load()
	}
	return nil
}

// peek implements the tailing/private state machine. It returns the next
// candidate event (pre-filter) without consuming it from the caller's
// point of view; callers advance by discarding peeked and calling again.
func (c *Consumer) peek(ctx context.Context, timeout time.Duration) (TrackedEvent, bool) {
	if c.closed.Load() {
		return TrackedEvent{}, false
	}
	allowSwitch := c.store.opts.OptimizeEventConsumption

	if c.isTailing() {
		if !c.behindGlobalCache() {
			return c.peekGlobalStream(ctx, timeout)
		}
		c.stopTailingGlobalStream()
		allowSwitch = false
	}
	return c.peekPrivateStream(ctx, allowSwitch, timeout)
}

func (c *Consumer) peekGlobalStream(ctx context.Context, timeout time.Duration) (TrackedEvent, bool) {
	n := c.nextNode()
	if n == nil && timeout > 0 {
		c.store.consumableEvents.waitAny(ctx, timeout, c.closedCh)
		n = c.nextNode()
	}
	if n == nil {
		return TrackedEvent{}, false
	}
	if c.isTailing() {
		c.lastNode.Store(n)
	}
	c.setToken(n.event.Token, true)
	return n.event, true
}

func (c *Consumer) peekPrivateStream(ctx context.Context, allowSwitch bool, timeout time.Duration) (TrackedEvent, bool) {
	if c.privateStream == nil {
		tok, has := c.tokenSnapshot()
		c.privateStream = c.store.engine.ReadEvents(ctx, tok, has, false)
	}

	ev, ok, err := c.privateStream.Next(ctx)
	if err != nil {
		c.store.logger.Warn("tracking: private stream read failed")
		ok = false
	}
	if ok {
		c.setToken(ev.Token, true)
		return ev, true
	}

	if allowSwitch {
		c.closePrivateStream()
		tok, has := c.tokenSnapshot()
		if n := c.store.findNode(tok, has); n != nil {
			c.lastNode.Store(n)
		}
		c.store.tailingConsumers.add(c)
		c.store.ensureProducerStarted()
		if timeout > 0 {
			return c.peek(ctx, timeout)
		}
		return TrackedEvent{}, false
	}

	c.store.consumableEvents.waitAny(ctx, timeout, c.closedCh)
	ev, ok, err = c.privateStream.Next(ctx)
	if err == nil && ok {
		c.setToken(ev.Token, true)
		return ev, true
	}
	return TrackedEvent{}, false
}

func (c *Consumer) closePrivateStream() {
	if c.privateStream != nil {
		_ = c.privateStream.Close()
		c.privateStream = nil
	}
}

// fillPeeked ensures c.peeked holds a filter-matching event, looping past
// rejected candidates until one matches, the timeout elapses, or ctx is
// done. timeout <= 0 means a single non-blocking attempt.
func (c *Consumer) fillPeeked(ctx context.Context, timeout time.Duration) bool {
	if c.hasPeeked {
		return true
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		remaining := timeout
		if timeout > 0 {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return false
			}
		}
		ev, ok := c.peek(ctx, remaining)
		if !ok {
			return false
		}
		if c.store.filter.Match(ev) {
			c.peeked = ev
			c.hasPeeked = true
			return true
		}
		if ctx.Err() != nil {
			return false
		}
	}
}

// Peek returns the next event without consuming it, if one is already
// available or becomes available without blocking.
func (c *Consumer) Peek(ctx context.Context) (TrackedEvent, bool) {
	if !c.fillPeeked(ctx, 0) {
		return TrackedEvent{}, false
	}
	return c.peeked, true
}

// HasNextAvailable blocks up to timeout waiting for an event to become
// available, filling the one-slot lookahead cache.
func (c *Consumer) HasNextAvailable(ctx context.Context, timeout time.Duration) bool {
	return c.fillPeeked(ctx, timeout)
}

// NextAvailable blocks until an event is available or ctx is cancelled.
func (c *Consumer) NextAvailable(ctx context.Context) (TrackedEvent, error) {
	for {
		if c.fillPeeked(ctx, time.Hour) {
			ev := c.peeked
			c.hasPeeked = false
			return ev, nil
		}
		if err := ctx.Err(); err != nil {
			return TrackedEvent{}, err
		}
		if c.closed.Load() {
			return TrackedEvent{}, ErrClosed
		}
	}
}

// Close releases this consumer's private stream and removes it from the
// tailing set, if present. Close is idempotent.
func (c *Consumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.closedCh)
	c.closePrivateStream()
	c.stopTailingGlobalStream()
	return nil
}
