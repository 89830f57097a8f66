package tracking

import (
	"context"
	"sync"
)

// MemoryEngine is a StorageEngine backed by an in-memory slice. It exists
// for fast, deterministic tests of the tracking subsystem in isolation from
// disk I/O timing; production callers use the Pebble-backed engine.
type MemoryEngine struct {
	mu     sync.Mutex
	events []TrackedEvent
	notify *broadcaster
}

// NewMemoryEngine returns an empty in-memory StorageEngine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{notify: newBroadcaster()}
}

func (e *MemoryEngine) Append(_ context.Context, events []TrackedEvent) ([]Token, error) {
	e.mu.Lock()
	toks := make([]Token, len(events))
	for i, ev := range events {
		seq := uint64(len(e.events) + 1)
		tok := seqToken(seq)
		ev.Token = tok
		e.events = append(e.events, ev)
		toks[i] = tok
	}
	e.mu.Unlock()
	e.notify.signal()
	return toks, nil
}

func (e *MemoryEngine) ReadEvents(_ context.Context, after Token, hasAfter bool, mayBlock bool) EventStream {
	pos := 0
	if hasAfter {
		pos = int(after.seq())
	}
	return &memStream{engine: e, pos: pos, mayBlock: mayBlock, closed: make(chan struct{})}
}

type memStream struct {
	engine    *MemoryEngine
	pos       int
	mayBlock  bool
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *memStream) Next(ctx context.Context) (TrackedEvent, bool, error) {
	for {
		s.engine.mu.Lock()
		if s.pos < len(s.engine.events) {
			ev := s.engine.events[s.pos]
			s.pos++
			s.engine.mu.Unlock()
			return ev, true, nil
		}
		s.engine.mu.Unlock()

		if !s.mayBlock {
			return TrackedEvent{}, false, nil
		}

		select {
		case <-s.closed:
			return TrackedEvent{}, false, nil
		case <-ctx.Done():
			return TrackedEvent{}, false, nil
		default:
		}

		if !s.engine.notify.waitAny(ctx, 0, s.closed) {
			return TrackedEvent{}, false, nil
		}
	}
}

func (s *memStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
