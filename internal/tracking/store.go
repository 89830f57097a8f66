package tracking

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rzbill/evstore/pkg/id"
	"github.com/rzbill/evstore/pkg/log"
)

// eventIDHeader is the header key Publish stamps with a generated id.ID when
// the caller hasn't already supplied one, giving every event a unique,
// chronologically sortable identity independent of its storage token.
const eventIDHeader = "event-id"

// Store is an embedded event store facade: a StorageEngine for durability,
// fronted by a shared, bounded, in-memory tailing cache for consumers that
// are caught up.
type Store struct {
	engine StorageEngine
	opts   Options
	logger log.Logger
	filter *celFilter
	ids    *id.Generator

	oldest           atomic.Pointer[node]
	tailingConsumers *consumerSet
	consumableEvents *broadcaster

	producer *producer
	cleaner  *cleaner

	producerStarted atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// Open constructs a Store over engine with opts. The producer and cleaner
// goroutines are not started until the first consumer needs them.
func Open(engine StorageEngine, opts Options) (*Store, error) {
	if opts.CachedEvents <= 0 {
		opts.CachedEvents = DefaultOptions().CachedEvents
	}
	if opts.FetchDelay <= 0 {
		opts.FetchDelay = DefaultOptions().FetchDelay
	}
	if opts.CleanupDelay <= 0 {
		opts.CleanupDelay = DefaultOptions().CleanupDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}

	filter, err := newCELFilter(opts.Filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		engine:           engine,
		opts:             opts,
		logger:           opts.Logger,
		filter:           filter,
		ids:              id.NewGenerator(),
		tailingConsumers: &consumerSet{},
		consumableEvents: newBroadcaster(),
		ctx:              ctx,
		cancel:           cancel,
	}
	s.producer = newProducer(s)
	s.cleaner = newCleaner(s)
	return s, nil
}

// Publish durably appends events and wakes the producer if it's waiting on
// new data. Events without an eventIDHeader are stamped with a generated
// one before the append.
func (s *Store) Publish(ctx context.Context, events ...TrackedEvent) ([]Token, error) {
	for i := range events {
		if events[i].Headers[eventIDHeader] != "" {
			continue
		}
		headers := make(map[string]string, len(events[i].Headers)+1)
		for k, v := range events[i].Headers {
			headers[k] = v
		}
		headers[eventIDHeader] = s.ids.Next().String()
		events[i].Headers = headers
	}

	toks, err := s.engine.Append(ctx, events)
	if err != nil {
		return nil, err
	}
	s.producer.fetchIfWaiting()
	return toks, nil
}

// OpenStream returns a TrackingEventStream positioned immediately after
// token (or at the very beginning, if hasToken is false). If the token is
// currently present in the cache and OptimizeEventConsumption is enabled,
// the returned consumer starts out tailing the shared cache; otherwise it
// starts private and may switch to tailing once it catches up.
func (s *Store) OpenStream(token Token, hasToken bool) *Consumer {
	if s.opts.OptimizeEventConsumption {
		if n := s.findNode(token, hasToken); n != nil {
			c := newConsumer(s, token, hasToken)
			c.lastNode.Store(n)
			s.tailingConsumers.add(c)
			s.ensureProducerStarted()
			return c
		}
	}
	return newConsumer(s, token, hasToken)
}

// findNode scans the cache from oldest for the node whose own event token
// equals the given token. A node is only ever matched by an explicit token,
// never by "start from the beginning" (hasToken=false), since the cache
// holds no node representing "before the first event".
func (s *Store) findNode(token Token, hasToken bool) *node {
	if !hasToken {
		return nil
	}
	n := s.oldest.Load()
	for n != nil {
		if n.event.Token == token {
			return n
		}
		n = n.next.Load()
	}
	return nil
}

func (s *Store) ensureProducerStarted() {
	if s.producerStarted.CompareAndSwap(false, true) {
		go s.producer.run(s.ctx)
		go s.cleaner.run()
	}
}

func (s *Store) notifyConsumers() {
	s.consumableEvents.signal()
}

// Shutdown stops the producer and cleaner and closes every tailing
// consumer. It is idempotent.
func (s *Store) Shutdown() {
	s.closeOnce.Do(func() {
		s.tailingConsumers.forEach(func(c *Consumer) {
			_ = c.Close()
		})
		s.producer.close()
		s.cleaner.close()
		s.cancel()
	})
}
