package tracking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/evstore/pkg/log"
)

// producer is the single background goroutine that pulls newly committed
// events from the storage engine into the shared node chain. It owns
// "newest" exclusively; "oldest" lives on the Store because consumers read
// it too.
type producer struct {
	store      *Store
	fetchDelay time.Duration
	cached     int
	logger     log.Logger

	shouldFetch atomic.Bool
	closed      atomic.Bool

	dataAvailable *broadcaster

	newest *node

	streamMu sync.Mutex
	stream   EventStream
}

func newProducer(store *Store) *producer {
	return &producer{
		store:         store,
		fetchDelay:    store.opts.FetchDelay,
		cached:        store.opts.CachedEvents,
		logger:        store.logger,
		dataAvailable: newBroadcaster(),
	}
}

// run is the producer main loop. It exits when ctx is done or close has
// been called.
func (p *producer) run(ctx context.Context) {
	for !p.closed.Load() && ctx.Err() == nil {
		p.shouldFetch.Store(true)
		dataFound := false
		for p.shouldFetch.Load() {
			p.shouldFetch.Store(false)
			dataFound = p.fetchData(ctx)
		}
		if !dataFound {
			if !p.shouldFetch.Load() {
				p.dataAvailable.wait(ctx, p.fetchDelay)
			}
		}
	}
}

// fetchData pulls as many events as the engine currently has beyond the
// cache's newest node and links them in. It reports whether newest advanced.
func (p *producer) fetchData(ctx context.Context) bool {
	before := p.newest
	if p.store.tailingConsumers.empty() {
		return false
	}
	after, hasAfter := p.lastToken()

	stream := p.store.engine.ReadEvents(ctx, after, hasAfter, true)
	p.setStream(stream)
	defer func() {
		stream.Close()
		p.setStream(nil)
	}()

	for {
		ev, ok, err := stream.Next(ctx)
		if err != nil {
			p.logger.Warn("tracking: storage read failed", log.Err(err))
			break
		}
		if !ok {
			break
		}

		idx := uint64(0)
		if p.newest != nil {
			idx = p.newest.index + 1
		}
		n := &node{index: idx, previousToken: after, hasPrevious: hasAfter, event: ev}
		if p.newest != nil {
			p.newest.next.Store(n)
		}
		p.newest = n
		if p.store.oldest.Load() == nil {
			p.store.oldest.Store(n)
		}
		after, hasAfter = ev.Token, true

		p.store.notifyConsumers()
		p.trimCache()
	}

	return p.newest != before
}

// lastToken returns the token to resume reading from: the newest cached
// event's token, or, if the cache is empty, any one tailing consumer's
// current token (they must all agree, since none has seen anything the
// cache hasn't).
func (p *producer) lastToken() (Token, bool) {
	if p.newest != nil {
		return p.newest.event.Token, true
	}

	var any Token
	hasAny := false
	sawMissing := false
	empty := true
	p.store.tailingConsumers.forEach(func(c *Consumer) {
		empty = false
		tok, has := c.tokenSnapshot()
		if !has {
			sawMissing = true
		}
		if !hasAny {
			any, hasAny = tok, has
		}
	})
	if empty || sawMissing {
		return Token{}, false
	}
	return any, true
}

func (p *producer) trimCache() {
	last := p.store.oldest.Load()
	for p.newest != nil && last != nil && p.newest.index-last.index >= uint64(p.cached) {
		last = last.next.Load()
	}
	p.store.oldest.Store(last)
}

// fetchIfWaiting wakes the producer to re-poll the engine immediately,
// called after every successful Publish.
func (p *producer) fetchIfWaiting() {
	p.shouldFetch.Store(true)
	p.dataAvailable.signal()
}

func (p *producer) setStream(s EventStream) {
	p.streamMu.Lock()
	p.stream = s
	p.streamMu.Unlock()
}

func (p *producer) getStream() EventStream {
	p.streamMu.Lock()
	defer p.streamMu.Unlock()
	return p.stream
}

func (p *producer) close() {
	p.closed.Store(true)
	if s := p.getStream(); s != nil {
		_ = s.Close()
	}
	p.dataAvailable.signal()
}
