package tracking

import (
	"time"

	"github.com/rzbill/evstore/pkg/log"
)

// cleaner periodically evicts tailing consumers that have fallen behind the
// cache's retained window before they noticed themselves. It never closes
// the consumer: the consumer simply rejoins as a private reader on its next
// peek.
type cleaner struct {
	store    *Store
	interval time.Duration
	logger   log.Logger
	stop     chan struct{}
}

func newCleaner(store *Store) *cleaner {
	return &cleaner{
		store:    store,
		interval: store.opts.CleanupDelay,
		logger:   store.logger,
		stop:     make(chan struct{}),
	}
}

func (cl *cleaner) run() {
	ticker := time.NewTicker(cl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cl.sweep()
		case <-cl.stop:
			return
		}
	}
}

func (cl *cleaner) sweep() {
	oldest := cl.store.oldest.Load()
	if oldest == nil || !oldest.hasPrevious {
		return
	}
	cl.store.tailingConsumers.forEach(func(c *Consumer) {
		if c.behindGlobalCache() {
			cl.logger.Warn("tracking: evicting consumer that fell behind the cache")
			c.stopTailingGlobalStream()
		}
	})
}

func (cl *cleaner) close() {
	close(cl.stop)
}
