package runtime

import (
	"context"
	"errors"
	"sync"

	cfgpkg "github.com/rzbill/evstore/internal/config"
	"github.com/rzbill/evstore/internal/eventlog"
	"github.com/rzbill/evstore/internal/namespace"
	pebblestore "github.com/rzbill/evstore/internal/storage/pebble"
	"github.com/rzbill/evstore/internal/tracking"
	"github.com/rzbill/evstore/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
	Logger  log.Logger
}

// Runtime wires storage, config, and facades for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
	logger log.Logger

	storesMu sync.Mutex
	stores   map[string]*tracking.Store
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	rt := &Runtime{db: db, config: opts.Config, logger: logger, stores: make(map[string]*tracking.Store)}
	return rt, nil
}

// Close closes underlying resources, including every tracking store this
// runtime has opened.
func (r *Runtime) Close() error {
	r.storesMu.Lock()
	for _, s := range r.stores {
		s.Shutdown()
	}
	r.stores = make(map[string]*tracking.Store)
	r.storesMu.Unlock()

	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// EnsureNamespace creates a namespace record if absent.
func (r *Runtime) EnsureNamespace(name string) (namespace.Meta, error) {
	return namespace.EnsureNamespace(r.db, name)
}

// OpenLog opens an event log for given namespace/topic/partition.
func (r *Runtime) OpenLog(ns, topic string, partition uint32) (*eventlog.Log, error) {
	return eventlog.OpenLog(r.db, ns, topic, partition)
}

// OpenTrackingStore ensures the namespace exists, then returns the
// tracking.Store for ns/topic, opening (and durably backing, via a single
// eventlog.Log partition) and caching it on first use. Repeated calls for
// the same namespace/topic return the same Store, so all callers share one
// cache and one producer/cleaner pair per stream.
func (r *Runtime) OpenTrackingStore(ns, topic string) (*tracking.Store, error) {
	if _, err := r.EnsureNamespace(ns); err != nil {
		return nil, err
	}

	key := ns + "/" + topic

	r.storesMu.Lock()
	defer r.storesMu.Unlock()
	if s, ok := r.stores[key]; ok {
		return s, nil
	}

	l, err := eventlog.OpenLog(r.db, ns, topic, 0)
	if err != nil {
		return nil, err
	}

	opts := tracking.Options{
		CachedEvents:             r.config.Tracking.CachedEvents,
		FetchDelay:               r.config.Tracking.FetchDelay,
		CleanupDelay:             r.config.Tracking.CleanupDelay,
		OptimizeEventConsumption: r.config.Tracking.OptimizeEventConsumption,
		Filter:                   r.config.Tracking.Filter,
		Logger:                   r.logger.WithComponent("tracking").With(log.Str("namespace", ns), log.Str("topic", topic)),
	}
	s, err := tracking.Open(tracking.NewPebbleEngine(l), opts)
	if err != nil {
		return nil, err
	}
	r.stores[key] = s
	return s, nil
}

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
