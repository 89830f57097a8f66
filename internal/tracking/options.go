package tracking

import (
	"time"

	"github.com/rzbill/evstore/pkg/log"
)

// Options configures a Store.
type Options struct {
	// CachedEvents is the number of trailing events the shared cache keeps
	// before trimming its oldest entries.
	CachedEvents int

	// FetchDelay bounds how long the producer idles between poll attempts
	// when it finds nothing new and nobody has woken it early.
	FetchDelay time.Duration

	// CleanupDelay is the interval between cleaner sweeps.
	CleanupDelay time.Duration

	// OptimizeEventConsumption enables the tailing-cache fast path. When
	// false, every OpenStream call returns a private, engine-polling
	// consumer and the producer/cleaner goroutines are never started.
	OptimizeEventConsumption bool

	// Filter, if non-empty, is a CEL expression evaluated against every
	// candidate event; non-matching events are skipped without being
	// returned to the consumer (the consumer's position still advances).
	Filter string

	// Logger receives structured diagnostics from the producer and
	// cleaner. Defaults to a no-op logger when nil.
	Logger log.Logger
}

// DefaultOptions returns the baseline tunables.
func DefaultOptions() Options {
	return Options{
		CachedEvents:             10000,
		FetchDelay:               1000 * time.Millisecond,
		CleanupDelay:             10000 * time.Millisecond,
		OptimizeEventConsumption: true,
	}
}
