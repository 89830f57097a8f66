package tracking

import (
	"context"
	"encoding/binary"
)

// Token is an opaque, totally ordered position in the storage engine's
// global commit order. Two tokens are equal exactly when they designate the
// same position; ordering beyond equality is the storage engine's concern,
// never the tracking package's.
type Token [8]byte

func seqToken(seq uint64) Token {
	var t Token
	binary.BigEndian.PutUint64(t[:], seq)
	return t
}

func (t Token) seq() uint64 { return binary.BigEndian.Uint64(t[:]) }

// TrackedEvent is a single event as delivered by the storage engine, tagged
// with the token identifying its position.
type TrackedEvent struct {
	Payload []byte
	Headers map[string]string
	Token   Token
}

// EventStream iterates events from a StorageEngine, either tailing new
// commits (mayBlock=true) or taking a single non-blocking pass over
// currently available data (mayBlock=false).
//
// Next returns (event, true, nil) for each available event, in commit
// order. It returns (_, false, nil) when the stream has nothing more to
// offer right now: for a non-blocking stream that means caught up; for a
// blocking stream it means the stream was closed or ctx was cancelled
// while waiting. Next returns (_, false, err) only on a genuine read
// failure from the engine.
type EventStream interface {
	Next(ctx context.Context) (TrackedEvent, bool, error)
	Close() error
}

// StorageEngine is the durable collaborator behind a Store. Implementations
// must make every appended event re-readable by token indefinitely: the
// tailing cache is purely an optimization in front of it, never a substitute
// for it.
type StorageEngine interface {
	// Append durably commits events in order and returns the token assigned
	// to each, in the same order.
	Append(ctx context.Context, events []TrackedEvent) ([]Token, error)

	// ReadEvents returns a stream of events strictly after "after" (or from
	// the beginning, if hasAfter is false). When mayBlock is true, the
	// returned stream's Next may block the calling goroutine awaiting new
	// commits, up until the stream is closed or ctx is done.
	ReadEvents(ctx context.Context, after Token, hasAfter bool, mayBlock bool) EventStream
}
