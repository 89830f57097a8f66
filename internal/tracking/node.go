package tracking

import "sync/atomic"

// node is one link of the shared tailing cache. Nodes are created only by
// the producer goroutine and never mutated once published; next is the only
// field written after construction, and only ever to extend the chain, so a
// reader following next never observes a partially built node.
type node struct {
	index uint64

	// previousToken/hasPrevious record the token immediately preceding this
	// node's event, if any. hasPrevious is false only for the very first
	// event the store has ever seen.
	previousToken Token
	hasPrevious   bool

	event TrackedEvent

	next atomic.Pointer[node]
}
