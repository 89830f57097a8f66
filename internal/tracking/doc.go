// Package tracking implements an embedded event store facade with a shared,
// bounded, in-memory tailing cache in front of a durable StorageEngine.
//
// A single background producer goroutine pulls newly committed events from
// the engine into a singly-linked cache of nodes, shared by every consumer
// that is currently caught up ("tailing"). A consumer that falls behind the
// cache's retained window drops back to reading the engine directly
// ("private") and rejoins the tailing set once it catches back up. A
// background cleaner evicts consumers that fall behind a live cache head
// before they manage to switch themselves out.
//
// Callers obtain a Store with Open, publish events with Store.Publish, and
// read them back — from any position, including one never before observed
// — with Store.OpenStream.
package tracking
