package tracking

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"time"

	"github.com/rzbill/evstore/internal/eventlog"
)

// pebbleEngine adapts a durable *eventlog.Log to StorageEngine.
type pebbleEngine struct {
	log *eventlog.Log
}

// NewPebbleEngine wraps a Pebble-backed event log as a StorageEngine.
func NewPebbleEngine(l *eventlog.Log) StorageEngine {
	return &pebbleEngine{log: l}
}

func (e *pebbleEngine) Append(ctx context.Context, events []TrackedEvent) ([]Token, error) {
	recs := make([]eventlog.AppendRecord, len(events))
	for i, ev := range events {
		recs[i] = eventlog.AppendRecord{Header: encodeHeader(ev.Headers), Payload: ev.Payload}
	}
	seqs, err := e.log.Append(ctx, recs)
	if err != nil {
		return nil, err
	}
	toks := make([]Token, len(seqs))
	for i, seq := range seqs {
		toks[i] = seqToken(seq)
	}
	return toks, nil
}

func (e *pebbleEngine) ReadEvents(_ context.Context, after Token, hasAfter bool, mayBlock bool) EventStream {
	start := uint64(0)
	if hasAfter {
		start = after.seq() + 1
	}
	return &pebbleStream{log: e.log, next: start, mayBlock: mayBlock, closed: make(chan struct{})}
}

const pebbleReadBatch = 128

type pebbleStream struct {
	log       *eventlog.Log
	next      uint64
	mayBlock  bool
	buf       []eventlog.Item
	idx       int
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *pebbleStream) Next(ctx context.Context) (TrackedEvent, bool, error) {
	for {
		if s.idx < len(s.buf) {
			it := s.buf[s.idx]
			s.idx++
			s.next = it.Seq + 1
			return decodeItem(it), true, nil
		}

		items, _ := s.log.Read(eventlog.ReadOptions{Start: eventlog.TokenFromSeq(s.next), Limit: pebbleReadBatch})
		if len(items) > 0 {
			s.buf = items
			s.idx = 0
			continue
		}

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

		if !s.log.WaitForAppend(500 * time.Millisecond) {
			select {
			case <-s.closed:
				return TrackedEvent{}, false, nil
			case <-ctx.Done():
				return TrackedEvent{}, false, nil
			default:
			}
		}
	}
}

func (s *pebbleStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func decodeItem(it eventlog.Item) TrackedEvent {
	return TrackedEvent{
		Payload: it.Payload,
		Headers: decodeHeader(it.Header),
		Token:   seqToken(it.Seq),
	}
}

// encodeHeader/decodeHeader pack headers as an 8-byte creation timestamp
// (milliseconds since epoch) followed by a JSON-encoded string map; the map
// is omitted when there are no headers.
func encodeHeader(headers map[string]string) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(time.Now().UnixMilli()))
	if len(headers) == 0 {
		return buf
	}
	hb, err := json.Marshal(headers)
	if err != nil {
		return buf
	}
	return append(buf, hb...)
}

func decodeHeader(header []byte) map[string]string {
	if len(header) <= 8 {
		return nil
	}
	var hm map[string]string
	if err := json.Unmarshal(header[8:], &hm); err != nil {
		return nil
	}
	return hm
}
