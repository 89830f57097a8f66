package tracking

import (
	"context"
	"testing"
	"time"
)

func TestMemoryEngineAppendAndReadForward(t *testing.T) {
	eng := NewMemoryEngine()
	ctx := context.Background()
	toks, err := eng.Append(ctx, []TrackedEvent{{Payload: []byte("a")}, {Payload: []byte("b")}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(toks) != 2 || toks[0] == toks[1] {
		t.Fatalf("expected two distinct tokens, got %v", toks)
	}

	stream := eng.ReadEvents(ctx, Token{}, false, false)
	defer stream.Close()

	ev, ok, err := stream.Next(ctx)
	if err != nil || !ok || string(ev.Payload) != "a" {
		t.Fatalf("unexpected first event: %v %v %v", ev, ok, err)
	}
	ev, ok, err = stream.Next(ctx)
	if err != nil || !ok || string(ev.Payload) != "b" {
		t.Fatalf("unexpected second event: %v %v %v", ev, ok, err)
	}
	_, ok, err = stream.Next(ctx)
	if err != nil || ok {
		t.Fatalf("expected exhausted non-blocking stream, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryEngineBlockingReadWaitsForAppend(t *testing.T) {
	eng := NewMemoryEngine()
	ctx := context.Background()
	stream := eng.ReadEvents(ctx, Token{}, false, true)
	defer stream.Close()

	result := make(chan TrackedEvent, 1)
	go func() {
		ev, _, _ := stream.Next(ctx)
		result <- ev
	}()

	time.Sleep(20 * time.Millisecond)
	if _, err := eng.Append(ctx, []TrackedEvent{{Payload: []byte("woke")}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	select {
	case ev := <-result:
		if string(ev.Payload) != "woke" {
			t.Fatalf("got %q", ev.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("blocking read never observed the append")
	}
}

func TestMemoryEngineBlockingReadUnblocksOnClose(t *testing.T) {
	eng := NewMemoryEngine()
	ctx := context.Background()
	stream := eng.ReadEvents(ctx, Token{}, false, true)

	done := make(chan bool, 1)
	go func() {
		_, ok, _ := stream.Next(ctx)
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	stream.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected Next to report no event after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Next did not return after Close")
	}
}
