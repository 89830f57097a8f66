package tracking

import (
	"context"
	"testing"
	"time"
)

func TestBroadcasterSignalWakesWaiters(t *testing.T) {
	b := newBroadcaster()
	ctx := context.Background()

	results := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		go func() { results <- b.wait(ctx, time.Minute) }()
	}
	time.Sleep(10 * time.Millisecond)
	b.signal()

	for i := 0; i < 3; i++ {
		select {
		case woke := <-results:
			if !woke {
				t.Fatalf("expected wait to report woken by signal")
			}
		case <-time.After(time.Second):
			t.Fatalf("waiter %d never woke", i)
		}
	}
}

func TestBroadcasterTimesOut(t *testing.T) {
	b := newBroadcaster()
	if b.wait(context.Background(), 10*time.Millisecond) {
		t.Fatalf("expected wait to time out, not report a signal")
	}
}

func TestBroadcasterRespectsContextCancellation(t *testing.T) {
	b := newBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if b.wait(ctx, time.Minute) {
		t.Fatalf("expected wait to return false for a cancelled context")
	}
}
