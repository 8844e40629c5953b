package harness

import (
	"testing"
	"time"
)

func receiveSnapshot(t *testing.T, ch <-chan Snapshot) (Snapshot, bool) {
	t.Helper()
	select {
	case got, ok := <-ch:
		return got, ok
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func TestBroadcasterFansOut(t *testing.T) {
	bcast := newBroadcaster()
	first, cancelFirst := bcast.Subscribe()
	second, cancelSecond := bcast.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	bcast.Broadcast(Snapshot{"hello"})

	for _, ch := range []<-chan Snapshot{first, second} {
		got, ok := receiveSnapshot(t, ch)
		if !ok || !got.Contains("hello") {
			t.Fatalf("expected hello snapshot, got %q", got)
		}
	}
}

func TestBroadcasterSlowSubscriberKeepsLatest(t *testing.T) {
	bcast := newBroadcaster()
	ch, cancel := bcast.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 256; i++ {
			bcast.Broadcast(Snapshot{"old"})
		}
		bcast.Broadcast(Snapshot{"latest"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast blocked on slow subscriber")
	}

	var last Snapshot
	for len(ch) > 0 {
		last = <-ch
	}
	if !last.Contains("latest") {
		t.Fatalf("expected latest snapshot retained, got %q", last)
	}
}

func TestBroadcasterCloseClosesSubscribers(t *testing.T) {
	bcast := newBroadcaster()
	ch, cancel := bcast.Subscribe()
	bcast.Close()
	cancel()

	if _, ok := receiveSnapshot(t, ch); ok {
		t.Fatalf("expected channel to be closed")
	}
	late, _ := bcast.Subscribe()
	if _, ok := receiveSnapshot(t, late); ok {
		t.Fatalf("expected subscription after close to be closed")
	}
	if bcast.HasSubscribers() {
		t.Fatalf("expected no subscribers after close")
	}
}
