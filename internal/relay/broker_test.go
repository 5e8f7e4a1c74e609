package relay

import (
	"testing"

	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker()
	id1, ch1 := b.Subscribe()
	id2, ch2 := b.Subscribe()
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	b.Publish(Event{TabID: 3, URL: "http://b", OldURL: "http://a"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.TabID != 3 || evt.URL != "http://b" || evt.OldURL != "http://a" {
				t.Fatalf("event = %+v; want {3 http://b http://a}", evt)
			}
		default:
			t.Fatalf("subscriber did not receive event")
		}
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()

	b.Unsubscribe(id)
	b.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatalf("channel still open after Unsubscribe")
	}
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("ClientCount() = %d; want 0", n)
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	for i := 0; i < subscriberBufSize+10; i++ {
		b.Publish(Event{TabID: int64(i)})
	}

	// Buffer holds the first subscriberBufSize events; the rest were dropped
	// without blocking the publisher.
	if len(ch) != subscriberBufSize {
		t.Fatalf("buffered events = %d; want %d", len(ch), subscriberBufSize)
	}
}

func TestListenerFeedsBroker(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	b.Listener()(tabstate.URLChange{TabID: 7, URL: "http://x", OldURL: "http://w"})

	select {
	case evt := <-ch:
		if evt.TabID != 7 || evt.URL != "http://x" || evt.OldURL != "http://w" {
			t.Fatalf("event = %+v; want {7 http://x http://w}", evt)
		}
	default:
		t.Fatalf("listener did not publish to broker")
	}
}
