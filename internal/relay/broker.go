package relay

import (
	"sync"
	"sync/atomic"

	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

const subscriberBufSize = 256

// Event is one URL-change notification fanned out to stream clients.
type Event struct {
	TabID  int64  `json:"tab_id"`
	URL    string `json:"url"`
	OldURL string `json:"old_url,omitempty"`
}

// Broker fans out URL-change events to subscribed stream clients.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan Event
	nextID      atomic.Int64
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int64]chan Event),
	}
}

// Listener returns the cache listener that feeds this broker. Register it
// once via Cache.OnURLChange.
func (b *Broker) Listener() tabstate.Listener {
	return func(ev tabstate.URLChange) {
		b.Publish(Event{TabID: ev.TabID, URL: ev.URL, OldURL: ev.OldURL})
	}
}

// Subscribe registers a new client. Returns the subscriber ID and a channel
// to receive events on. The channel is buffered; slow consumers will have
// events dropped.
func (b *Broker) Subscribe() (int64, <-chan Event) {
	id := b.nextID.Add(1)
	ch := make(chan Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call more
// than once for the same id.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers. Non-blocking: slow clients
// have events dropped.
func (b *Broker) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
