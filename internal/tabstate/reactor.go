package tabstate

// NavigationEvent is one frame navigation as delivered by the browser event
// source. FrameID 0 is the top-level document of the tab.
type NavigationEvent struct {
	TabID   int64
	FrameID int64
	URL     string
}

// Reactor consumes navigation events and drives the cache. It is wired to
// the event source only after the host finishes initializing, so a dormant
// process is never woken just to observe navigations it does not care about.
type Reactor struct {
	cache *Cache
}

func NewReactor(cache *Cache) *Reactor {
	return &Reactor{cache: cache}
}

// OnNavigation handles a single navigation event. Non-top-frame events are
// ignored entirely: no state change, no notification. For top-frame events
// the new URL is stored and written through unconditionally, even when
// unsupported; listeners are only notified for supported URLs.
func (r *Reactor) OnNavigation(ev NavigationEvent) {
	if ev.FrameID != 0 {
		return
	}
	oldURL, _ := r.cache.URL(ev.TabID)
	r.cache.Set(ev.TabID, ev.URL, KeyURL)
	if !r.cache.supported(ev.URL) {
		return
	}
	r.cache.notifyURLChange(URLChange{TabID: ev.TabID, URL: ev.URL, OldURL: oldURL})
}
