package tabstate

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"sync"
)

// Store is the persistent key-value store the cache writes through to. The
// namespace is shared with other subsystems; tab records live under keys
// that are the decimal form of their tab id. Both calls are fire-and-forget:
// the cache never observes completion or failure.
type Store interface {
	Set(key string, value any)
	Remove(key string)
}

// URLChange is delivered to registered listeners after a supported top-frame
// navigation. OldURL is empty when the tab was untracked before the event.
type URLChange struct {
	TabID  int64
	URL    string
	OldURL string
}

// Listener receives URL-change notifications.
type Listener func(URLChange)

type listenerEntry struct {
	key uintptr
	fn  Listener
}

// Cache holds the in-memory tab-state map and writes every mutation through
// to the persistent store. Persistence is an explicit capability decided at
// construction: a nil store disables it entirely.
type Cache struct {
	mu        sync.RWMutex
	tabs      map[int64]Record
	listeners []listenerEntry

	store     Store
	persist   bool
	supported func(url string) bool
}

// New creates a Cache. store may be nil when no persistence is configured.
// supported is the URL-support predicate; nil accepts every URL.
func New(store Store, supported func(url string) bool) *Cache {
	if supported == nil {
		supported = func(string) bool { return true }
	}
	return &Cache{
		tabs:      make(map[int64]Record),
		store:     store,
		persist:   store != nil,
		supported: supported,
	}
}

func storeKey(tabID int64) string {
	return strconv.FormatInt(tabID, 10)
}

// Get traverses the record at tabID through path. ok=false when the tab or
// any intermediate key is missing. With no path it returns the whole record.
// The result is a deep copy detached from the cache: callers may read or
// marshal it while event goroutines keep mutating the live record.
func (c *Cache) Get(tabID int64, path ...string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.tabs[tabID]
	if !ok {
		return nil, false
	}
	if len(path) == 0 {
		return copyRecord(rec), true
	}
	v, ok := getPath(rec, path...)
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// URL returns the tab's current URL. ok=false when the tab is untracked or
// has no url field yet.
func (c *Cache) URL(tabID int64) (string, bool) {
	v, ok := c.Get(tabID, KeyURL)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StyleIDs returns the per-frame style identifiers for tabID. ok=false means
// the tab was never tracked; a tracked tab without style data yields
// (nil, true). The distinction matters to collaborators deciding whether to
// recompute styles.
func (c *Cache) StyleIDs(tabID int64) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.tabs[tabID]
	if !ok {
		return nil, false
	}
	ids, _ := rec[KeyStyleIDs].(map[string]any)
	if ids == nil {
		return nil, true
	}
	out, _ := copyValue(ids).(map[string]any)
	return out, true
}

// Set writes value at path in the tab's record, creating the record and any
// intermediate containers as needed, then writes the full record through to
// the store. path must contain at least one key.
func (c *Cache) Set(tabID int64, value any, path ...string) {
	if len(path) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.tabs[tabID]
	if !ok {
		rec = make(Record)
		c.tabs[tabID] = rec
	}
	setPath(rec, value, path...)
	c.writeThrough(tabID, rec)
}

// DeleteAt removes the final path key from the tab's record. When the tab
// record does not exist the whole call is a no-op and nothing is persisted;
// otherwise the resulting record is written through even if the path was
// already absent.
func (c *Cache) DeleteAt(tabID int64, path ...string) {
	if len(path) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.tabs[tabID]
	if !ok {
		return
	}
	deletePath(rec, path...)
	c.writeThrough(tabID, rec)
}

// Remove evicts the in-memory record and issues a persistent delete for the
// tab's key.
func (c *Cache) Remove(tabID int64) {
	c.mu.Lock()
	delete(c.tabs, tabID)
	c.mu.Unlock()
	if c.persist {
		c.store.Remove(storeKey(tabID))
	}
}

// Keys returns the ids of all currently tracked tabs.
func (c *Cache) Keys() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]int64, 0, len(c.tabs))
	for id := range c.tabs {
		keys = append(keys, id)
	}
	return keys
}

// Entries returns a snapshot of the tracked tab map. Records are deep
// copies; mutating them has no effect on the cache.
func (c *Cache) Entries() map[int64]Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]Record, len(c.tabs))
	for id, rec := range c.tabs {
		out[id] = copyRecord(rec)
	}
	return out
}

// OnURLChange adds (enabled=true) or removes (enabled=false) a URL-change
// listener. Both directions are idempotent; listeners fire in registration
// order. Identity is the function pointer, so pass the same func value to
// unregister.
func (c *Cache) OnURLChange(fn Listener, enabled bool) {
	if fn == nil {
		return
	}
	key := reflect.ValueOf(fn).Pointer()
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := -1
	for i, e := range c.listeners {
		if e.key == key {
			idx = i
			break
		}
	}
	if enabled {
		if idx < 0 {
			c.listeners = append(c.listeners, listenerEntry{key: key, fn: fn})
		}
		return
	}
	if idx >= 0 {
		c.listeners = append(c.listeners[:idx], c.listeners[idx+1:]...)
	}
}

// notifyURLChange invokes every registered listener synchronously, in
// registration order. A panicking listener is recovered and logged; it never
// prevents later listeners from running, nor rolls back state.
func (c *Cache) notifyURLChange(ev URLChange) {
	c.mu.RLock()
	entries := make([]listenerEntry, len(c.listeners))
	copy(entries, c.listeners)
	c.mu.RUnlock()

	failed := 0
	for _, e := range entries {
		if err := invokeListener(e.fn, ev); err != nil {
			failed++
			slog.Error("url change listener failed", "tab_id", ev.TabID, "url", ev.URL, "error", err)
		}
	}
	if failed > 0 {
		slog.Warn("url change dispatched with failures", "tab_id", ev.TabID, "failed", failed, "listeners", len(entries))
	}
}

func invokeListener(fn Listener, ev URLChange) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	fn(ev)
	return nil
}

// writeThrough persists the full record for tabID. Callers hold c.mu so the
// store snapshots the record before any later mutation can interleave.
func (c *Cache) writeThrough(tabID int64, rec Record) {
	if !c.persist {
		return
	}
	c.store.Set(storeKey(tabID), rec)
}
