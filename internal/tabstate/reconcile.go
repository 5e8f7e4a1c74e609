package tabstate

import (
	"encoding/json"
	"log/slog"
	"strconv"
)

// LiveTab describes one open browser tab at the moment the persisted
// snapshot was taken.
type LiveTab struct {
	ID  int64
	URL string
}

// Reconcile runs once at startup, after the store signals readiness with the
// full persisted mapping. It rebuilds the cache from the live tab list and
// garbage-collects persisted entries whose tab is gone or whose URL is no
// longer supported. Keys that do not parse as non-negative integers belong
// to other subsystems sharing the store and are never touched.
//
// Navigation or removal events that arrived before reconciliation may
// already have populated the cache; both paths perform idempotent
// read-modify-write on the same map, so either ordering converges.
func (c *Cache) Reconcile(persisted map[string]json.RawMessage, live []LiveTab) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inserted := make(map[int64]bool, len(live))
	for _, tab := range live {
		if !c.supported(tab.URL) {
			continue
		}
		rec := make(Record)
		found := false
		if raw, ok := persisted[storeKey(tab.ID)]; ok {
			if err := json.Unmarshal(raw, &rec); err != nil {
				// Partial or corrupt write from a previous run; start clean.
				slog.Debug("discarding unreadable tab record", "tab_id", tab.ID, "error", err)
				rec = make(Record)
			} else {
				found = true
			}
		}
		dirty := !found
		if url, _ := rec[KeyURL].(string); url != tab.URL {
			rec[KeyURL] = tab.URL
			dirty = true
		}
		if dirty {
			c.writeThrough(tab.ID, rec)
		}
		c.tabs[tab.ID] = rec
		inserted[tab.ID] = true
	}

	purged := 0
	for key := range persisted {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id < 0 {
			continue
		}
		if inserted[id] {
			continue
		}
		if c.persist {
			c.store.Remove(key)
		}
		purged++
	}

	slog.Info("tab state reconciled", "live", len(live), "tracked", len(inserted), "purged", purged)
}
