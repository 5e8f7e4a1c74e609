//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/dgnsrekt/tabtracker/internal/cdp"
	"github.com/dgnsrekt/tabtracker/internal/config"
	"github.com/dgnsrekt/tabtracker/internal/store"
	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

// Requires a Chromium instance with remote debugging enabled at the address
// configured via CHROMIUM_CDP_ADDRESS/CHROMIUM_CDP_PORT (default 127.0.0.1:9222).
func TestTrackerAttachesAndReconciles(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	db, err := store.Open(t.TempDir() + "/tabstate.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	cache := tabstate.New(db, cfg.SupportedURL)
	reactor := tabstate.NewReactor(cache)

	// The CDP session lives as long as this context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := cdp.NewClient(cfg, reactor, cache)
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect to browser: %v", err)
	}
	defer client.Close()

	snap, err := db.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	cache.Reconcile(snap, client.LiveTabs())

	live := client.LiveTabs()
	for _, tab := range live {
		if !cfg.SupportedURL(tab.URL) {
			continue
		}
		url, ok := cache.URL(tab.ID)
		if !ok {
			t.Fatalf("live tab %d not tracked after reconciliation", tab.ID)
		}
		if url != tab.URL {
			t.Fatalf("tab %d url = %q; want %q", tab.ID, url, tab.URL)
		}
	}
}
