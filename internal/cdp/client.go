package cdp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/dgnsrekt/tabtracker/internal/config"
	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

// Sink receives translated navigation events.
type Sink interface {
	OnNavigation(tabstate.NavigationEvent)
}

// LifecycleHooks receives tab removal and replacement notifications. Wired
// only in eager-cleanup mode; a nil hooks leaves closed tabs for the next
// startup reconciliation.
type LifecycleHooks interface {
	OnTabRemoved(tabID int64)
	OnTabReplaced(newID, oldID int64)
}

// Client manages CDP connections to browser tabs and translates browser
// events into the tracker's integer tab/frame id space.
type Client struct {
	cfg   *config.Config
	sink  Sink
	hooks LifecycleHooks
	ids   *IDRegistry

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	tabsMu sync.RWMutex
	tabs   map[target.ID]*tabContext
	live   []tabstate.LiveTab
}

type tabContext struct {
	targetID target.ID
	url      string
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewClient(cfg *config.Config, sink Sink, hooks LifecycleHooks) *Client {
	return &Client{
		cfg:   cfg,
		sink:  sink,
		hooks: hooks,
		ids:   NewIDRegistry(),
		tabs:  make(map[target.ID]*tabContext),
	}
}

// Connect attaches to the browser, enumerates the open page targets and
// subscribes to navigation and target lifecycle events. The enumerated tabs
// are kept as the live tab snapshot for startup reconciliation. The whole
// session is rooted in ctx: cancelling it tears down the allocator and every
// attached tab, same as Close.
func (c *Client) Connect(ctx context.Context) error {
	cdpURL := c.cfg.GetCDPURL()
	slog.Info("connecting to browser", "url", cdpURL)

	c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(ctx, cdpURL)
	c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)

	if err := chromedp.Run(c.browserCtx); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	chromedp.ListenBrowser(c.browserCtx, c.browserEventHandler)
	if err := chromedp.Run(c.browserCtx, target.SetDiscoverTargets(true)); err != nil {
		return fmt.Errorf("failed to enable target discovery: %w", err)
	}

	targets, err := chromedp.Targets(c.browserCtx)
	if err != nil {
		return fmt.Errorf("failed to enumerate targets: %w", err)
	}

	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		tabID, err := c.attachTarget(t.TargetID, t.URL)
		if err != nil {
			slog.Error("failed to attach to tab", "target_id", t.TargetID, "url", t.URL, "error", err)
			continue
		}
		c.live = append(c.live, tabstate.LiveTab{ID: tabID, URL: t.URL})
	}

	slog.Info("attached to browser", "tabs", len(c.live))
	return nil
}

// LiveTabs returns the tabs that were open when Connect ran.
func (c *Client) LiveTabs() []tabstate.LiveTab {
	out := make([]tabstate.LiveTab, len(c.live))
	copy(out, c.live)
	return out
}

func (c *Client) attachTarget(targetID target.ID, url string) (int64, error) {
	tabID := c.ids.TabID(targetID)

	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx, chromedp.WithTargetID(targetID))
	if err := chromedp.Run(tabCtx, page.Enable()); err != nil {
		tabCancel()
		c.ids.Drop(targetID)
		return 0, fmt.Errorf("failed to enable page domain: %w", err)
	}

	c.tabsMu.Lock()
	c.tabs[targetID] = &tabContext{targetID: targetID, url: url, ctx: tabCtx, cancel: tabCancel}
	c.tabsMu.Unlock()

	chromedp.ListenTarget(tabCtx, c.tabEventHandler(targetID))
	slog.Info("attached to tab", "tab_id", tabID, "target_id", targetID, "url", truncateURL(url))
	return tabID, nil
}

func (c *Client) browserEventHandler(ev any) {
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		if e.TargetInfo.Type != "page" {
			return
		}
		if _, ok := c.ids.Lookup(e.TargetInfo.TargetID); ok {
			return
		}
		// Attach off the event goroutine; chromedp.Run inside a listener
		// would deadlock.
		go func(info *target.Info) {
			if _, err := c.attachTarget(info.TargetID, info.URL); err != nil {
				slog.Error("failed to attach to new tab", "target_id", info.TargetID, "error", err)
			}
		}(e.TargetInfo)
	case *target.EventTargetDestroyed:
		c.handleTargetDestroyed(e.TargetID)
	}
}

func (c *Client) handleTargetDestroyed(targetID target.ID) {
	tabID, ok := c.ids.Lookup(targetID)
	if !ok {
		return
	}

	c.tabsMu.Lock()
	if tab, ok := c.tabs[targetID]; ok {
		tab.cancel()
		delete(c.tabs, targetID)
	}
	c.tabsMu.Unlock()
	c.ids.Drop(targetID)

	slog.Info("tab closed", "tab_id", tabID, "target_id", targetID)
	if c.hooks != nil {
		c.hooks.OnTabRemoved(tabID)
	}
}

func (c *Client) tabEventHandler(targetID target.ID) func(ev any) {
	return func(ev any) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			frameID := int64(0)
			if e.Frame.ParentID == "" {
				c.ids.SetMainFrame(targetID, string(e.Frame.ID))
			} else {
				frameID = c.ids.FrameID(targetID, string(e.Frame.ID))
			}
			tabID, ok := c.ids.Lookup(targetID)
			if !ok {
				return
			}
			c.sink.OnNavigation(tabstate.NavigationEvent{TabID: tabID, FrameID: frameID, URL: e.Frame.URL})
		case *page.EventNavigatedWithinDocument:
			tabID, ok := c.ids.Lookup(targetID)
			if !ok {
				return
			}
			frameID := c.ids.FrameID(targetID, string(e.FrameID))
			c.sink.OnNavigation(tabstate.NavigationEvent{TabID: tabID, FrameID: frameID, URL: e.URL})
		case *inspector.EventTargetCrashed:
			c.handleTargetCrashed(targetID)
		}
	}
}

// handleTargetCrashed treats a renderer crash as a tab replacement: the
// target survives with a fresh renderer, so the old tab id is retired and
// the target continues under a new one. State for the new id accrues through
// the normal navigation path.
func (c *Client) handleTargetCrashed(targetID target.ID) {
	newID, oldID, ok := c.ids.Reassign(targetID)
	if !ok {
		return
	}
	slog.Warn("tab renderer crashed, replacing", "old_tab_id", oldID, "new_tab_id", newID, "target_id", targetID)
	if c.hooks != nil {
		c.hooks.OnTabReplaced(newID, oldID)
	}
}

func (c *Client) Close() error {
	c.tabsMu.Lock()
	for _, tab := range c.tabs {
		tab.cancel()
	}
	c.tabs = make(map[target.ID]*tabContext)
	c.tabsMu.Unlock()

	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	slog.Info("cdp client closed")
	return nil
}

// TabCount returns the number of currently attached tabs.
func (c *Client) TabCount() int {
	c.tabsMu.RLock()
	defer c.tabsMu.RUnlock()
	return len(c.tabs)
}

func truncateURL(url string) string {
	if len(url) > 120 {
		return url[:120] + "..."
	}
	return url
}
