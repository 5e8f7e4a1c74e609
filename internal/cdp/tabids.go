package cdp

import (
	"sync"

	"github.com/chromedp/cdproto/target"
)

// IDRegistry assigns stable non-negative integer ids to CDP target and frame
// identifiers. Tab ids are monotonic for the life of the process; frame id 0
// is reserved for the top frame of every tab, subframes get per-tab ids
// starting at 1.
type IDRegistry struct {
	mu        sync.Mutex
	nextTab   int64
	tabs      map[target.ID]int64
	frames    map[target.ID]map[string]int64
	nextFrame map[target.ID]int64
	mainFrame map[target.ID]string
}

func NewIDRegistry() *IDRegistry {
	return &IDRegistry{
		tabs:      make(map[target.ID]int64),
		frames:    make(map[target.ID]map[string]int64),
		nextFrame: make(map[target.ID]int64),
		mainFrame: make(map[target.ID]string),
	}
}

// TabID returns the integer id for a target, assigning the next one on first
// sight.
func (r *IDRegistry) TabID(t target.ID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.tabs[t]; ok {
		return id
	}
	id := r.nextTab
	r.nextTab++
	r.tabs[t] = id
	return id
}

// Lookup returns the assigned id without allocating a new one.
func (r *IDRegistry) Lookup(t target.ID) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.tabs[t]
	return id, ok
}

// Reassign gives the target a fresh tab id, returning the new and previous
// ids. Used when the renderer process behind a tab is swapped out.
func (r *IDRegistry) Reassign(t target.ID) (newID, oldID int64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oldID, ok = r.tabs[t]
	if !ok {
		return 0, 0, false
	}
	newID = r.nextTab
	r.nextTab++
	r.tabs[t] = newID
	delete(r.frames, t)
	delete(r.nextFrame, t)
	delete(r.mainFrame, t)
	return newID, oldID, true
}

// Drop forgets all ids for a destroyed target.
func (r *IDRegistry) Drop(t target.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, t)
	delete(r.frames, t)
	delete(r.nextFrame, t)
	delete(r.mainFrame, t)
}

// SetMainFrame records the CDP frame id of the tab's top-level document.
func (r *IDRegistry) SetMainFrame(t target.ID, frame string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mainFrame[t] = frame
}

// FrameID maps a CDP frame id to an integer frame id. The top frame is
// always 0; an unknown main frame is assumed to be the top frame, since CDP
// delivers the first frameNavigated for the top document before any subframe.
func (r *IDRegistry) FrameID(t target.ID, frame string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	main, known := r.mainFrame[t]
	if !known {
		r.mainFrame[t] = frame
		return 0
	}
	if frame == main {
		return 0
	}
	m, ok := r.frames[t]
	if !ok {
		m = make(map[string]int64)
		r.frames[t] = m
		r.nextFrame[t] = 1
	}
	if id, ok := m[frame]; ok {
		return id
	}
	id := r.nextFrame[t]
	r.nextFrame[t] = id + 1
	m[frame] = id
	return id
}
