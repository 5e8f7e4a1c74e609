package tabstate

// OnTabRemoved evicts the cache and store entry for a closed tab.
func (c *Cache) OnTabRemoved(tabID int64) {
	c.Remove(tabID)
}

// OnTabReplaced handles a renderer-process swap where oldID is superseded by
// newID. Only the old entry is evicted; the new id acquires its own record
// through the normal navigation path.
func (c *Cache) OnTabReplaced(newID, oldID int64) {
	_ = newID
	c.Remove(oldID)
}
