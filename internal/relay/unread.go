package relay

import "sync"

// UnreadTracker keeps per-user unread counters. The relay itself never
// increments; Bump exists for the surrounding notification path. MarkRead
// only zeroes an existing entry and never creates one.
type UnreadTracker struct {
	mu       sync.RWMutex
	counters map[string]int
}

// NewUnreadTracker creates an empty tracker.
func NewUnreadTracker() *UnreadTracker {
	return &UnreadTracker{counters: make(map[string]int)}
}

// Bump increments the counter for username, creating it at 1.
func (t *UnreadTracker) Bump(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters[username]++
}

// MarkRead zeroes the counter for username if an entry exists.
func (t *UnreadTracker) MarkRead(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.counters[username]; ok {
		t.counters[username] = 0
	}
}

// Count returns the current counter, zero for unknown users.
func (t *UnreadTracker) Count(username string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counters[username]
}
