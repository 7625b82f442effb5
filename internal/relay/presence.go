package relay

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Presence is the process-wide directory of logged-in users and their live
// connection handles. One instance exists for the process lifetime and is
// shared by every connection-handling goroutine. Entries are transient; a
// restart loses them all.
type Presence struct {
	mu    sync.RWMutex
	users map[string]Conn
}

// NewPresence creates an empty directory.
func NewPresence() *Presence {
	return &Presence{users: make(map[string]Conn)}
}

// Register inserts or overwrites the mapping for username. Last writer wins;
// a superseded handle is not notified.
func (p *Presence) Register(username string, conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[username] = conn
}

// Unregister removes the mapping if present.
func (p *Presence) Unregister(username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, username)
}

// Lookup returns the current handle for username.
func (p *Presence) Lookup(username string) (Conn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conn, ok := p.users[username]
	return conn, ok
}

// Snapshot returns a sorted point-in-time copy of the present usernames.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	usernames := lo.Keys(p.users)
	p.mu.RUnlock()

	sort.Strings(usernames)
	return usernames
}

// Len reports the current number of present users.
func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}
