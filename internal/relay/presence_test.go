package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresenceRegisterOverwrites(t *testing.T) {
	p := NewPresence()
	h1 := newFakeConn("h1")
	h2 := newFakeConn("h2")

	p.Register("alice", h1)
	conn, ok := p.Lookup("alice")
	require.True(t, ok)
	require.Equal(t, "h1", conn.ID())

	p.Register("alice", h2)
	conn, ok = p.Lookup("alice")
	require.True(t, ok)
	require.Equal(t, "h2", conn.ID())

	p.Unregister("alice")
	_, ok = p.Lookup("alice")
	require.False(t, ok)
}

func TestPresenceUnregisterAbsentIsNoop(t *testing.T) {
	p := NewPresence()
	p.Unregister("ghost")
	require.Equal(t, 0, p.Len())
}

func TestPresenceSnapshotSortedCopy(t *testing.T) {
	p := NewPresence()
	p.Register("carol", newFakeConn("c"))
	p.Register("alice", newFakeConn("a"))
	p.Register("bob", newFakeConn("b"))

	snapshot := p.Snapshot()
	require.Equal(t, []string{"alice", "bob", "carol"}, snapshot)

	// Mutations after the snapshot must not be reflected in it.
	p.Unregister("bob")
	require.Equal(t, []string{"alice", "bob", "carol"}, snapshot)
	require.Equal(t, []string{"alice", "carol"}, p.Snapshot())
}

func TestPresenceConcurrentAccess(t *testing.T) {
	p := NewPresence()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			username := fmt.Sprintf("user%d", n%8)
			p.Register(username, newFakeConn(fmt.Sprintf("conn%d", n)))
			p.Lookup(username)
			p.Snapshot()
			if n%2 == 0 {
				p.Unregister(username)
			}
		}(i)
	}
	wg.Wait()

	// Every remaining entry must map to a live handle.
	for _, username := range p.Snapshot() {
		_, ok := p.Lookup(username)
		require.True(t, ok)
	}
}
