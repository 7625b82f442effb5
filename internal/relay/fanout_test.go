package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRouterToUserDeliversWhenPresent(t *testing.T) {
	presence := NewPresence()
	router := NewRouter(presence, zap.NewNop().Sugar())

	conn := newFakeConn("c1")
	presence.Register("alice", conn)

	delivered := router.ToUser("alice", EventReceiveMessage, ChatPayload{Sender: "bob", Content: "hi"})
	require.True(t, delivered)

	events := conn.byEvent(EventReceiveMessage)
	require.Len(t, events, 1)
	require.Equal(t, ChatPayload{Sender: "bob", Content: "hi"}, events[0].Payload)
}

func TestRouterToUserSilentlySkipsAbsent(t *testing.T) {
	router := NewRouter(NewPresence(), zap.NewNop().Sugar())
	require.False(t, router.ToUser("ghost", EventReceiveMessage, nil))
}

func TestRouterDropsOnWriteFailure(t *testing.T) {
	presence := NewPresence()
	router := NewRouter(presence, zap.NewNop().Sugar())

	broken := newFakeConn("c1")
	broken.fail = true
	presence.Register("alice", broken)

	// A failed write must not panic, retry, or surface to the caller.
	require.True(t, router.ToUser("alice", EventReceiveMessage, nil))
}

func TestRouterToAllReachesEveryonePresent(t *testing.T) {
	presence := NewPresence()
	router := NewRouter(presence, zap.NewNop().Sugar())

	alice := newFakeConn("a")
	bob := newFakeConn("b")
	presence.Register("alice", alice)
	presence.Register("bob", bob)

	router.ToAll(EventOnlineUsers, []string{"alice", "bob"})

	require.Len(t, alice.byEvent(EventOnlineUsers), 1)
	require.Len(t, bob.byEvent(EventOnlineUsers), 1)
}

func TestRouterToUsersPartialPresence(t *testing.T) {
	presence := NewPresence()
	router := NewRouter(presence, zap.NewNop().Sugar())

	bob := newFakeConn("b")
	presence.Register("bob", bob)

	router.ToUsers([]string{"alice", "bob", "carol"}, EventGroupCreated, GroupInfo{DisplayName: "Trip"})

	require.Len(t, bob.byEvent(EventGroupCreated), 1)
}
