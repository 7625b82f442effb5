// Package relay implements the session-coordination and fan-out core:
// presence tracking, chat-identity resolution and best-effort event delivery
// to live connections.
package relay

// Conn is a live connection handle supplied by the transport layer. Send
// enqueues one named event for the connection's single writer; implementations
// must keep per-connection delivery order and never block the caller.
type Conn interface {
	ID() string
	Send(event string, payload any) error
	Close() error
}

// Caller identifies the connection an operation originates from. Username is
// empty for connections that carried no resolvable token; such callers stay
// attached at the transport level but are never registered for presence.
type Caller struct {
	Username string
	Conn     Conn
}

// Authenticated reports whether the caller carries a username.
func (c Caller) Authenticated() bool {
	return c.Username != ""
}
