package relay

import (
	"go.uber.org/zap"

	"chat-relay/internal/observability"
)

// Router delivers named events to the live connections of a target audience.
// Delivery is best-effort: targets absent from the presence directory at
// routing time are silently skipped, and a failed write is dropped without
// retry.
type Router struct {
	presence *Presence
	logger   *zap.SugaredLogger
}

// NewRouter constructs a Router over the shared presence directory.
func NewRouter(presence *Presence, logger *zap.SugaredLogger) *Router {
	return &Router{presence: presence, logger: logger}
}

// ToConn delivers an event to a single known connection handle.
func (r *Router) ToConn(conn Conn, event string, payload any) {
	if conn == nil {
		return
	}
	if err := conn.Send(event, payload); err != nil {
		r.logger.Warnw("event dropped", "event", event, "conn_id", conn.ID(), "error", err)
		observability.IncFanout(event, "dropped")
		return
	}
	observability.IncFanout(event, "delivered")
}

// ToUser delivers an event to the named user's current connection. It reports
// whether the user was present at routing time.
func (r *Router) ToUser(username string, event string, payload any) bool {
	conn, ok := r.presence.Lookup(username)
	if !ok {
		observability.IncFanout(event, "absent")
		return false
	}
	r.ToConn(conn, event, payload)
	return true
}

// ToUsers delivers an event to every named user currently present.
func (r *Router) ToUsers(usernames []string, event string, payload any) {
	for _, username := range usernames {
		r.ToUser(username, event, payload)
	}
}

// ToAll broadcasts an event to everyone present at routing time.
func (r *Router) ToAll(event string, payload any) {
	r.ToUsers(r.presence.Snapshot(), event, payload)
}
