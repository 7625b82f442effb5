package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"chat-relay/internal/identity"
	"chat-relay/internal/models"
	"chat-relay/internal/relayerr"
	"chat-relay/internal/repositories"
)

// Relay ties presence, session coordination and fan-out together. One
// instance serves the whole process; the transport layer calls into it for
// lifecycle transitions and client actions.
type Relay struct {
	presence    *Presence
	router      *Router
	coordinator *Coordinator
	sessions    repositories.SessionRepository
	messages    repositories.MessageRepository
	unread      *UnreadTracker
	logger      *zap.SugaredLogger
}

// New constructs a Relay.
func New(presence *Presence, router *Router, coordinator *Coordinator, sessions repositories.SessionRepository, messages repositories.MessageRepository, unread *UnreadTracker, logger *zap.SugaredLogger) *Relay {
	return &Relay{
		presence:    presence,
		router:      router,
		coordinator: coordinator,
		sessions:    sessions,
		messages:    messages,
		unread:      unread,
		logger:      logger,
	}
}

// Connected registers an authenticated caller and broadcasts the refreshed
// online list. Anonymous connections complete the transition without
// registration and stay invisible to presence.
func (r *Relay) Connected(username string, conn Conn) {
	if username == "" {
		r.logger.Debugw("anonymous connection attached", "conn_id", conn.ID())
		return
	}
	r.presence.Register(username, conn)
	r.router.ToAll(EventOnlineUsers, r.presence.Snapshot())
	r.logger.Infow("user connected", "username", username, "conn_id", conn.ID(), "online", r.presence.Len())
}

// Disconnected removes the caller from presence and broadcasts the departure
// together with the refreshed online list. cause may be nil for a clean
// transport closure.
func (r *Relay) Disconnected(username string, cause error) {
	if username == "" {
		return
	}
	r.presence.Unregister(username)
	r.router.ToAll(EventUserDisconnected, fmt.Sprintf("%s left the chat", username))
	r.router.ToAll(EventOnlineUsers, r.presence.Snapshot())
	r.logger.Infow("user disconnected", "username", username, "cause", cause, "online", r.presence.Len())
}

// SendPrivateMessage persists a 1:1 message and delivers it to the receiver's
// live connection plus an echo to the caller. An offline receiver produces a
// caller-only system notice instead.
func (r *Relay) SendPrivateMessage(ctx context.Context, caller Caller, receiver string, content string) error {
	if !caller.Authenticated() {
		r.router.ToConn(caller.Conn, EventReceivePrivateMessage, ChatPayload{Sender: SystemSender, Content: "User not authenticated"})
		return nil
	}

	chatID, err := identity.Derive([]string{caller.Username, receiver})
	if err != nil {
		r.router.ToConn(caller.Conn, EventReceivePrivateMessage, ChatPayload{Sender: SystemSender, Content: relayerr.MessageOf(err)})
		return err
	}

	if _, _, err := r.coordinator.ResolveOrCreate(ctx, chatID, receiver, []string{caller.Username, receiver}); err != nil {
		return err
	}

	if _, err := r.messages.AddMessage(ctx, chatID, caller.Username, content); err != nil {
		return relayerr.Wrap(relayerr.InternalServer, "message persistence failed", err)
	}

	payload := ChatPayload{Sender: caller.Username, Content: content}
	if r.router.ToUser(receiver, EventReceivePrivateMessage, payload) {
		r.router.ToConn(caller.Conn, EventReceivePrivateMessage, payload)
		r.router.ToUser(receiver, EventNewConversationNotification, caller.Username)
		return nil
	}

	r.router.ToConn(caller.Conn, EventReceivePrivateMessage, ChatPayload{Sender: SystemSender, Content: "User is not connected"})
	return nil
}

// SendMessageToGroup persists a group message and delivers it to every
// session participant currently present, the sender included.
func (r *Relay) SendMessageToGroup(ctx context.Context, caller Caller, groupName string, recipients []string, content string) error {
	if !caller.Authenticated() {
		r.router.ToConn(caller.Conn, EventReceiveMessage, ChatPayload{Sender: SystemSender, Content: "User not authenticated"})
		return nil
	}

	participants := append([]string{caller.Username}, recipients...)
	chatID, err := identity.Derive(participants)
	if err != nil {
		r.router.ToConn(caller.Conn, EventReceiveMessage, ChatPayload{Sender: SystemSender, Content: relayerr.MessageOf(err)})
		return err
	}

	session, _, err := r.coordinator.ResolveOrCreate(ctx, chatID, groupName, participants)
	if err != nil {
		return err
	}

	if _, err := r.messages.AddMessage(ctx, chatID, caller.Username, content); err != nil {
		return relayerr.Wrap(relayerr.InternalServer, "message persistence failed", err)
	}

	// Membership recorded at creation is authoritative for fan-out.
	r.router.ToUsers(session.Participants, EventReceiveMessage, ChatPayload{Sender: caller.Username, Content: content})
	return nil
}

// CreateGroup creates a group session for the caller plus participants and
// notifies every invited participant currently present. A session already
// existing for the same participant set is rejected with a caller-only
// notice; nothing is overwritten.
func (r *Relay) CreateGroup(ctx context.Context, caller Caller, groupName string, participants []string) error {
	if !caller.Authenticated() {
		r.router.ToConn(caller.Conn, EventReceiveMessage, ChatPayload{Sender: SystemSender, Content: "User not authenticated"})
		return nil
	}

	full := append([]string{caller.Username}, participants...)
	chatID, err := identity.Derive(full)
	if err != nil {
		r.router.ToConn(caller.Conn, EventReceiveMessage, ChatPayload{Sender: SystemSender, Content: relayerr.MessageOf(err)})
		return err
	}

	session, created, err := r.coordinator.ResolveOrCreate(ctx, chatID, groupName, full)
	if err != nil {
		return err
	}
	if !created {
		r.router.ToConn(caller.Conn, EventReceiveMessage, ChatPayload{Sender: SystemSender, Content: "Group already exists"})
		return nil
	}

	info := GroupInfo{DisplayName: session.DisplayName, Participants: session.Participants}
	r.router.ToUsers(participants, EventGroupCreated, info)
	return nil
}

// MessagesForChat returns the history for a conversation named by its display
// name, falling back to the pair identity {caller, name} for private chats,
// and resets the caller's unread counter.
func (r *Relay) MessagesForChat(ctx context.Context, caller Caller, name string) ([]models.Message, error) {
	if !caller.Authenticated() {
		return nil, relayerr.New(relayerr.Unauthorized, "User not authenticated")
	}

	chatID, err := r.sessions.IdentityByDisplayName(ctx, name)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		if chatID, err = identity.Derive([]string{caller.Username, name}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, relayerr.Wrap(relayerr.InternalServer, "chat identity resolution failed", err)
	}

	msgs, err := r.messages.MessagesForChat(ctx, chatID)
	if err != nil {
		return nil, relayerr.Wrap(relayerr.InternalServer, "history lookup failed", err)
	}

	r.unread.MarkRead(caller.Username)
	return msgs, nil
}

// OnlineUsers sends the caller the present usernames excluding itself and
// returns the same list.
func (r *Relay) OnlineUsers(caller Caller) []string {
	users := lo.Without(r.presence.Snapshot(), caller.Username)
	r.router.ToConn(caller.Conn, EventOnlineUsers, users)
	return users
}

// UserGroups returns the display names of every session the caller
// participates in.
func (r *Relay) UserGroups(ctx context.Context, caller Caller) ([]string, error) {
	if !caller.Authenticated() {
		return nil, relayerr.New(relayerr.Unauthorized, "User not authenticated")
	}

	sessions, err := r.sessions.SessionsForUser(ctx, caller.Username)
	if err != nil {
		return nil, relayerr.Wrap(relayerr.InternalServer, "session listing failed", err)
	}
	return lo.Map(sessions, func(s models.ChatSession, _ int) string { return s.DisplayName }), nil
}

// NotifyGroupMessage broadcasts a new-group-message notification to everyone
// present.
func (r *Relay) NotifyGroupMessage(groupName string) {
	r.router.ToAll(EventNewGroupMessageNotification, groupName)
}
