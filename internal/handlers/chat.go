package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/relay"
	"chat-relay/internal/repositories"
	"chat-relay/internal/telemetry"
)

// ChatHandler serves the REST read surface next to the websocket relay.
type ChatHandler struct {
	sessionRepo repositories.SessionRepository
	messageRepo repositories.MessageRepository
	unread      *relay.UnreadTracker
	audit       *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(sessionRepo repositories.SessionRepository, messageRepo repositories.MessageRepository, unread *relay.UnreadTracker, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		unread:      unread,
		audit:       audit,
	}
}

// ListSessions returns every session the caller participates in.
func (h *ChatHandler) ListSessions(c *gin.Context) {
	username := c.GetString("username")

	sessions, err := h.sessionRepo.SessionsForUser(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetChatMessages returns the history for a session named by display name
// and resets the caller's unread counter.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	username := c.GetString("username")
	displayName := c.Param("display_name")

	chatID, err := h.sessionRepo.IdentityByDisplayName(c.Request.Context(), displayName)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve chat"})
		return
	}

	session, err := h.sessionRepo.SessionByIdentity(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}
	if !session.HasParticipant(username) {
		h.audit.Emit(c.Request.Context(), "WARN", "history access denied", requestIDFromContext(c), username)
		c.JSON(http.StatusForbidden, gin.H{"error": "not a session participant"})
		return
	}

	msgs, err := h.messageRepo.MessagesForChat(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	h.unread.MarkRead(username)
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetUnread returns the caller's unread counter.
func (h *ChatHandler) GetUnread(c *gin.Context) {
	username := c.GetString("username")
	c.JSON(http.StatusOK, gin.H{"count": h.unread.Count(username)})
}
