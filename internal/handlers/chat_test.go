package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/relay"
	"chat-relay/internal/repositories"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("username", "alice")
		c.Next()
	})
	r.GET("/sessions", handler.ListSessions)
	r.GET("/sessions/:display_name/messages", handler.GetChatMessages)
	r.GET("/unread", handler.GetUnread)
	return r
}

func TestListSessionsSuccess(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	handler := NewChatHandler(sessionRepo, nil, relay.NewUnreadTracker(), nil)
	router := setupChatRouter(handler)

	sessionRepo.On("SessionsForUser", mock.Anything, "alice").
		Return([]models.ChatSession{{ID: 1, ChatID: "alice-bob", DisplayName: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	sessionRepo.AssertExpectations(t)
}

func TestListSessionsRepoError(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	handler := NewChatHandler(sessionRepo, nil, relay.NewUnreadTracker(), nil)
	router := setupChatRouter(handler)

	sessionRepo.On("SessionsForUser", mock.Anything, "alice").
		Return(([]models.ChatSession)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	sessionRepo.AssertExpectations(t)
}

func TestGetChatMessagesSuccessResetsUnread(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	unread := relay.NewUnreadTracker()
	unread.Bump("alice")
	handler := NewChatHandler(sessionRepo, messageRepo, unread, nil)
	router := setupChatRouter(handler)

	sessionRepo.On("IdentityByDisplayName", mock.Anything, "bob").Return("alice-bob", nil).Once()
	sessionRepo.On("SessionByIdentity", mock.Anything, "alice-bob").
		Return(models.ChatSession{ID: 1, ChatID: "alice-bob", Participants: []string{"alice", "bob"}}, nil).Once()
	messageRepo.On("MessagesForChat", mock.Anything, "alice-bob").
		Return([]models.Message{{ID: 1, ChatID: "alice-bob", Sender: "bob", Content: "hi"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions/bob/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, unread.Count("alice"))
	sessionRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetChatMessagesNotFound(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	handler := NewChatHandler(sessionRepo, nil, relay.NewUnreadTracker(), nil)
	router := setupChatRouter(handler)

	sessionRepo.On("IdentityByDisplayName", mock.Anything, "ghost").
		Return("", repositories.ErrSessionNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions/ghost/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	sessionRepo.AssertExpectations(t)
}

func TestGetChatMessagesForbiddenForNonParticipant(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	handler := NewChatHandler(sessionRepo, nil, relay.NewUnreadTracker(), nil)
	router := setupChatRouter(handler)

	sessionRepo.On("IdentityByDisplayName", mock.Anything, "Trip").Return("bob-carol", nil).Once()
	sessionRepo.On("SessionByIdentity", mock.Anything, "bob-carol").
		Return(models.ChatSession{ID: 2, ChatID: "bob-carol", Participants: []string{"bob", "carol"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/sessions/Trip/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	sessionRepo.AssertExpectations(t)
}

func TestGetUnread(t *testing.T) {
	unread := relay.NewUnreadTracker()
	unread.Bump("alice")
	unread.Bump("alice")
	handler := NewChatHandler(nil, nil, unread, nil)
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/unread", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 2, resp["count"])
}
