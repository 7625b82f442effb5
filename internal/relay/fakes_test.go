package relay

import (
	"context"
	"errors"
	"sync"

	"chat-relay/internal/models"
	"chat-relay/internal/repositories"
)

type sentEvent struct {
	Event   string
	Payload any
}

// fakeConn records delivered events in order.
type fakeConn struct {
	id   string
	fail bool

	mu     sync.Mutex
	events []sentEvent
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event string, payload any) error {
	if c.fail {
		return errors.New("write failed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, sentEvent{Event: event, Payload: payload})
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) recorded() []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) byEvent(event string) []sentEvent {
	var out []sentEvent
	for _, e := range c.recorded() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeConn) last(event string) (sentEvent, bool) {
	matches := c.byEvent(event)
	if len(matches) == 0 {
		return sentEvent{}, false
	}
	return matches[len(matches)-1], true
}

// fakeStore is an in-memory SessionRepository and MessageRepository with the
// same create-if-absent arbitration as the real store.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]models.ChatSession
	messages map[string][]models.Message
	nextID   int

	addSessionCalls int
	failLookups     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]models.ChatSession),
		messages: make(map[string][]models.Message),
	}
}

func (s *fakeStore) AddSession(_ context.Context, session models.ChatSession, _ []int) (models.ChatSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSessionCalls++
	if existing, ok := s.sessions[session.ChatID]; ok {
		return existing, false, nil
	}
	s.nextID++
	session.ID = s.nextID
	s.sessions[session.ChatID] = session
	return session, true, nil
}

func (s *fakeStore) SessionByIdentity(_ context.Context, chatID string) (models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookups {
		return models.ChatSession{}, errors.New("store unavailable")
	}
	session, ok := s.sessions[chatID]
	if !ok {
		return models.ChatSession{}, repositories.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeStore) SessionsForUser(_ context.Context, username string) ([]models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChatSession
	for _, session := range s.sessions {
		if session.HasParticipant(username) {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *fakeStore) IdentityByDisplayName(_ context.Context, displayName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.DisplayName == displayName {
			return session.ChatID, nil
		}
	}
	return "", repositories.ErrSessionNotFound
}

func (s *fakeStore) AddMessage(_ context.Context, chatID string, sender string, content string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := models.Message{ID: len(s.messages[chatID]) + 1, ChatID: chatID, Sender: sender, Content: content}
	s.messages[chatID] = append(s.messages[chatID], msg)
	return msg, nil
}

func (s *fakeStore) MessagesForChat(_ context.Context, chatID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages[chatID]...), nil
}

func (s *fakeStore) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *fakeStore) messageCount(chatID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[chatID])
}

// fakeUsers resolves a fixed username set.
type fakeUsers struct {
	known map[string]int
}

func newFakeUsers(usernames ...string) *fakeUsers {
	known := make(map[string]int, len(usernames))
	for i, username := range usernames {
		known[username] = i + 1
	}
	return &fakeUsers{known: known}
}

func (u *fakeUsers) FindByUsername(_ context.Context, username string) (models.UserRef, error) {
	id, ok := u.known[username]
	if !ok {
		return models.UserRef{}, repositories.ErrUserNotFound
	}
	return models.UserRef{ID: id, Username: username}, nil
}
