package relay

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"chat-relay/internal/models"
	"chat-relay/internal/relayerr"
	"chat-relay/internal/repositories"
)

// Coordinator resolves or creates chat sessions. Creation is serialized per
// chat identity so that two concurrent first-sends for the same conversation
// yield exactly one persisted session; the store's unique constraint on the
// identity is the second line of defense.
type Coordinator struct {
	sessions repositories.SessionRepository
	users    repositories.UserDirectory
	logger   *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(sessions repositories.SessionRepository, users repositories.UserDirectory, logger *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		sessions: sessions,
		users:    users,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockIdentity takes the creation lock for one chat identity.
func (c *Coordinator) lockIdentity(chatID string) func() {
	c.mu.Lock()
	lock, ok := c.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[chatID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// ResolveOrCreate returns the session for chatID, creating it when absent.
// An existing session is returned unchanged; the first writer's display name
// and participants are authoritative. Unknown participant usernames are
// skipped silently. The returned bool reports whether this call created the
// session.
func (c *Coordinator) ResolveOrCreate(ctx context.Context, chatID string, displayName string, participants []string) (models.ChatSession, bool, error) {
	unlock := c.lockIdentity(chatID)
	defer unlock()

	session, err := c.sessions.SessionByIdentity(ctx, chatID)
	if err == nil {
		return session, false, nil
	}
	if !errors.Is(err, repositories.ErrSessionNotFound) {
		return models.ChatSession{}, false, relayerr.Wrap(relayerr.InternalServer, "session lookup failed", err)
	}

	var (
		usernames []string
		userIDs   []int
	)
	for _, participant := range participants {
		user, err := c.users.FindByUsername(ctx, participant)
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.logger.Debugw("skipping unknown participant", "username", participant, "chat_id", chatID)
			continue
		}
		if err != nil {
			return models.ChatSession{}, false, relayerr.Wrap(relayerr.InternalServer, "participant lookup failed", err)
		}
		usernames = append(usernames, user.Username)
		userIDs = append(userIDs, user.ID)
	}

	session, created, err := c.sessions.AddSession(ctx, models.ChatSession{
		ChatID:       chatID,
		DisplayName:  displayName,
		Participants: usernames,
	}, userIDs)
	if err != nil {
		return models.ChatSession{}, false, relayerr.Wrap(relayerr.InternalServer, "session creation failed", err)
	}
	return session, created, nil
}
