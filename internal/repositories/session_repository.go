package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

var ErrSessionNotFound = errors.New("chat session not found")

// SessionRepository abstracts chat-session persistence.
type SessionRepository interface {
	// AddSession persists a session unless one already exists for the same
	// chat identity. It returns the winning row and whether this call
	// created it; concurrent callers racing on the same identity get the
	// same row back with created=false for all but one of them.
	AddSession(ctx context.Context, session models.ChatSession, participantIDs []int) (models.ChatSession, bool, error)
	SessionByIdentity(ctx context.Context, chatID string) (models.ChatSession, error)
	SessionsForUser(ctx context.Context, username string) ([]models.ChatSession, error)
	IdentityByDisplayName(ctx context.Context, displayName string) (string, error)
}

// SessionRepo is a sqlx implementation of SessionRepository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// AddSession inserts the session and its participants atomically. The unique
// constraint on chat_id is the arbiter for concurrent first-sends.
func (r *SessionRepo) AddSession(ctx context.Context, session models.ChatSession, participantIDs []int) (models.ChatSession, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ChatSession{}, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var created models.ChatSession
	err = tx.QueryRowxContext(ctx, `INSERT INTO chat_sessions (chat_id, display_name) VALUES ($1, $2)
        ON CONFLICT (chat_id) DO NOTHING
        RETURNING id, chat_id, display_name, created_at`, session.ChatID, session.DisplayName).
		Scan(&created.ID, &created.ChatID, &created.DisplayName, &created.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the race; hand back the existing row.
		err = tx.Commit()
		if err != nil {
			return models.ChatSession{}, false, err
		}
		existing, getErr := r.SessionByIdentity(ctx, session.ChatID)
		return existing, false, getErr
	}
	if err != nil {
		return models.ChatSession{}, false, err
	}

	for _, userID := range participantIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO session_participants (session_id, user_id) VALUES ($1, $2)
            ON CONFLICT DO NOTHING`, created.ID, userID); err != nil {
			return models.ChatSession{}, false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.ChatSession{}, false, err
	}

	created.Participants = session.Participants
	return created, true, nil
}

// SessionByIdentity fetches a session and its participant usernames.
func (r *SessionRepo) SessionByIdentity(ctx context.Context, chatID string) (models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.GetContext(ctx, &session, `SELECT id, chat_id, display_name, created_at FROM chat_sessions WHERE chat_id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatSession{}, ErrSessionNotFound
	}
	if err != nil {
		return models.ChatSession{}, err
	}

	err = r.db.SelectContext(ctx, &session.Participants, `SELECT u.username FROM users u
        INNER JOIN session_participants sp ON sp.user_id = u.id
        WHERE sp.session_id=$1
        ORDER BY u.username`, session.ID)
	return session, err
}

// SessionsForUser returns every session the user participates in.
func (r *SessionRepo) SessionsForUser(ctx context.Context, username string) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := r.db.SelectContext(ctx, &sessions, `SELECT cs.id, cs.chat_id, cs.display_name, cs.created_at FROM chat_sessions cs
        INNER JOIN session_participants sp ON sp.session_id = cs.id
        INNER JOIN users u ON u.id = sp.user_id
        WHERE u.username=$1
        ORDER BY cs.created_at DESC`, username)
	return sessions, err
}

// IdentityByDisplayName resolves a display name to the most recent session
// identity carrying it. Display names are not unique; latest wins.
func (r *SessionRepo) IdentityByDisplayName(ctx context.Context, displayName string) (string, error) {
	var chatID string
	err := r.db.GetContext(ctx, &chatID, `SELECT chat_id FROM chat_sessions WHERE display_name=$1 ORDER BY created_at DESC LIMIT 1`, displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	return chatID, err
}
