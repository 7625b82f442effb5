package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

// MessageRepository defines interactions for persisted messages.
type MessageRepository interface {
	AddMessage(ctx context.Context, chatID string, sender string, content string) (models.Message, error)
	MessagesForChat(ctx context.Context, chatID string) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// AddMessage stores a message in a chat session.
func (r *MessageRepo) AddMessage(ctx context.Context, chatID string, sender string, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender, content) VALUES ($1, $2, $3)
        RETURNING id, chat_id, sender, content, created_at`, chatID, sender, content).
		Scan(&msg.ID, &msg.ChatID, &msg.Sender, &msg.Content, &msg.CreatedAt)
	return msg, err
}

// MessagesForChat returns the chat history ordered by creation time.
func (r *MessageRepo) MessagesForChat(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, chat_id, sender, content, created_at FROM messages
        WHERE chat_id=$1
        ORDER BY created_at ASC`, chatID)
	return msgs, err
}
