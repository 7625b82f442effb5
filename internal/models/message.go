package models

import "time"

// Message is a persisted chat message. Immutable once created; retrieval
// order is CreatedAt ascending.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChatID    string    `db:"chat_id" json:"chat_id"`
	Sender    string    `db:"sender" json:"sender"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
