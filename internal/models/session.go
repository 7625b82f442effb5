package models

import "time"

// ChatSession is a persisted conversation, private or group. ChatID is the
// identity derived from the full participant set and is unique per session.
type ChatSession struct {
	ID          int       `db:"id" json:"id"`
	ChatID      string    `db:"chat_id" json:"chat_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// Participants are usernames, fixed at creation.
	Participants []string `json:"participants,omitempty"`
}

// HasParticipant reports whether username belongs to the session.
func (s ChatSession) HasParticipant(username string) bool {
	for _, p := range s.Participants {
		if p == username {
			return true
		}
	}
	return false
}
