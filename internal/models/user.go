package models

import "time"

// UserRef identifies a registered user resolved through the user directory.
type UserRef struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
