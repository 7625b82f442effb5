package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserDirectory resolves usernames to registered users.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (models.UserRef, error)
}

// UserRepo is a sqlx implementation of UserDirectory.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByUsername fetches a user by username.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (models.UserRef, error) {
	var user models.UserRef
	err := r.db.GetContext(ctx, &user, `SELECT id, username, created_at FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserRef{}, ErrUserNotFound
	}
	return user, err
}
