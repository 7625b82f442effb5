package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-relay/internal/models"
)

type SessionRepositoryMock struct {
	mock.Mock
}

func (m *SessionRepositoryMock) AddSession(ctx context.Context, session models.ChatSession, participantIDs []int) (models.ChatSession, bool, error) {
	args := m.Called(ctx, session, participantIDs)
	var out models.ChatSession
	if val := args.Get(0); val != nil {
		out = val.(models.ChatSession)
	}
	return out, args.Bool(1), args.Error(2)
}

func (m *SessionRepositoryMock) SessionByIdentity(ctx context.Context, chatID string) (models.ChatSession, error) {
	args := m.Called(ctx, chatID)
	var out models.ChatSession
	if val := args.Get(0); val != nil {
		out = val.(models.ChatSession)
	}
	return out, args.Error(1)
}

func (m *SessionRepositoryMock) SessionsForUser(ctx context.Context, username string) ([]models.ChatSession, error) {
	args := m.Called(ctx, username)
	var out []models.ChatSession
	if val := args.Get(0); val != nil {
		out = val.([]models.ChatSession)
	}
	return out, args.Error(1)
}

func (m *SessionRepositoryMock) IdentityByDisplayName(ctx context.Context, displayName string) (string, error) {
	args := m.Called(ctx, displayName)
	return args.String(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) AddMessage(ctx context.Context, chatID string, sender string, content string) (models.Message, error) {
	args := m.Called(ctx, chatID, sender, content)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) MessagesForChat(ctx context.Context, chatID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) FindByUsername(ctx context.Context, username string) (models.UserRef, error) {
	args := m.Called(ctx, username)
	var out models.UserRef
	if val := args.Get(0); val != nil {
		out = val.(models.UserRef)
	}
	return out, args.Error(1)
}
