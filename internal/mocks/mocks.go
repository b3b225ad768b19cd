package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-backend/internal/models"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
)

type ThreadRepositoryMock struct {
	mock.Mock
}

func (m *ThreadRepositoryMock) ResolveOrCreate(ctx context.Context, userID int, otherID int) (models.Thread, bool, error) {
	args := m.Called(ctx, userID, otherID)
	var thread models.Thread
	if val := args.Get(0); val != nil {
		thread = val.(models.Thread)
	}
	return thread, args.Bool(1), args.Error(2)
}

func (m *ThreadRepositoryMock) GetThread(ctx context.Context, threadID int) (models.Thread, error) {
	args := m.Called(ctx, threadID)
	var thread models.Thread
	if val := args.Get(0); val != nil {
		thread = val.(models.Thread)
	}
	return thread, args.Error(1)
}

func (m *ThreadRepositoryMock) ListForUser(ctx context.Context, userID int, limit int, offset int) ([]models.Thread, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	var threads []models.Thread
	if val := args.Get(0); val != nil {
		threads = val.([]models.Thread)
	}
	return threads, args.Int(1), args.Error(2)
}

func (m *ThreadRepositoryMock) DeleteForUser(ctx context.Context, threadID int, userID int) error {
	args := m.Called(ctx, threadID, userID)
	return args.Error(0)
}

func (m *ThreadRepositoryMock) IsParticipant(ctx context.Context, threadID int, userID int) (bool, error) {
	args := m.Called(ctx, threadID, userID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, threadID int, senderID int, text string) (models.Message, error) {
	args := m.Called(ctx, threadID, senderID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListForThread(ctx context.Context, threadID int, limit int, offset int) ([]models.Message, int, error) {
	args := m.Called(ctx, threadID, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Int(1), args.Error(2)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SetReadStatus(ctx context.Context, messageID int, isRead bool) (models.Message, error) {
	args := m.Called(ctx, messageID, isRead)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, username string, password string) (models.User, error) {
	args := m.Called(ctx, username, password)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Authenticate(ctx context.Context, username string, password string) (models.User, error) {
	args := m.Called(ctx, username, password)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type TokenRepositoryMock struct {
	mock.Mock
}

func (m *TokenRepositoryMock) GetOrCreate(ctx context.Context, userID int) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *TokenRepositoryMock) UserIDForToken(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repositories.ThreadRepository = (*ThreadRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.TokenRepository = (*TokenRepositoryMock)(nil)
var _ telemetry.Publisher = (*PublisherMock)(nil)
