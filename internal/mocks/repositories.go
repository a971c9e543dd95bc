package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"outletchat/internal/domain/entity"
	"outletchat/internal/domain/repository"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) Create(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	args := m.Called(ctx, chat)
	var existing *entity.Chat
	if val := args.Get(0); val != nil {
		existing = val.(*entity.Chat)
	}
	return existing, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	args := m.Called(ctx, id)
	var chat *entity.Chat
	if val := args.Get(0); val != nil {
		chat = val.(*entity.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	var chats []*entity.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]*entity.Chat)
	}
	return chats, args.Get(1).(int64), args.Error(2)
}

func (m *ChatRepositoryMock) AddParticipants(ctx context.Context, chatID string, userIDs []string) error {
	args := m.Called(ctx, chatID, userIDs)
	return args.Error(0)
}

func (m *ChatRepositoryMock) UpdateLastMessage(ctx context.Context, chatID string, preview string, at time.Time) error {
	args := m.Called(ctx, chatID, preview, at)
	return args.Error(0)
}

func (m *ChatRepositoryMock) AdvanceReadMark(ctx context.Context, chatID, userID string, at time.Time) (time.Time, error) {
	args := m.Called(ctx, chatID, userID, at)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *ChatRepositoryMock) CreateMessage(ctx context.Context, message *entity.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *ChatRepositoryMock) GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error) {
	args := m.Called(ctx, chatID, messageID)
	var msg *entity.Message
	if val := args.Get(0); val != nil {
		msg = val.(*entity.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatRepositoryMock) GetMessageByClientID(ctx context.Context, chatID, senderID, clientID string) (*entity.Message, error) {
	args := m.Called(ctx, chatID, senderID, clientID)
	var msg *entity.Message
	if val := args.Get(0); val != nil {
		msg = val.(*entity.Message)
	}
	return msg, args.Error(1)
}

func (m *ChatRepositoryMock) ListMessages(ctx context.Context, chatID string, query repository.MessageQuery) ([]*entity.Message, int64, error) {
	args := m.Called(ctx, chatID, query)
	var msgs []*entity.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]*entity.Message)
	}
	return msgs, args.Get(1).(int64), args.Error(2)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	var user *entity.User
	if val := args.Get(0); val != nil {
		user = val.(*entity.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	args := m.Called(ctx, ids)
	var users []*entity.User
	if val := args.Get(0); val != nil {
		users = val.([]*entity.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) ListByOutlet(ctx context.Context, outletID string) ([]*entity.User, error) {
	args := m.Called(ctx, outletID)
	var users []*entity.User
	if val := args.Get(0); val != nil {
		users = val.([]*entity.User)
	}
	return users, args.Error(1)
}

type FileMetadataRepositoryMock struct {
	mock.Mock
}

func (m *FileMetadataRepositoryMock) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	args := m.Called(ctx, metadata)
	return args.Error(0)
}

func (m *FileMetadataRepositoryMock) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	args := m.Called(ctx, id)
	var meta *entity.FileMetadata
	if val := args.Get(0); val != nil {
		meta = val.(*entity.FileMetadata)
	}
	return meta, args.Error(1)
}

type PushTokenRepositoryMock struct {
	mock.Mock
}

func (m *PushTokenRepositoryMock) Save(ctx context.Context, token *entity.PushToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *PushTokenRepositoryMock) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *PushTokenRepositoryMock) ListByUserID(ctx context.Context, userID string) ([]*entity.PushToken, error) {
	args := m.Called(ctx, userID)
	var tokens []*entity.PushToken
	if val := args.Get(0); val != nil {
		tokens = val.([]*entity.PushToken)
	}
	return tokens, args.Error(1)
}
