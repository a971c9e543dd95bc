package repository

import (
	"context"
	"time"

	"outletchat/internal/domain/entity"
)

// MessageQuery selects a page of a chat's messages in ascending time order.
// Zero From/To leave that end of the range open.
type MessageQuery struct {
	Limit  int
	Offset int
	From   time.Time
	To     time.Time
}

type ChatRepository interface {
	// Create stores a new chat. If chat.ID is set and already taken the
	// existing chat is returned with created=false.
	Create(ctx context.Context, chat *entity.Chat) (existing *entity.Chat, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error)
	AddParticipants(ctx context.Context, chatID string, userIDs []string) error
	UpdateLastMessage(ctx context.Context, chatID string, preview string, at time.Time) error
	// AdvanceReadMark moves userID's read-mark to at unless it already is at
	// or beyond it, and returns the stored value.
	AdvanceReadMark(ctx context.Context, chatID, userID string, at time.Time) (time.Time, error)

	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessageByID(ctx context.Context, chatID, messageID string) (*entity.Message, error)
	GetMessageByClientID(ctx context.Context, chatID, senderID, clientID string) (*entity.Message, error)
	ListMessages(ctx context.Context, chatID string, query MessageQuery) ([]*entity.Message, int64, error)
}
