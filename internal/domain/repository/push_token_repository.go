package repository

import (
	"context"

	"outletchat/internal/domain/entity"
)

type PushTokenRepository interface {
	Save(ctx context.Context, token *entity.PushToken) error
	Delete(ctx context.Context, token string) error
	ListByUserID(ctx context.Context, userID string) ([]*entity.PushToken, error)
}
