package repository

import (
	"context"

	"outletchat/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.User, error)
	ListByOutlet(ctx context.Context, outletID string) ([]*entity.User, error)
}
