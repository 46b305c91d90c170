package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
)

// IdempotencyRepository stores replayable responses per composer session
type IdempotencyRepository interface {
	GetByKey(ctx context.Context, key string, sessionID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	DeleteExpired(ctx context.Context) (int64, error)
}
