package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/composer"
)

// DraftRepository keeps one bill draft per composer session.
// Get returns (nil, nil) for unknown or expired sessions.
type DraftRepository interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*composer.Draft, error)
	Save(ctx context.Context, sessionID uuid.UUID, draft *composer.Draft) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
