package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/pkg/pagination"
)

// CustomerRepository defines the interface for customer data operations.
// Lookups return (nil, nil) when the record does not exist.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*entity.Customer, error)
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error)
	// ListWithCursor fetches up to limit+1 rows after cursor, newest first
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int, search string) ([]entity.Customer, error)
	Count(ctx context.Context) (int64, error)
}
