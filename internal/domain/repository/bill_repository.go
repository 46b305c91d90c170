package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/pkg/pagination"
)

// BillRepository defines the interface for bill data operations
type BillRepository interface {
	// CreateWithStock decrements stock for every entry of decrements and inserts the bill
	// with its items in one transaction. Shortages roll everything back and are reported
	// as *InsufficientStockError.
	CreateWithStock(ctx context.Context, bill *entity.Bill, decrements map[uuid.UUID]int) error
	// GetWithItems loads the bill, its customer and its items with their products
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetByBillNumber(ctx context.Context, billNumber string) (*entity.Bill, error)
	List(ctx context.Context, params *BillFilterParams) ([]entity.Bill, int64, error)
	Summary(ctx context.Context) (*BillSummary, error)
	Recent(ctx context.Context, limit int) ([]entity.Bill, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
}

// BillFilterParams contains filtering parameters for bill queries
type BillFilterParams struct {
	Pagination    *pagination.PaginationParams
	Search        string // bill number or customer name
	PaymentMethod *enum.PaymentMethod
	CustomerID    *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
}

// BillSummary aggregates all bills
type BillSummary struct {
	TotalSales int64 // cents
	TotalBills int64
}

// TopProduct is a best seller row for the dashboard
type TopProduct struct {
	ProductID    uuid.UUID
	ProductName  string
	QuantitySold int64
	Revenue      int64 // cents
}

// InsufficientStockError lists the products that could not cover the requested quantity
type InsufficientStockError struct {
	ProductIDs []uuid.UUID
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.ProductIDs))
}
