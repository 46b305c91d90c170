package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
	"gorm.io/gorm"
)

type billRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

// CreateWithStock runs the stock decrements and the bill insert in a single transaction.
// Rows are updated in id order so concurrent submissions lock products consistently.
func (r *billRepository) CreateWithStock(ctx context.Context, bill *entity.Bill, decrements map[uuid.UUID]int) error {
	ids := make([]uuid.UUID, 0, len(decrements))
	for id := range decrements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var failedIDs []uuid.UUID
		for _, id := range ids {
			amount := decrements[id]
			result := tx.Model(&entity.Product{}).
				Where("id = ? AND stock >= ?", id, amount).
				Update("stock", gorm.Expr("stock - ?", amount))

			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				failedIDs = append(failedIDs, id)
			}
		}

		if len(failedIDs) > 0 {
			return &domainRepo.InsufficientStockError{ProductIDs: failedIDs}
		}

		return tx.Create(bill).Error
	})
}

func (r *billRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Preload("Customer", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("bill_items.position ASC") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) GetByBillNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).First(&bill, "bill_number = ?", billNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) List(ctx context.Context, params *domainRepo.BillFilterParams) ([]entity.Bill, int64, error) {
	var bills []entity.Bill
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Bill{}).
		Joins("LEFT JOIN customers ON customers.id = bills.customer_id").
		Scopes(
			Search(params.Search, "bills.bill_number", "customers.name"),
			CreatedBetween("bills.created_at", params.StartDate, params.EndDate),
		)

	if params.PaymentMethod != nil {
		query = query.Where("bills.payment_method = ?", *params.PaymentMethod)
	}
	if params.CustomerID != nil {
		query = query.Where("bills.customer_id = ?", *params.CustomerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Preload("Customer", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("bills.created_at DESC").
		Find(&bills).Error

	return bills, total, err
}

func (r *billRepository) Summary(ctx context.Context) (*domainRepo.BillSummary, error) {
	var summary domainRepo.BillSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(total), 0) AS total_sales,
			COUNT(*) AS total_bills
		FROM bills
	`).Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *billRepository) Recent(ctx context.Context, limit int) ([]entity.Bill, error) {
	var bills []entity.Bill
	err := r.db.WithContext(ctx).
		Preload("Customer", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC").
		Limit(limit).
		Find(&bills).Error
	return bills, err
}

func (r *billRepository) TopProducts(ctx context.Context, limit int) ([]domainRepo.TopProduct, error) {
	var results []domainRepo.TopProduct

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			p.id AS product_id,
			p.name AS product_name,
			COALESCE(SUM(bi.quantity), 0) AS quantity_sold,
			COALESCE(SUM(bi.total), 0) AS revenue
		FROM bill_items bi
		JOIN products p ON p.id = bi.product_id
		GROUP BY p.id, p.name
		ORDER BY revenue DESC
		LIMIT ?
	`, limit).Scan(&results).Error

	if err != nil {
		return nil, err
	}
	return results, nil
}
