package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const (
	dashboardRecentBills = 5
	dashboardTopProducts = 5
)

// DashboardService provides dashboard statistics
type DashboardService struct {
	billRepo     repository.BillRepository
	customerRepo repository.CustomerRepository
}

func NewDashboardService(billRepo repository.BillRepository, customerRepo repository.CustomerRepository) *DashboardService {
	return &DashboardService{
		billRepo:     billRepo,
		customerRepo: customerRepo,
	}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	TotalSales     decimal.Decimal   `json:"total_sales"`
	TotalBills     int64             `json:"total_bills"`
	TotalCustomers int64             `json:"total_customers"`
	RecentBills    []entity.Bill     `json:"recent_bills"`
	TopProducts    []TopProductPoint `json:"top_products"`
}

// TopProductPoint is a best seller by quantity
type TopProductPoint struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// GetDashboardStats returns dashboard statistics
func (s *DashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	summary, err := s.billRepo.Summary(ctx)
	if err != nil {
		return nil, err
	}

	customers, err := s.customerRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.billRepo.Recent(ctx, dashboardRecentBills)
	if err != nil {
		return nil, err
	}

	top, err := s.billRepo.TopProducts(ctx, dashboardTopProducts)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalSales:     entity.FromCents(summary.TotalSales),
		TotalBills:     summary.TotalBills,
		TotalCustomers: customers,
		RecentBills:    nonNil(recent),
		TopProducts:    make([]TopProductPoint, 0, len(top)),
	}
	for _, t := range top {
		stats.TopProducts = append(stats.TopProducts, TopProductPoint{
			ProductID:    t.ProductID,
			ProductName:  t.ProductName,
			QuantitySold: t.QuantitySold,
			Revenue:      entity.FromCents(t.Revenue),
		})
	}

	return stats, nil
}
