package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/pkg/pagination"
	"github.com/stretchr/testify/mock"
)

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	args := m.Called(ctx, customer)
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Customer), args.Error(1)
}

func (m *mockCustomerRepo) GetByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Customer), args.Error(1)
}

func (m *mockCustomerRepo) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	args := m.Called(ctx, params, search)
	return args.Get(0).([]entity.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *mockCustomerRepo) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int, search string) ([]entity.Customer, error) {
	args := m.Called(ctx, cursor, limit, search)
	return args.Get(0).([]entity.Customer), args.Error(1)
}

func (m *mockCustomerRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) Create(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *mockProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *mockProductRepo) List(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]entity.Product), args.Get(1).(int64), args.Error(2)
}

func (m *mockProductRepo) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type mockBillRepo struct {
	mock.Mock
}

func (m *mockBillRepo) CreateWithStock(ctx context.Context, bill *entity.Bill, decrements map[uuid.UUID]int) error {
	args := m.Called(ctx, bill, decrements)
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockBillRepo) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Bill), args.Error(1)
}

func (m *mockBillRepo) GetByBillNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	args := m.Called(ctx, billNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Bill), args.Error(1)
}

func (m *mockBillRepo) List(ctx context.Context, params *repository.BillFilterParams) ([]entity.Bill, int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]entity.Bill), args.Get(1).(int64), args.Error(2)
}

func (m *mockBillRepo) Summary(ctx context.Context) (*repository.BillSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(*repository.BillSummary), args.Error(1)
}

func (m *mockBillRepo) Recent(ctx context.Context, limit int) ([]entity.Bill, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]entity.Bill), args.Error(1)
}

func (m *mockBillRepo) TopProducts(ctx context.Context, limit int) ([]repository.TopProduct, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]repository.TopProduct), args.Error(1)
}
