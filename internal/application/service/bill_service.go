package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/composer"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/pagination"
	"github.com/sangkips/billdesk/pkg/utils"
	"github.com/shopspring/decimal"
)

// BillService persists finalized bill drafts and serves stored bills
type BillService struct {
	billRepo     repository.BillRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
}

func NewBillService(
	billRepo repository.BillRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
) *BillService {
	return &BillService{
		billRepo:     billRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
	}
}

// CreateBill stores a finalized payload. Totals are computed in decimal exactly as the
// draft computes them and only then rounded to cents; stock is decremented atomically
// with the insert.
func (s *BillService) CreateBill(ctx context.Context, payload *composer.Payload) (*entity.Bill, error) {
	if payload == nil || len(payload.Items) == 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "items", Message: "At least one item is required"},
		})
	}

	customerID, err := uuid.Parse(payload.CustomerRef)
	if err != nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	productIDs := make([]uuid.UUID, 0, len(payload.Items))
	for _, item := range payload.Items {
		id, err := uuid.Parse(item.ProductRef)
		if err != nil {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", item.ProductRef))
		}
		productIDs = append(productIDs, id)
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	paymentMethod := payload.PaymentMethod
	if !paymentMethod.IsValid() {
		paymentMethod = enum.PaymentMethodCash
	}

	// apply the draft's bounds again; payloads do not have to come from Finalize
	normalized := &composer.Payload{
		CustomerRef:    payload.CustomerRef,
		PaymentMethod:  paymentMethod,
		TaxPercent:     composer.ClampAmount(payload.TaxPercent),
		DiscountAmount: composer.ClampAmount(payload.DiscountAmount),
		Items:          make([]composer.PayloadItem, len(payload.Items)),
	}
	for i, item := range payload.Items {
		normalized.Items[i] = composer.PayloadItem{
			ProductRef: item.ProductRef,
			Quantity:   composer.ClampQuantity(item.Quantity),
			UnitPrice:  composer.ClampAmount(item.UnitPrice),
		}
	}
	totals := normalized.Totals()

	var rangeErr error
	cents := func(d decimal.Decimal) int64 {
		c, err := entity.ToCents(d)
		if err != nil {
			rangeErr = err
		}
		return c
	}

	bill := &entity.Bill{
		BillNumber:    utils.GenerateBillNumber(),
		CustomerID:    customer.ID,
		PaymentMethod: paymentMethod,
		TaxPercent:    normalized.TaxPercent,
		SubTotal:      cents(totals.Subtotal),
		TaxAmount:     cents(totals.TaxAmount),
		Discount:      cents(normalized.DiscountAmount),
		Total:         cents(totals.GrandTotal),
		Items:         make([]entity.BillItem, 0, len(normalized.Items)),
	}

	decrements := make(map[uuid.UUID]int, len(normalized.Items))
	for i, item := range normalized.Items {
		product, ok := byID[productIDs[i]]
		if !ok {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Product %s", item.ProductRef))
		}

		bill.Items = append(bill.Items, entity.BillItem{
			ProductID: product.ID,
			Position:  i,
			Quantity:  item.Quantity,
			UnitPrice: cents(item.UnitPrice),
			Total:     cents(item.LineTotal()),
			Product:   product,
		})
		bill.TotalProducts += item.Quantity
		decrements[product.ID] += item.Quantity
	}

	if rangeErr != nil {
		appErr := apperror.Wrap(rangeErr, http.StatusUnprocessableEntity, "Bill amounts are too large to store")
		appErr.Errors = []apperror.FieldError{{Field: "total", Message: "Bill total is too large"}}
		return nil, appErr
	}

	if err := s.billRepo.CreateWithStock(ctx, bill, decrements); err != nil {
		var stockErr *repository.InsufficientStockError
		if errors.As(err, &stockErr) {
			names := make([]string, 0, len(stockErr.ProductIDs))
			for _, id := range stockErr.ProductIDs {
				if p, ok := byID[id]; ok {
					names = append(names, p.Name)
				}
			}
			return nil, apperror.Wrap(err, http.StatusBadRequest, "Insufficient stock for "+strings.Join(names, ", "))
		}
		return nil, err
	}

	bill.Customer = customer
	log.Printf("Bill %s created for customer %s (%d items, total %s)",
		bill.BillNumber, customer.ID, len(bill.Items), entity.FromCents(bill.Total).StringFixed(2))

	return bill, nil
}

// GetBill retrieves a bill with its customer and items
func (s *BillService) GetBill(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// GetBillByNumber retrieves a bill by its printed number
func (s *BillService) GetBillByNumber(ctx context.Context, billNumber string) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByBillNumber(ctx, strings.ToUpper(strings.TrimSpace(billNumber)))
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// ListBillsInput represents bill list filters
type ListBillsInput struct {
	Pagination    *pagination.PaginationParams
	Search        string
	PaymentMethod string
	CustomerID    string
	StartDate     string
	EndDate       string
}

func (s *BillService) ListBills(ctx context.Context, input *ListBillsInput) (*pagination.PaginatedResult[entity.Bill], error) {
	if input.Pagination == nil {
		input.Pagination = &pagination.PaginationParams{}
	}
	input.Pagination.Validate()

	params := &repository.BillFilterParams{
		Pagination: input.Pagination,
		Search:     strings.TrimSpace(input.Search),
	}

	var errs []apperror.FieldError
	if input.PaymentMethod != "" {
		method, ok := enum.ParsePaymentMethod(input.PaymentMethod)
		if !ok {
			errs = append(errs, apperror.FieldError{Field: "payment_method", Message: "Unsupported payment method"})
		} else {
			params.PaymentMethod = &method
		}
	}
	if input.CustomerID != "" {
		id, err := utils.ParseUUID(input.CustomerID)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "customer_id", Message: "Invalid customer id"})
		} else {
			params.CustomerID = &id
		}
	}
	if input.StartDate != "" {
		start, err := time.Parse(time.DateOnly, input.StartDate)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "start_date", Message: "Use YYYY-MM-DD"})
		} else {
			params.StartDate = &start
		}
	}
	if input.EndDate != "" {
		end, err := time.Parse(time.DateOnly, input.EndDate)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "end_date", Message: "Use YYYY-MM-DD"})
		} else {
			// inclusive of the whole end day
			end = end.Add(24*time.Hour - time.Nanosecond)
			params.EndDate = &end
		}
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	bills, total, err := s.billRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(bills, pag), nil
}
