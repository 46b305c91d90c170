package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/pagination"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CreateCustomerInput represents the create customer input
type CreateCustomerInput struct {
	Name    string
	Phone   string
	Email   *string
	Address *string
}

func (in *CreateCustomerInput) normalize() []apperror.FieldError {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = trimOptional(in.Email)
	in.Address = trimOptional(in.Address)

	var errs []apperror.FieldError
	if in.Name == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if in.Phone == "" {
		errs = append(errs, apperror.FieldError{Field: "phone", Message: "Phone is required"})
	}
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			errs = append(errs, apperror.FieldError{Field: "email", Message: "Email is not valid"})
		}
	}
	return errs
}

// CreateCustomer creates a new customer. Phone numbers are unique.
func (s *CustomerService) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*entity.Customer, error) {
	if errs := input.normalize(); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	existing, err := s.customerRepo.GetByPhone(ctx, input.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("A customer with this phone number already exists")
	}

	customer := &entity.Customer{
		Name:    input.Name,
		Phone:   input.Phone,
		Email:   input.Email,
		Address: input.Address,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// ListCustomers searches customers by name, email or phone. Cursor mode is used
// when the caller passes a cursor or a limit, page mode otherwise.
func (s *CustomerService) ListCustomers(ctx context.Context, params *pagination.ListParams, search string) (*pagination.ListResult[entity.Customer], error) {
	if params.IsCursorBased() {
		cursor, err := pagination.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, apperror.NewBadRequestError("Invalid cursor")
		}
		limit := params.CursorLimit()

		rows, err := s.customerRepo.ListWithCursor(ctx, cursor, limit, search)
		if err != nil {
			return nil, err
		}

		items, meta := pagination.TrimPage(rows, limit, func(c entity.Customer) pagination.Cursor {
			return pagination.Cursor{ID: c.ID.String(), CreatedAt: c.CreatedAt}
		})
		return &pagination.ListResult[entity.Customer]{Items: nonNil(items), Cursor: meta}, nil
	}

	page := params.PageParams()
	customers, total, err := s.customerRepo.List(ctx, page, search)
	if err != nil {
		return nil, err
	}

	return &pagination.ListResult[entity.Customer]{
		Items: nonNil(customers),
		Page:  pagination.NewPagination(page.Page, page.PerPage, total),
	}, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
