package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/composer"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ProductService handles product-related operations
type ProductService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name        string
	Price       decimal.Decimal
	Stock       int
	Category    *string
	Description *string
}

func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	input.Name = strings.TrimSpace(input.Name)

	var errs []apperror.FieldError
	if input.Name == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if input.Price.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: "price", Message: "Price must not be negative"})
	} else if input.Price.GreaterThan(composer.MaxAmount) {
		errs = append(errs, apperror.FieldError{Field: "price", Message: "Price is too large"})
	}
	if input.Stock < 0 {
		errs = append(errs, apperror.FieldError{Field: "stock", Message: "Stock must not be negative"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	price, err := entity.ToCents(input.Price)
	if err != nil {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "price", Message: "Price is too large"}})
	}

	product := &entity.Product{
		Name:        input.Name,
		Price:       price,
		Stock:       input.Stock,
		Category:    trimOptional(input.Category),
		Description: trimOptional(input.Description),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProductsInput represents product list filters
type ListProductsInput struct {
	Pagination *pagination.PaginationParams
	Search     string
	Category   string
	InStock    bool
}

func (s *ProductService) ListProducts(ctx context.Context, input *ListProductsInput) (*pagination.PaginatedResult[entity.Product], error) {
	if input.Pagination == nil {
		input.Pagination = &pagination.PaginationParams{}
	}
	input.Pagination.Validate()

	products, total, err := s.productRepo.List(ctx, &repository.ProductFilterParams{
		Pagination: input.Pagination,
		Search:     input.Search,
		Category:   strings.TrimSpace(input.Category),
		InStock:    input.InStock,
	})
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}

// ListCategories returns the distinct category names used by products
func (s *ProductService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return nonNil(categories), nil
}

// Lookup returns the {id, name, price} view the bill composer adds to a draft
func (s *ProductService) Lookup(ctx context.Context, productID string) (composer.Product, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return composer.Product{}, apperror.NewValidationError([]apperror.FieldError{
			{Field: "product_id", Message: fmt.Sprintf("%q is not a valid product id", productID)},
		})
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return composer.Product{}, err
	}

	return composer.Product{
		ID:    product.ID.String(),
		Name:  product.Name,
		Price: product.PriceDecimal(),
	}, nil
}
