package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	repo := new(mockProductRepo)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Product")).Return(nil)
	svc := NewProductService(repo)

	product, err := svc.CreateProduct(context.Background(), &CreateProductInput{
		Name:  "Notebook",
		Price: decimal.RequireFromString("19.995"),
		Stock: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), product.Price)
	assert.Nil(t, product.Category)

	_, err = svc.CreateProduct(context.Background(), &CreateProductInput{Price: decimal.NewFromInt(-1), Stock: -2})
	require.Error(t, err)
	assert.Len(t, apperror.GetAppError(err).Errors, 3)

	_, err = svc.CreateProduct(context.Background(), &CreateProductInput{Name: "Gold", Price: decimal.RequireFromString("1e20")})
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
	require.Len(t, appErr.Errors, 1)
	assert.Equal(t, "price", appErr.Errors[0].Field)
}

func TestListProducts_Filters(t *testing.T) {
	repo := new(mockProductRepo)
	repo.On("List", mock.Anything, mock.MatchedBy(func(p *repository.ProductFilterParams) bool {
		return p.Category == "Stationery" && p.InStock && p.Pagination.PerPage == 15
	})).Return([]entity.Product(nil), int64(0), nil)

	result, err := NewProductService(repo).ListProducts(context.Background(), &ListProductsInput{
		Category: " Stationery ",
		InStock:  true,
	})
	require.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	repo.AssertExpectations(t)
}

func TestLookup(t *testing.T) {
	repo := new(mockProductRepo)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(&entity.Product{ID: id, Name: "Pen", Price: 1250}, nil)
	missing := uuid.New()
	repo.On("GetByID", mock.Anything, missing).Return(nil, nil)
	svc := NewProductService(repo)

	p, err := svc.Lookup(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, id.String(), p.ID)
	assert.Equal(t, "Pen", p.Name)
	assert.True(t, decimal.RequireFromString("12.5").Equal(p.Price))

	_, err = svc.Lookup(context.Background(), missing.String())
	assert.Equal(t, http.StatusNotFound, apperror.GetAppError(err).Code)

	_, err = svc.Lookup(context.Background(), "p1")
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.GetAppError(err).Code)
}
