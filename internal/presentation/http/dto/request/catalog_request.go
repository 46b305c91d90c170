package request

import "github.com/shopspring/decimal"

// CreateCustomerRequest represents a customer creation request
type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required,max=255"`
	Phone   string  `json:"phone" binding:"required,max=50"`
	Email   *string `json:"email" binding:"omitempty,max=255"`
	Address *string `json:"address"`
}

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"min=0"`
	Category    *string         `json:"category" binding:"omitempty,max=100"`
	Description *string         `json:"description"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	InStock  bool   `form:"in_stock"`
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
}

// BillFilterRequest represents bill filter parameters
type BillFilterRequest struct {
	Search        string `form:"search"`
	PaymentMethod string `form:"payment_method"`
	CustomerID    string `form:"customer_id"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
	Page          int    `form:"page"`
	PerPage       int    `form:"per_page"`
}
