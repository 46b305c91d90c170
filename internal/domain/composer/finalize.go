package composer

import (
	"errors"

	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Reasons carried by a ValidationError
const (
	ReasonMissingCustomer = "missing-customer"
	ReasonNoItems         = "no-items"
)

// Sentinels wrapped by ValidationError, for use with errors.Is
var (
	ErrMissingCustomer = errors.New(ReasonMissingCustomer)
	ErrNoItems         = errors.New(ReasonNoItems)
)

// ValidationError is the only failure Finalize produces
type ValidationError struct {
	Reason string
	err    error
}

func newValidationError(err error) *ValidationError {
	return &ValidationError{Reason: err.Error(), err: err}
}

func (e *ValidationError) Error() string {
	return "bill draft is not ready: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// PayloadItem is one submitted line
type PayloadItem struct {
	ProductRef string          `json:"product_ref"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// LineTotal returns unit price times quantity
func (pi PayloadItem) LineTotal() decimal.Decimal {
	return pi.UnitPrice.Mul(decimal.NewFromInt(int64(pi.Quantity)))
}

// Payload is the finalized bill handed to the order collaborator.
// It shares no memory with the draft it was built from.
type Payload struct {
	CustomerRef    string             `json:"customer_ref"`
	Items          []PayloadItem      `json:"items"`
	PaymentMethod  enum.PaymentMethod `json:"payment_method"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxPercent     decimal.Decimal    `json:"tax_percent"`
}

// Finalize validates the draft and packages it for submission.
// A missing customer is reported before an empty item list.
func (d *Draft) Finalize() (*Payload, error) {
	if d.customerRef == "" {
		return nil, newValidationError(ErrMissingCustomer)
	}
	if len(d.items) == 0 {
		return nil, newValidationError(ErrNoItems)
	}

	items := make([]PayloadItem, len(d.items))
	for i, item := range d.items {
		items[i] = PayloadItem{
			ProductRef: item.ProductRef,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
	}

	return &Payload{
		CustomerRef:    d.customerRef,
		Items:          items,
		PaymentMethod:  d.paymentMethod,
		DiscountAmount: d.discountAmount,
		TaxPercent:     d.taxPercent,
	}, nil
}
