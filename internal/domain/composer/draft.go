// Package composer holds the in-memory bill draft: line items keyed by product,
// the tax/discount fields, totals computation and finalization into a submission payload.
package composer

import (
	"encoding/json"

	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Product is the catalog view the composer needs to add a line item.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// LineItem is one product entry on the draft
type LineItem struct {
	ProductRef string          `json:"product_ref"`
	Name       string          `json:"name,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// LineTotal returns unit price times quantity
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Draft is the in-progress bill. Items keep insertion order and are unique by product ref.
// A Draft has a single writer; callers that share one across goroutines must serialize access.
type Draft struct {
	customerRef    string
	paymentMethod  enum.PaymentMethod
	taxPercent     decimal.Decimal
	discountAmount decimal.Decimal
	items          []LineItem
	index          map[string]int
}

// NewDraft returns an empty draft paid in cash
func NewDraft() *Draft {
	return &Draft{
		paymentMethod: enum.PaymentMethodCash,
		index:         make(map[string]int),
	}
}

// AddOrIncrementItem bumps the quantity of an existing line by one, leaving its price alone,
// or appends a new line with quantity 1 at the product's current price.
// Quantities stop growing at MaxQuantity.
func (d *Draft) AddOrIncrementItem(p Product) {
	if p.ID == "" {
		return
	}
	if i, ok := d.index[p.ID]; ok {
		d.items[i].Quantity = ClampQuantity(d.items[i].Quantity + 1)
		return
	}
	d.index[p.ID] = len(d.items)
	d.items = append(d.items, LineItem{
		ProductRef: p.ID,
		Name:       p.Name,
		UnitPrice:  ClampAmount(p.Price),
		Quantity:   1,
	})
}

// SetQuantity applies raw quantity input to the matching line. Unknown refs are ignored.
func (d *Draft) SetQuantity(productRef, value string) {
	if i, ok := d.index[productRef]; ok {
		d.items[i].Quantity = ParseQuantity(value)
	}
}

// SetUnitPrice applies raw price input to the matching line. Unknown refs are ignored.
func (d *Draft) SetUnitPrice(productRef, value string) {
	if i, ok := d.index[productRef]; ok {
		d.items[i].UnitPrice = ParseAmount(value)
	}
}

// RemoveItem deletes the matching line; absent refs are a no-op.
func (d *Draft) RemoveItem(productRef string) {
	i, ok := d.index[productRef]
	if !ok {
		return
	}
	d.items = append(d.items[:i], d.items[i+1:]...)
	delete(d.index, productRef)
	for j := i; j < len(d.items); j++ {
		d.index[d.items[j].ProductRef] = j
	}
}

// SetCustomer selects the customer; an empty ref clears the selection.
func (d *Draft) SetCustomer(customerRef string) {
	d.customerRef = customerRef
}

// SetPaymentMethod changes the payment method. Unsupported values leave the draft unchanged
// and return false.
func (d *Draft) SetPaymentMethod(m enum.PaymentMethod) bool {
	if !m.IsValid() {
		return false
	}
	d.paymentMethod = m
	return true
}

// SetTaxPercent applies raw tax percentage input (0 to MaxAmount, invalid input is 0).
func (d *Draft) SetTaxPercent(value string) {
	d.taxPercent = ParseAmount(value)
}

// SetDiscount applies raw discount input (0 to MaxAmount, invalid input is 0).
func (d *Draft) SetDiscount(value string) {
	d.discountAmount = ParseAmount(value)
}

// CustomerRef returns the selected customer, or "" when none is selected
func (d *Draft) CustomerRef() string { return d.customerRef }

// PaymentMethod returns the payment method, cash unless changed
func (d *Draft) PaymentMethod() enum.PaymentMethod { return d.paymentMethod }

// TaxPercent returns the tax percentage applied to the subtotal
func (d *Draft) TaxPercent() decimal.Decimal { return d.taxPercent }

// DiscountAmount returns the flat discount taken off the grand total
func (d *Draft) DiscountAmount() decimal.Decimal { return d.discountAmount }

// Len returns the number of line items
func (d *Draft) Len() int { return len(d.items) }

// Items returns a copy of the line items in insertion order
func (d *Draft) Items() []LineItem {
	out := make([]LineItem, len(d.items))
	copy(out, d.items)
	return out
}

// Item looks up a line by product ref
func (d *Draft) Item(productRef string) (LineItem, bool) {
	i, ok := d.index[productRef]
	if !ok {
		return LineItem{}, false
	}
	return d.items[i], true
}

// IsEmpty reports whether the draft has neither items nor a customer
func (d *Draft) IsEmpty() bool {
	return len(d.items) == 0 && d.customerRef == ""
}

type draftJSON struct {
	CustomerRef    string             `json:"customer_ref,omitempty"`
	PaymentMethod  enum.PaymentMethod `json:"payment_method"`
	TaxPercent     decimal.Decimal    `json:"tax_percent"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	Items          []LineItem         `json:"items"`
}

// MarshalJSON encodes the draft as a snapshot that UnmarshalJSON can restore
func (d *Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(draftJSON{
		CustomerRef:    d.customerRef,
		PaymentMethod:  d.paymentMethod,
		TaxPercent:     d.taxPercent,
		DiscountAmount: d.discountAmount,
		Items:          d.Items(),
	})
}

// UnmarshalJSON restores a stored draft, re-applying the field invariants.
// Duplicate refs in the input are merged by summing their quantities.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var raw draftJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	restored := NewDraft()
	restored.customerRef = raw.CustomerRef
	if raw.PaymentMethod.IsValid() {
		restored.paymentMethod = raw.PaymentMethod
	}
	restored.taxPercent = ClampAmount(raw.TaxPercent)
	restored.discountAmount = ClampAmount(raw.DiscountAmount)

	for _, item := range raw.Items {
		if item.ProductRef == "" {
			continue
		}
		if i, ok := restored.index[item.ProductRef]; ok {
			restored.items[i].Quantity = ClampQuantity(restored.items[i].Quantity + ClampQuantity(item.Quantity))
			continue
		}
		restored.index[item.ProductRef] = len(restored.items)
		restored.items = append(restored.items, LineItem{
			ProductRef: item.ProductRef,
			Name:       item.Name,
			UnitPrice:  ClampAmount(item.UnitPrice),
			Quantity:   ClampQuantity(item.Quantity),
		})
	}

	*d = *restored
	return nil
}
