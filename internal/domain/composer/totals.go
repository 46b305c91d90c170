package composer

import "github.com/shopspring/decimal"

// Totals is the pricing breakdown of a draft
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// ComputeTotals derives subtotal, tax and grand total from the current draft.
// It does not modify the draft; the grand total is not floored at zero.
func ComputeTotals(d *Draft) Totals {
	subtotal := decimal.Zero
	for _, item := range d.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return totalsOf(subtotal, d.taxPercent, d.discountAmount)
}

// Totals computes the same breakdown as ComputeTotals for the draft the payload came from
func (p *Payload) Totals() Totals {
	subtotal := decimal.Zero
	for _, item := range p.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return totalsOf(subtotal, p.TaxPercent, p.DiscountAmount)
}

func totalsOf(subtotal, taxPercent, discount decimal.Decimal) Totals {
	tax := subtotal.Mul(taxPercent).Shift(-2)
	return Totals{
		Subtotal:   subtotal,
		TaxAmount:  tax,
		GrandTotal: subtotal.Add(tax).Sub(discount),
	}
}
