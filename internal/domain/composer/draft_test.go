package composer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDraft_AddOrIncrementItem(t *testing.T) {
	d := NewDraft()
	p1 := Product{ID: "p1", Name: "Pen", Price: dec("10")}
	p2 := Product{ID: "p2", Name: "Pad", Price: dec("4.50")}

	d.AddOrIncrementItem(p1)
	d.AddOrIncrementItem(p2)
	d.AddOrIncrementItem(p1)
	d.AddOrIncrementItem(p1)

	items := d.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductRef)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "p2", items[1].ProductRef)
	assert.Equal(t, 1, items[1].Quantity)
	assert.True(t, dec("4.50").Equal(items[1].UnitPrice))
}

func TestDraft_AddExistingKeepsEditedPrice(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{ID: "p1", Price: dec("10")})
	d.SetUnitPrice("p1", "8")
	d.AddOrIncrementItem(Product{ID: "p1", Price: dec("10")})

	item, ok := d.Item("p1")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, dec("8").Equal(item.UnitPrice))
}

func TestDraft_AddIgnoresEmptyID(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{Price: dec("1")})
	assert.Equal(t, 0, d.Len())
}

func TestDraft_SetQuantity(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"5", 5},
		{"0", 1},
		{"-3", 1},
		{"abc", 1},
		{"", 1},
		{"3abc", 3},
		{"2.7", 2},
		{" 4 ", 4},
		{"2000000", MaxQuantity},
		{"99999999999999999999999", MaxQuantity},
		{"-99999999999999999999999", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := NewDraft()
			d.AddOrIncrementItem(Product{ID: "p1", Price: dec("1")})
			d.AddOrIncrementItem(Product{ID: "p2", Price: dec("1")})

			d.SetQuantity("p1", tt.input)

			p1, _ := d.Item("p1")
			p2, _ := d.Item("p2")
			assert.Equal(t, tt.want, p1.Quantity)
			assert.Equal(t, 1, p2.Quantity)
		})
	}
}

func TestDraft_SetQuantityUnknownRef(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{ID: "p1", Price: dec("1")})
	d.SetQuantity("nope", "9")

	assert.Equal(t, 1, d.Len())
	item, _ := d.Item("p1")
	assert.Equal(t, 1, item.Quantity)
}

func TestDraft_SetUnitPrice(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"12.5", "12.5"},
		{"12.5x", "12.5"},
		{"-4", "0"},
		{"abc", "0"},
		{"", "0"},
		{"7.", "7"},
		{".25", "0.25"},
		{"1e3", "1000"},
		{"2.5E-1", "0.25"},
		{"1e12", "1000000000000"},
		{"5e12", "1000000000000"},
		{"1e19", "0"},
		{"1e-19", "0"},
		{"1e100000000", "0"},
		{"1234567890123456789012345678901", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := NewDraft()
			d.AddOrIncrementItem(Product{ID: "p1", Price: dec("3")})
			d.SetUnitPrice("p1", tt.input)

			item, _ := d.Item("p1")
			assert.True(t, dec(tt.want).Equal(item.UnitPrice), "got %s", item.UnitPrice)
		})
	}
}

func TestDraft_RemoveItem(t *testing.T) {
	d := NewDraft()
	for _, id := range []string{"a", "b", "c"} {
		d.AddOrIncrementItem(Product{ID: id, Price: dec("1")})
	}

	d.RemoveItem("b")
	d.RemoveItem("missing")

	items := d.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ProductRef)
	assert.Equal(t, "c", items[1].ProductRef)

	d.SetQuantity("c", "4")
	c, _ := d.Item("c")
	assert.Equal(t, 4, c.Quantity)

	d.AddOrIncrementItem(Product{ID: "b", Price: dec("1")})
	assert.Equal(t, "b", d.Items()[2].ProductRef)
}

func TestDraft_ItemsReturnsCopy(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{ID: "p1", Price: dec("1")})

	items := d.Items()
	items[0].Quantity = 99

	item, _ := d.Item("p1")
	assert.Equal(t, 1, item.Quantity)
}

func TestDraft_FieldSetters(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, enum.PaymentMethodCash, d.PaymentMethod())

	assert.True(t, d.SetPaymentMethod(enum.PaymentMethodUPI))
	assert.False(t, d.SetPaymentMethod(enum.PaymentMethod("cheque")))
	assert.Equal(t, enum.PaymentMethodUPI, d.PaymentMethod())

	d.SetTaxPercent("18")
	d.SetDiscount("-5")
	assert.True(t, dec("18").Equal(d.TaxPercent()))
	assert.True(t, d.DiscountAmount().IsZero())

	d.SetCustomer("c1")
	assert.Equal(t, "c1", d.CustomerRef())
	assert.False(t, d.IsEmpty())
	d.SetCustomer("")
	assert.True(t, d.IsEmpty())
}

func TestComputeTotals(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{ID: "a", Price: dec("100")})
	d.AddOrIncrementItem(Product{ID: "a", Price: dec("100")})
	d.AddOrIncrementItem(Product{ID: "b", Price: dec("50")})
	d.SetTaxPercent("10")
	d.SetDiscount("20")

	first := ComputeTotals(d)
	second := ComputeTotals(d)

	assert.True(t, dec("250").Equal(first.Subtotal))
	assert.True(t, dec("25").Equal(first.TaxAmount))
	assert.True(t, dec("255").Equal(first.GrandTotal))
	assert.Equal(t, first, second)
}

func TestComputeTotals_DiscountCanExceedTotal(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{ID: "a", Price: dec("10")})
	d.SetDiscount("15")

	totals := ComputeTotals(d)
	assert.True(t, dec("-5").Equal(totals.GrandTotal))
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(NewDraft())
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.TaxAmount.IsZero())
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestFinalize_MissingCustomerFirst(t *testing.T) {
	d := NewDraft()
	_, err := d.Finalize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCustomer))

	d.AddOrIncrementItem(Product{ID: "a", Price: dec("1")})
	_, err = d.Finalize()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ReasonMissingCustomer, verr.Reason)
}

func TestFinalize_NoItems(t *testing.T) {
	d := NewDraft()
	d.SetCustomer("c1")

	_, err := d.Finalize()
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestFinalize_Payload(t *testing.T) {
	d := NewDraft()
	d.SetCustomer("c1")
	d.AddOrIncrementItem(Product{ID: "a", Price: dec("100")})
	d.AddOrIncrementItem(Product{ID: "b", Price: dec("50")})
	d.SetQuantity("a", "2")
	d.SetPaymentMethod(enum.PaymentMethodCard)
	d.SetTaxPercent("10")
	d.SetDiscount("20")

	payload, err := d.Finalize()
	require.NoError(t, err)

	assert.Equal(t, "c1", payload.CustomerRef)
	assert.Equal(t, enum.PaymentMethodCard, payload.PaymentMethod)
	assert.True(t, dec("10").Equal(payload.TaxPercent))
	assert.True(t, dec("20").Equal(payload.DiscountAmount))
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "a", payload.Items[0].ProductRef)
	assert.Equal(t, 2, payload.Items[0].Quantity)
	assert.True(t, dec("100").Equal(payload.Items[0].UnitPrice))
	assert.Equal(t, "b", payload.Items[1].ProductRef)

	// later edits do not leak into the payload
	d.SetQuantity("a", "7")
	assert.Equal(t, 2, payload.Items[0].Quantity)
}

func TestFinalizeAndReset(t *testing.T) {
	d := NewDraft()
	d.SetCustomer("c1")
	d.AddOrIncrementItem(Product{ID: "a", Price: dec("1")})
	_, err := d.Finalize()
	require.NoError(t, err)

	d = NewDraft()
	assert.Equal(t, 0, d.Len())
	assert.Empty(t, d.CustomerRef())
	assert.True(t, d.IsEmpty())
}

func TestDraft_JSONRoundTrip(t *testing.T) {
	d := NewDraft()
	d.SetCustomer("c1")
	d.AddOrIncrementItem(Product{ID: "a", Name: "Apple", Price: dec("1.25")})
	d.AddOrIncrementItem(Product{ID: "b", Name: "Bread", Price: dec("3")})
	d.SetQuantity("b", "4")
	d.SetPaymentMethod(enum.PaymentMethodUPI)
	d.SetTaxPercent("5")

	data, err := json.Marshal(d)
	require.NoError(t, err)

	restored := NewDraft()
	require.NoError(t, json.Unmarshal(data, restored))

	require.Equal(t, d.Len(), restored.Len())
	for i, item := range d.Items() {
		got := restored.Items()[i]
		assert.Equal(t, item.ProductRef, got.ProductRef)
		assert.Equal(t, item.Name, got.Name)
		assert.Equal(t, item.Quantity, got.Quantity)
		assert.True(t, item.UnitPrice.Equal(got.UnitPrice))
	}
	assert.Equal(t, "c1", restored.CustomerRef())
	assert.Equal(t, enum.PaymentMethodUPI, restored.PaymentMethod())

	want, got := ComputeTotals(d), ComputeTotals(restored)
	assert.True(t, want.GrandTotal.Equal(got.GrandTotal))
	assert.True(t, want.TaxAmount.Equal(got.TaxAmount))

	restored.SetQuantity("b", "6")
	item, _ := restored.Item("b")
	assert.Equal(t, 6, item.Quantity)
}

func TestDraft_UnmarshalRepairsInvariants(t *testing.T) {
	raw := `{"payment_method":"card","tax_percent":"-1","discount_amount":"2",
		"items":[{"product_ref":"a","unit_price":"-3","quantity":0},
		{"product_ref":"a","unit_price":"9","quantity":2},{"product_ref":"","quantity":1,"unit_price":"1"}]}`

	d := NewDraft()
	require.NoError(t, json.Unmarshal([]byte(raw), d))

	require.Equal(t, 1, d.Len())
	item, _ := d.Item("a")
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.UnitPrice.IsZero())
	assert.True(t, d.TaxPercent().IsZero())
	assert.True(t, dec("2").Equal(d.DiscountAmount()))
}

func TestDraft_AddOrIncrementItemRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		d := NewDraft()
		added := map[string]int{}
		var order []string

		for n := rng.Intn(60); n > 0; n-- {
			ref := fmt.Sprintf("p%d", rng.Intn(8))
			if added[ref] == 0 {
				order = append(order, ref)
			}
			added[ref]++
			d.AddOrIncrementItem(Product{ID: ref, Price: decimal.NewFromInt(int64(rng.Intn(100)))})
		}

		items := d.Items()
		require.Len(t, items, len(added))
		for i, item := range items {
			assert.Equal(t, order[i], item.ProductRef)
			assert.Equal(t, added[item.ProductRef], item.Quantity)
		}
	}
}

func TestDraft_AddOrIncrementItemSaturates(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{ID: "p1", Price: dec("1")})
	d.SetQuantity("p1", "99999999999999999999999")
	d.AddOrIncrementItem(Product{ID: "p1", Price: dec("1")})

	item, _ := d.Item("p1")
	assert.Equal(t, MaxQuantity, item.Quantity)
}

func TestComputeTotals_HugeInputStaysBounded(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{ID: "p1", Price: dec("1")})
	d.SetUnitPrice("p1", "1e100000000")
	d.SetQuantity("p1", "99999999999999999999999")
	d.SetTaxPercent("9e18")
	d.SetDiscount("0.5")

	done := make(chan Totals, 1)
	go func() { done <- ComputeTotals(d) }()

	select {
	case totals := <-done:
		assert.True(t, dec("-0.5").Equal(totals.GrandTotal), "got %s", totals.GrandTotal)
	case <-time.After(time.Second):
		t.Fatal("ComputeTotals did not return")
	}

	d.SetUnitPrice("p1", "9e18")
	totals := ComputeTotals(d)
	want := MaxAmount.Mul(decimal.NewFromInt(MaxQuantity))
	assert.True(t, want.Equal(totals.Subtotal), "got %s", totals.Subtotal)
}

func TestPayloadTotalsMatchDraft(t *testing.T) {
	d := NewDraft()
	d.AddOrIncrementItem(Product{ID: "p1", Price: dec("0.333")})
	d.SetQuantity("p1", "3")
	d.AddOrIncrementItem(Product{ID: "p2", Price: dec("1.005")})
	d.SetTaxPercent("12.3456")
	d.SetDiscount("0.004")
	d.SetCustomer("c1")

	payload, err := d.Finalize()
	require.NoError(t, err)

	want := ComputeTotals(d)
	got := payload.Totals()
	assert.True(t, want.Subtotal.Equal(got.Subtotal))
	assert.True(t, want.TaxAmount.Equal(got.TaxAmount))
	assert.True(t, want.GrandTotal.Equal(got.GrandTotal))
	assert.True(t, dec("0.999").Equal(payload.Items[0].LineTotal()))
}
