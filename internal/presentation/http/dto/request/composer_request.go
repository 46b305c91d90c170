package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RawValue holds a form field exactly as typed. It accepts a JSON string or a JSON
// number so the composer's own coercion decides what the input means.
type RawValue string

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value must be a string or a number")
	}
	*v = RawValue(n.String())
	return nil
}

func (v RawValue) String() string {
	return strings.TrimSpace(string(v))
}

// ValueRequest carries a single raw field edit (quantity, price, tax, discount or payment method)
type ValueRequest struct {
	Value RawValue `json:"value"`
}

// AddItemRequest adds one unit of a product to the draft
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// SelectCustomerRequest picks the customer the bill is issued to; empty clears it
type SelectCustomerRequest struct {
	CustomerID string `json:"customer_id"`
}
