package entity

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrAmountOutOfRange is returned when an amount does not fit in int64 cents
var ErrAmountOutOfRange = errors.New("amount out of range")

var (
	minCents = decimal.NewFromInt(-1 << 63)
	maxCents = decimal.NewFromInt(1<<63 - 1)
)

// ToCents converts a decimal amount to integer cents, rounding half away from zero
func ToCents(d decimal.Decimal) (int64, error) {
	cents := d.Round(2).Shift(2)
	if cents.LessThan(minCents) || cents.GreaterThan(maxCents) {
		return 0, ErrAmountOutOfRange
	}
	return cents.IntPart(), nil
}

// FromCents converts stored cents back to a decimal amount
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
