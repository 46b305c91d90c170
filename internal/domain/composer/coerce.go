package composer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Input bounds. Quantities and amounts above them are clamped down, so a single
// line never grows past what a bill can store.
const (
	MaxQuantity = 1_000_000

	maxAmountDigits   = 30
	maxAmountExponent = 18
)

// MaxAmount caps unit prices, tax percent and discount
var MaxAmount = decimal.New(1, 12)

var (
	leadingInt    = regexp.MustCompile(`^[+-]?\d+`)
	leadingNumber = regexp.MustCompile(`^([+-]?(?:\d+(?:\.\d*)?|\.\d+))(?:[eE]([+-]?\d+))?`)
)

// ParseQuantity reads the integer prefix of raw form input and clamps it to [1, MaxQuantity].
// Input without a numeric prefix yields 1, so "3 pcs" is 3 and "2.7" is 2.
func ParseQuantity(raw string) int {
	m := leadingInt.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// only ErrRange is possible after the regexp; the sign says which end
		if strings.HasPrefix(m, "-") {
			return 1
		}
		return MaxQuantity
	}
	return ClampQuantity(n)
}

// ClampQuantity enforces 1 <= quantity <= MaxQuantity
func ClampQuantity(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	}
	return n
}

// ParseAmount reads the decimal prefix of raw form input and clamps it to [0, MaxAmount].
// Input without a numeric prefix yields zero, as does input with more than 30 digits
// or an exponent beyond ±18.
func ParseAmount(raw string) decimal.Decimal {
	m := leadingNumber.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return decimal.Zero
	}

	mantissa, exponent := strings.TrimSuffix(m[1], "."), m[2]
	if countDigits(mantissa) > maxAmountDigits {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(mantissa)
	if err != nil {
		return decimal.Zero
	}
	if exponent != "" {
		exp, err := strconv.Atoi(exponent)
		if err != nil || exp > maxAmountExponent || exp < -maxAmountExponent {
			return decimal.Zero
		}
		d = d.Shift(int32(exp))
	}
	return ClampAmount(d)
}

// ClampAmount enforces 0 <= amount <= MaxAmount
func ClampAmount(d decimal.Decimal) decimal.Decimal {
	switch {
	case d.IsNegative():
		return decimal.Zero
	case d.GreaterThan(MaxAmount):
		return MaxAmount
	}
	return d
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
