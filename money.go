package research

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func newDecimal[T float32 | float64 | int | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// M returns an amount in the given ISO currency.
func M[T float32 | float64 | int | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// USD returns an amount in US dollars.
func USD[T float32 | float64 | int | int64 | decimal.Decimal](value T) Money { return M(value, "USD") }

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the amount formatted with the currency conventions, e.g. $60,000.00 or ₹1,234.50.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-"
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// RoundToNearest rounds value to the nearest multiple, or to the nearest 100 for values below
// 500. Halfway values round to the even multiple.
func RoundToNearest(value float64, multiple int) float64 {
	if value < 500 {
		multiple = 100
	}
	return roundBank(value, float64(multiple))
}

// roundBank rounds value to the nearest multiple, halfway values to the even multiple.
func roundBank(value, multiple float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	q := newDecimal(value / multiple).RoundBank(0)
	return q.InexactFloat64() * multiple
}
