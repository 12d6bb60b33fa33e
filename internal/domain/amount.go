package domain

import (
	"database/sql/driver"
	"fmt"
	"math/bits"
	"strconv"

	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Amount
// ──────────────────────────────────────────────────────────────────────────────

// Amount is an unsigned fixed-point quantity in base units.  It represents
// either currency or pool shares; the two are distinct logical units that
// happen to share a representation.  One display unit equals 10^AmountScale
// base units (see config.Ledger).
//
// Arithmetic on Amount is either checked (returns ErrConversion on overflow)
// or saturating — never wrapping.
type Amount uint64

// MaxAmount is the largest representable quantity.
const MaxAmount = Amount(^uint64(0))

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// String renders the amount as a plain base-unit integer.
func (a Amount) String() string { return strconv.FormatUint(uint64(a), 10) }

// ──────────────────────────────────────────────────────────────────────────────
// Checked / saturating arithmetic
// ──────────────────────────────────────────────────────────────────────────────

// CheckedAdd returns a+b or ErrConversion if the sum does not fit.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, fmt.Errorf("add %s + %s: %w", a, b, ErrConversion)
	}
	return Amount(sum), nil
}

// CheckedMul returns a×b or ErrConversion on overflow.
func (a Amount) CheckedMul(b Amount) (Amount, error) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 {
		return 0, fmt.Errorf("mul %s × %s: %w", a, b, ErrConversion)
	}
	return Amount(lo), nil
}

// SaturatingSub returns a−b, clamped at zero.
func (a Amount) SaturatingSub(b Amount) Amount {
	if b >= a {
		return 0
	}
	return a - b
}

// MulDiv computes a×b÷div with a 128-bit intermediate product and floor
// division.  Returns ErrConversion when div is zero or when the quotient does
// not fit in 64 bits.
func MulDiv(a, b, div Amount) (Amount, error) {
	if div == 0 {
		return 0, fmt.Errorf("muldiv %s × %s ÷ 0: %w", a, b, ErrConversion)
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(div) {
		// Quotient would exceed 64 bits.
		return 0, fmt.Errorf("muldiv %s × %s ÷ %s: %w", a, b, div, ErrConversion)
	}
	q, _ := bits.Div64(hi, lo, uint64(div))
	return Amount(q), nil
}

// MulDivSat is MulDiv with overflow saturated to MaxAmount instead of failing.
// Division by zero still fails.
func MulDivSat(a, b, div Amount) (Amount, error) {
	q, err := MulDiv(a, b, div)
	if err != nil {
		if div == 0 {
			return 0, err
		}
		return MaxAmount, nil
	}
	return q, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Display-unit conversion (shopspring/decimal at the API edge)
// ──────────────────────────────────────────────────────────────────────────────

// AmountFromDecimal converts a display-unit decimal into base units at the
// given scale.  Negative values, excess fractional precision, and values that
// do not fit in 64 bits all map to ErrConversion.
func AmountFromDecimal(d decimal.Decimal, scale int32) (Amount, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s: %w", d, ErrConversion)
	}
	shifted := d.Shift(scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places: %w", d, scale, ErrConversion)
	}
	bi := shifted.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %s exceeds the representable range: %w", d, ErrConversion)
	}
	return Amount(bi.Uint64()), nil
}

// Decimal renders the amount in display units at the given scale.
func (a Amount) Decimal(scale int32) decimal.Decimal {
	return decimal.NewFromUint64(uint64(a)).Shift(-scale)
}

// ──────────────────────────────────────────────────────────────────────────────
// database/sql plumbing
// ──────────────────────────────────────────────────────────────────────────────

// Value implements driver.Valuer.  Amounts are stored as NUMERIC(30,0); the
// string form round-trips the full uint64 range.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for NUMERIC, BIGINT, and text columns.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = 0
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("scan amount %d: %w", v, ErrConversion)
		}
		*a = Amount(v)
		return nil
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	default:
		return fmt.Errorf("scan amount from %T: %w", src, ErrConversion)
	}
}

func (a *Amount) scanString(s string) error {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("scan amount %q: %w", s, ErrConversion)
	}
	*a = Amount(u)
	return nil
}

// ParseAmount parses a base-unit integer string.
func ParseAmount(s string) (Amount, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, ErrConversion)
	}
	return Amount(u), nil
}
