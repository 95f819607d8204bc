// Package money provides an exact amount type counted in minor currency units.
//
// Amounts are never held as binary floating point. Every operation that divides
// an amount hands out the leftover minor units one at a time to the first parts,
// so the parts always sum back to the original value.
package money

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMagnitude = errors.New("invalid magnitude")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrInvalidParts     = errors.New("invalid number of parts")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// Money is an immutable amount of minor units in a single currency.
// Arithmetic results may be negative; constructors for external input are not.
type Money struct {
	minor    int64
	currency Currency
}

// New builds a non-negative amount from minor units.
func New(minor int64, currency Currency) (Money, error) {
	if minor < 0 {
		return Money{}, fmt.Errorf("%w: %d is negative", ErrInvalidMagnitude, minor)
	}
	return Money{minor: minor, currency: currency}, nil
}

// Zero returns the zero amount in currency.
func Zero(currency Currency) Money {
	return Money{currency: currency}
}

// Signed builds an amount that may be negative. It is meant for values that are
// already known to be exact, such as rows read back from storage.
func Signed(minor int64, currency Currency) Money {
	return Money{minor: minor, currency: currency}
}

// Parse reads a non-negative decimal amount such as "12.34" or "12,34".
// More decimal places than the currency's minor unit are rejected rather than
// rounded.
func Parse(s string, currency Currency) (Money, error) {
	text := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if text == "" {
		return Money{}, fmt.Errorf("%w: empty amount", ErrInvalidMagnitude)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidMagnitude, s)
	}
	return FromDecimal(d, currency)
}

// FromDecimal converts a major-unit decimal into Money.
func FromDecimal(d decimal.Decimal, currency Currency) (Money, error) {
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s is negative", ErrInvalidMagnitude, d.String())
	}
	shifted := d.Shift(currency.Exponent())
	if !shifted.IsInteger() {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidMagnitude, d.String(), currency.Exponent())
	}
	if shifted.GreaterThan(maxMinor) {
		return Money{}, fmt.Errorf("%w: %s is out of range", ErrInvalidMagnitude, d.String())
	}
	return Money{minor: shifted.IntPart(), currency: currency}, nil
}

func (m Money) Minor() int64       { return m.minor }
func (m Money) Currency() Currency { return m.currency }

// SameCurrency reports whether both amounts carry the same currency tag.
func (m Money) SameCurrency(other Money) bool {
	return m.currency == other.currency
}

// Add assumes both operands share a currency; callers check SameCurrency first.
func (m Money) Add(other Money) Money {
	return Money{minor: m.minor + other.minor, currency: m.currency}
}

func (m Money) Subtract(other Money) Money {
	return Money{minor: m.minor - other.minor, currency: m.currency}
}

func (m Money) Negate() Money {
	return Money{minor: -m.minor, currency: m.currency}
}

func (m Money) Abs() Money {
	if m.minor < 0 {
		return m.Negate()
	}
	return m
}

func (m Money) IsZero() bool     { return m.minor == 0 }
func (m Money) IsNegative() bool { return m.minor < 0 }
func (m Money) IsPositive() bool { return m.minor > 0 }

// Equal is exact: same currency and same number of minor units.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.minor == other.minor
}

// Cmp compares magnitudes in minor units, ignoring the currency tag.
func (m Money) Cmp(other Money) int {
	switch {
	case m.minor < other.minor:
		return -1
	case m.minor > other.minor:
		return 1
	}
	return 0
}

// Min returns the smaller of two amounts.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// SplitEvenly divides the amount into n parts. Leftover minor units go to the
// first parts, one each: 100.00 / 3 is [33.34, 33.33, 33.33].
func (m Money) SplitEvenly(n int) ([]Money, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParts, n)
	}
	if m.minor < 0 {
		return nil, fmt.Errorf("%w: cannot split negative amount", ErrInvalidMagnitude)
	}
	base := m.minor / int64(n)
	leftover := m.minor % int64(n)

	parts := make([]Money, n)
	for i := range parts {
		parts[i] = Money{minor: base, currency: m.currency}
		if int64(i) < leftover {
			parts[i].minor++
		}
	}
	return parts, nil
}

// Allocate divides the amount proportionally to weights. Each part is floored;
// leftover minor units go one each to the first parts with a non-zero weight.
// A zero weight always receives zero.
func (m Money) Allocate(weights []int64) ([]Money, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrInvalidParts)
	}
	if m.minor < 0 {
		return nil, fmt.Errorf("%w: cannot allocate negative amount", ErrInvalidMagnitude)
	}
	var sum uint64
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight %d", ErrInvalidParts, w)
		}
		next, carry := bits.Add64(sum, uint64(w), 0)
		if carry != 0 {
			return nil, fmt.Errorf("%w: weights overflow", ErrInvalidParts)
		}
		sum = next
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidParts)
	}

	parts := make([]Money, len(weights))
	var given int64
	for i, w := range weights {
		// w <= sum, so the quotient never exceeds m.minor and cannot overflow
		hi, lo := bits.Mul64(uint64(m.minor), uint64(w))
		q, _ := bits.Div64(hi, lo, sum)
		parts[i] = Money{minor: int64(q), currency: m.currency}
		given += int64(q)
	}

	leftover := m.minor - given
	for i := 0; leftover > 0; i++ {
		if weights[i] == 0 {
			continue
		}
		parts[i].minor++
		leftover--
	}
	return parts, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minor, -m.currency.Exponent())
}

// Text renders the bare decimal amount, e.g. "33.34".
func (m Money) Text() string {
	return m.Decimal().StringFixed(m.currency.Exponent())
}

// Display renders the amount with the currency's decimal places, e.g. "33.34 SAR".
func (m Money) Display() string {
	text := m.Text()
	if m.currency == "" {
		return text
	}
	return text + " " + string(m.currency)
}

func (m Money) String() string {
	return m.Display()
}

// Sum adds amounts; an empty list sums to zero in currency.
func Sum(currency Currency, amounts ...Money) Money {
	total := Zero(currency)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
