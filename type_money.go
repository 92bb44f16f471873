package kapytal

import (
	"fmt"
	"strings"
	"unicode"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const maxCurrencyPlaces = 18

// Currency is an immutable monetary unit: a three letter code and the number
// of decimal places enforced when amounts are materialized into transactions.
// Currencies are created once through the ledger registry and shared by
// reference; identity is the code.
type Currency struct {
	code   string
	places int32
}

// NewCurrency creates a currency with the given ISO-4217-style code. A
// negative places argument picks the ISO fraction for known codes (2 when the
// code is unknown to the catalogue).
func NewCurrency(code string, places int) (*Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return nil, newValidationError("currency code must be a three letter code, got %q", code)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) {
			return nil, newValidationError("currency code must be alphabetic, got %q", code)
		}
	}
	if places < 0 {
		places = 2
		if iso := gomoney.GetCurrency(code); iso != nil {
			places = iso.Fraction
		}
	}
	if places > maxCurrencyPlaces {
		return nil, newValidationError("currency places must be at most %d, got %d", maxCurrencyPlaces, places)
	}
	return &Currency{code: code, places: int32(places)}, nil
}

// Code returns the currency code.
func (c *Currency) Code() string { return c.code }

// Places returns the number of decimal places of the currency.
func (c *Currency) Places() int { return int(c.places) }

// Zero returns a zero amount in this currency.
func (c *Currency) Zero() Money { return Money{value: decimal.Zero, cur: c} }

// Amount builds a Money in this currency from a decimal value.
func (c *Currency) Amount(value decimal.Decimal) Money { return Money{value: value, cur: c} }

// AmountFromString builds a Money in this currency from a decimal string.
func (c *Currency) AmountFromString(value string) (Money, error) {
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, newValidationError("invalid amount %q: %v", value, err)
	}
	return Money{value: dec, cur: c}, nil
}

func (c *Currency) String() string { return c.code }

// Money is a value object: an exact decimal magnitude tagged with a currency.
// The zero Money is currency-less and acts as a weak zero: it adopts the other
// operand's currency in arithmetic, which keeps summation loops simple.
// Arithmetic between two different concrete currencies panics with a
// *CurrencyMismatchError; validated construction makes that unreachable, and
// panicking beats silently mixing units.
type Money struct {
	value decimal.Decimal
	cur   *Currency
}

// M is a convenience constructor used mostly by tests.
func M(value string, cur *Currency) Money {
	return Money{value: decimal.RequireFromString(value), cur: cur}
}

// Currency returns the currency of the amount, or nil for the weak zero.
func (m Money) Currency() *Currency { return m.cur }

// Decimal returns the exact decimal magnitude.
func (m Money) Decimal() decimal.Decimal { return m.value }

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }

// Neg returns the amount with the opposite sign.
func (m Money) Neg() Money { return Money{value: m.value.Neg(), cur: m.cur} }

// Mul scales the amount by a dimensionless decimal factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{value: m.value.Mul(factor), cur: m.cur}
}

// Div divides the amount by a dimensionless decimal divisor.
func (m Money) Div(divisor decimal.Decimal) Money {
	return Money{value: m.value.Div(divisor), cur: m.cur}
}

// Add returns m + n. Panics with *CurrencyMismatchError on mixed currencies.
func (m Money) Add(n Money) Money {
	return Money{value: m.value.Add(n.value), cur: sameCurrency(m, n)}
}

// Sub returns m - n. Panics with *CurrencyMismatchError on mixed currencies.
func (m Money) Sub(n Money) Money {
	return Money{value: m.value.Sub(n.value), cur: sameCurrency(m, n)}
}

// Cmp compares two amounts of the same currency, returning -1, 0 or +1.
// Panics with *CurrencyMismatchError on mixed currencies.
func (m Money) Cmp(n Money) int {
	sameCurrency(m, n)
	return m.value.Cmp(n.value)
}

func (m Money) Equal(n Money) bool       { return m.sameUnit(n) && m.value.Equal(n.value) }
func (m Money) LessThan(n Money) bool    { return m.Cmp(n) < 0 }
func (m Money) GreaterThan(n Money) bool { return m.Cmp(n) > 0 }

func (m Money) sameUnit(n Money) bool {
	return m.cur == nil || n.cur == nil || m.cur.code == n.cur.code
}

// sameCurrency resolves the currency of a binary operation, letting the weak
// zero adopt the concrete operand's currency.
func sameCurrency(m, n Money) *Currency {
	if m.cur == nil {
		return n.cur
	}
	if n.cur == nil {
		return m.cur
	}
	if m.cur.code != n.cur.code {
		panic(&CurrencyMismatchError{A: m.cur.code, B: n.cur.code})
	}
	return m.cur
}

// Round rounds the amount to its currency's places using banker's rounding
// (round half to even). This is applied only where a currency's fixed
// precision is enforced; report intermediates keep full precision.
func (m Money) Round() Money {
	if m.cur == nil {
		return m
	}
	return Money{value: m.value.RoundBank(m.cur.places), cur: m.cur}
}

// IsRounded reports whether the amount carries no more decimal places than
// its currency allows.
func (m Money) IsRounded() bool {
	return m.cur == nil || m.value.Equal(m.value.RoundBank(m.cur.places))
}

// Convert converts the amount to the target currency using the supplied rate
// (units of target per one unit of source). Rates come from the ledger's
// exchange-rate resolver; Money itself never looks rates up.
func (m Money) Convert(target *Currency, rate decimal.Decimal) Money {
	if m.cur != nil && target != nil && m.cur.code == target.code {
		return m
	}
	return Money{value: m.value.Mul(rate), cur: target}
}

// String formats the amount with its currency code, e.g. "1234.50 EUR".
func (m Money) String() string {
	if m.cur == nil {
		return m.value.String()
	}
	return m.value.StringFixed(m.cur.places) + " " + m.cur.code
}

// Display formats the amount with the currency's conventional symbol and
// grouping via the go-money catalogue, e.g. "€1,234.50". Falls back to
// String for codes the catalogue does not know.
func (m Money) Display() string {
	if m.cur == nil {
		return m.value.String()
	}
	iso := gomoney.GetCurrency(m.cur.code)
	if iso == nil || iso.Fraction != int(m.cur.places) {
		return m.String()
	}
	minor := m.value.Shift(m.cur.places).Round(0)
	return iso.Formatter().Format(minor.IntPart())
}

// SignedString is like String but with an explicit sign; a zero amount is
// rendered as "-" to keep report tables sparse.
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

var _ fmt.Stringer = Money{}
