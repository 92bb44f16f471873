package kapytal

import (
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxShareDecimals = 18

// Security is an investable instrument: an immutable identity (name, optional
// ticker symbol, currency, share precision) plus a mutable date-indexed price
// history with at most one price per calendar day.
type Security struct {
	id            uuid.UUID
	name          string
	symbol        string
	cur           *Currency
	shareDecimals int32
	prices        history
}

func newSecurity(name, symbol string, cur *Currency, shareDecimals int) (*Security, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("security name must not be empty")
	}
	if shareDecimals < 0 || shareDecimals > maxShareDecimals {
		return nil, newValidationError("security share decimals must be within [0, %d], got %d", maxShareDecimals, shareDecimals)
	}
	return &Security{
		id:            uuid.New(),
		name:          name,
		symbol:        strings.TrimSpace(symbol),
		cur:           cur,
		shareDecimals: int32(shareDecimals),
	}, nil
}

// ID returns the security's UUID.
func (s *Security) ID() uuid.UUID { return s.id }

// Name returns the security's unique name.
func (s *Security) Name() string { return s.name }

// Symbol returns the optional ticker symbol.
func (s *Security) Symbol() string { return s.symbol }

// Currency returns the currency the security is priced in.
func (s *Security) Currency() *Currency { return s.cur }

// ShareDecimals returns the decimal precision of share quantities.
func (s *Security) ShareDecimals() int { return int(s.shareDecimals) }

// validShares reports whether a share quantity fits the security's precision.
func (s *Security) validShares(shares decimal.Decimal) bool {
	return shares.Equal(shares.Truncate(s.shareDecimals))
}

// SetPrice upserts the price for the given day, overwriting any existing
// observation on that exact date.
func (s *Security) SetPrice(day Date, price decimal.Decimal) error {
	if price.IsNegative() {
		return newValidationError("price of %s on %s must not be negative, got %s", s.name, day, price)
	}
	s.prices.set(day, price)
	logger.Debug().Str("security", s.name).Stringer("date", day).Stringer("price", price).Msg("security price set")
	return nil
}

// DeletePrice removes the price observation on the given day.
func (s *Security) DeletePrice(day Date) error {
	if !s.prices.delete(day) {
		return &NotFoundError{Kind: "security price", Key: s.name + "@" + day.String()}
	}
	return nil
}

// Price returns the latest known price on or before the given day.
func (s *Security) Price(on Date) (Money, bool) {
	value, ok := s.prices.latest(on)
	if !ok {
		return Money{}, false
	}
	return s.cur.Amount(value), true
}

// EarliestPriceDate returns the first day a price is known for.
func (s *Security) EarliestPriceDate() (Date, bool) { return s.prices.earliestDay() }

// Prices iterates the stored price observations in chronological order.
func (s *Security) Prices() iter.Seq[Observation] { return s.prices.values() }

func (s *Security) String() string {
	if s.symbol != "" {
		return s.name + " (" + s.symbol + ")"
	}
	return s.name
}
