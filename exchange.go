package kapytal

import (
	"iter"

	"github.com/shopspring/decimal"
)

// ExchangeRate stores the historical rate observations for one ordered
// currency pair A/B: how many units of B one unit of A buys. Only one
// direction is ever stored; the inverse pair is derived by reciprocal on
// demand, so the two directions cannot disagree.
type ExchangeRate struct {
	primary   *Currency
	secondary *Currency
	rates     history
}

func newExchangeRate(primary, secondary *Currency) *ExchangeRate {
	return &ExchangeRate{primary: primary, secondary: secondary}
}

// Primary returns the base currency of the pair (the A in A/B).
func (e *ExchangeRate) Primary() *Currency { return e.primary }

// Secondary returns the quote currency of the pair (the B in A/B).
func (e *ExchangeRate) Secondary() *Currency { return e.secondary }

// Code returns the pair code, e.g. "EUR/CZK".
func (e *ExchangeRate) Code() string { return e.primary.code + "/" + e.secondary.code }

// SetRate upserts the rate for the given day, overwriting any existing
// observation on that exact date. Rates are always positive.
func (e *ExchangeRate) SetRate(day Date, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return newValidationError("exchange rate %s on %s must be positive, got %s", e.Code(), day, rate)
	}
	e.rates.set(day, rate)
	logger.Debug().Str("pair", e.Code()).Stringer("date", day).Stringer("rate", rate).Msg("exchange rate set")
	return nil
}

// DeleteRate removes the observation on the given day.
func (e *ExchangeRate) DeleteRate(day Date) error {
	if !e.rates.delete(day) {
		return &NotFoundError{Kind: "exchange rate observation", Key: e.Code() + "@" + day.String()}
	}
	return nil
}

// Rate returns the latest known rate on or before the given day.
func (e *ExchangeRate) Rate(on Date) (decimal.Decimal, error) {
	rate, ok := e.rates.latest(on)
	if !ok {
		return decimal.Decimal{}, &NoRateAvailableError{From: e.primary.code, To: e.secondary.code, Day: on}
	}
	return rate, nil
}

// Observations iterates the stored observations in chronological order.
func (e *ExchangeRate) Observations() iter.Seq[Observation] { return e.rates.values() }

// relatesTo reports whether the pair involves the given currency.
func (e *ExchangeRate) relatesTo(c *Currency) bool {
	return e.primary == c || e.secondary == c
}

// other returns the opposite currency of the pair.
func (e *ExchangeRate) other(c *Currency) *Currency {
	if e.primary == c {
		return e.secondary
	}
	return e.primary
}

// ConversionFactor resolves the factor turning one unit of 'from' into units
// of 'to' on the given day. Same currency resolves to 1; a direct pair (or
// its stored inverse) is used when available; otherwise a breadth-first
// search over all known pairs finds the fewest-hop chain and multiplies the
// rates along it. Users rarely record every cross pair, they record each
// currency against a base, so chaining is the common case.
func (l *Ledger) ConversionFactor(from, to *Currency, on Date) (decimal.Decimal, error) {
	if from == to || from.code == to.code {
		return decimal.NewFromInt(1), nil
	}

	// BFS over currencies, treating pairs as undirected edges.
	type hop struct {
		cur    *Currency
		factor decimal.Decimal
	}
	visited := map[string]bool{from.code: true}
	queue := []hop{{cur: from, factor: decimal.NewFromInt(1)}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, pair := range l.exchangeRates {
			if !pair.relatesTo(current.cur) {
				continue
			}
			next := pair.other(current.cur)
			if visited[next.code] {
				continue
			}
			rate, err := pair.Rate(on)
			if err != nil {
				continue // pair has no observation yet, not an edge on this day
			}
			factor := current.factor.Mul(rate)
			if pair.secondary == current.cur {
				// stored direction is next -> current, invert
				factor = current.factor.Div(rate)
			}
			if next == to {
				return factor, nil
			}
			visited[next.code] = true
			queue = append(queue, hop{cur: next, factor: factor})
		}
	}
	return decimal.Decimal{}, &NoRateAvailableError{From: from.code, To: to.code, Day: on}
}

// Convert converts an amount into the target currency at the given date,
// using the exchange-rate graph.
func (l *Ledger) Convert(amount Money, target *Currency, on Date) (Money, error) {
	if amount.cur == nil {
		return target.Zero(), nil
	}
	factor, err := l.ConversionFactor(amount.cur, target, on)
	if err != nil {
		return Money{}, err
	}
	return amount.Convert(target, factor), nil
}
