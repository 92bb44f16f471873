package kapytal

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SecurityStats is the average-cost performance of one security over the
// filtered transaction set, in its native currency and in the base currency.
type SecurityStats struct {
	Security *Security

	SharesBought decimal.Decimal
	SharesSold   decimal.Decimal
	SharesOwned  decimal.Decimal

	// Per-share quantity-weighted running averages. The base-currency
	// averages convert each buy or sell at the rate of its own date, so
	// they are not the native averages converted at today's rate.
	AvgBuyNative  Money
	AvgBuyBase    Money
	AvgSellNative Money
	AvgSellBase   Money

	Dividends     Money
	DividendsBase Money

	// MarketPrice is the latest known price on or before the report date.
	// PriceKnown is false when the security has no usable observation.
	MarketPrice Money
	PriceKnown  bool

	RealizedNative   Money
	RealizedBase     Money
	UnrealizedNative Money
	UnrealizedBase   Money
	TotalNative      Money
	TotalBase        Money

	// CurrencyGain is the part of the base-currency gain that currency
	// movement explains: total base gain minus the native gain converted
	// at the report date's rate.
	CurrencyGain Money

	// ReturnNative and ReturnBase are total gain over cost basis, as
	// fractions (0.1 = +10%). Zero cost basis yields zero.
	ReturnNative float64
	ReturnBase   float64

	// IRR is the annualized internal rate of return over the dated
	// buy/sell/dividend flows plus the terminal market value, in base
	// currency; IRRNative uses the flows in the security's own currency.
	// The Known flags are false when the flows admit no solution.
	IRR            float64
	IRRKnown       bool
	IRRNative      float64
	IRRNativeKnown bool

	// Incomplete flags a missing exchange rate; base-currency figures are
	// then partial.
	Incomplete bool
}

// SecurityReport holds the per-security performance rows at one date.
type SecurityReport struct {
	Date     Date
	Currency *Currency
	Rows     []SecurityStats
}

// SecurityPerformance computes average-cost statistics for every security
// touched by the filtered transactions, as of the given date.
func (l *Ledger) SecurityPerformance(f *Filter, asOf Date) (*SecurityReport, error) {
	base := l.baseCurrency
	if base == nil {
		return nil, newValidationError("no base currency is set")
	}
	txs := f.Apply(l, l.Transactions())

	bySecurity := make(map[*Security][]*SecurityTransaction)
	for _, tx := range txs {
		st, ok := tx.(*SecurityTransaction)
		if !ok || DateOf(st.When()).After(asOf) {
			continue
		}
		s, err := l.security(st.security)
		if err != nil {
			return nil, err
		}
		bySecurity[s] = append(bySecurity[s], st)
	}

	securities := make([]*Security, 0, len(bySecurity))
	for s := range bySecurity {
		securities = append(securities, s)
	}
	sort.Slice(securities, func(i, j int) bool { return securities[i].name < securities[j].name })

	report := &SecurityReport{Date: asOf, Currency: base}
	for _, s := range securities {
		report.Rows = append(report.Rows, l.securityStats(s, bySecurity[s], base, asOf))
	}
	return report, nil
}

func (l *Ledger) securityStats(s *Security, txs []*SecurityTransaction, base *Currency, asOf Date) SecurityStats {
	stats := SecurityStats{
		Security:      s,
		AvgBuyNative:  s.cur.Zero(),
		AvgBuyBase:    base.Zero(),
		AvgSellNative: s.cur.Zero(),
		AvgSellBase:   base.Zero(),
		Dividends:     s.cur.Zero(),
		DividendsBase: base.Zero(),
	}

	boughtNative := s.cur.Zero() // total spent on buys
	boughtBase := base.Zero()
	soldNative := s.cur.Zero()
	soldBase := base.Zero()
	var flows, nativeFlows []datedCashFlow

	convert := func(amount Money, on Date) (Money, bool) {
		converted, err := l.Convert(amount, base, on)
		if err != nil {
			stats.Incomplete = true
			return base.Zero(), false
		}
		return converted, true
	}

	for _, tx := range txs {
		day := DateOf(tx.When())
		amount := tx.Amount()
		native, _ := amount.Decimal().Float64()
		amountBase, haveBase := convert(amount, day)
		switch tx.typ {
		case SecurityBuy:
			stats.SharesBought = stats.SharesBought.Add(tx.shares)
			boughtNative = boughtNative.Add(amount)
			nativeFlows = append(nativeFlows, datedCashFlow{day: day, amount: -native})
			if haveBase {
				boughtBase = boughtBase.Add(amountBase)
				v, _ := amountBase.Decimal().Float64()
				flows = append(flows, datedCashFlow{day: day, amount: -v})
			}
		case SecuritySell:
			stats.SharesSold = stats.SharesSold.Add(tx.shares)
			soldNative = soldNative.Add(amount)
			nativeFlows = append(nativeFlows, datedCashFlow{day: day, amount: native})
			if haveBase {
				soldBase = soldBase.Add(amountBase)
				v, _ := amountBase.Decimal().Float64()
				flows = append(flows, datedCashFlow{day: day, amount: v})
			}
		case SecurityDividend:
			stats.Dividends = stats.Dividends.Add(amount)
			nativeFlows = append(nativeFlows, datedCashFlow{day: day, amount: native})
			if haveBase {
				stats.DividendsBase = stats.DividendsBase.Add(amountBase)
				v, _ := amountBase.Decimal().Float64()
				flows = append(flows, datedCashFlow{day: day, amount: v})
			}
		}
	}
	stats.SharesOwned = stats.SharesBought.Sub(stats.SharesSold)

	if stats.SharesBought.IsPositive() {
		stats.AvgBuyNative = boughtNative.Div(stats.SharesBought)
		stats.AvgBuyBase = boughtBase.Div(stats.SharesBought)
	}
	if stats.SharesSold.IsPositive() {
		stats.AvgSellNative = soldNative.Div(stats.SharesSold)
		stats.AvgSellBase = soldBase.Div(stats.SharesSold)
	}

	price, ok := s.Price(asOf)
	stats.MarketPrice = price
	stats.PriceKnown = ok
	priceBase, havePriceBase := base.Zero(), false
	if ok {
		priceBase, havePriceBase = convert(price, asOf)
	}

	stats.RealizedNative = stats.AvgSellNative.Sub(stats.AvgBuyNative).Mul(stats.SharesSold).Add(stats.Dividends)
	stats.RealizedBase = stats.AvgSellBase.Sub(stats.AvgBuyBase).Mul(stats.SharesSold).Add(stats.DividendsBase)

	stats.UnrealizedNative = s.cur.Zero()
	stats.UnrealizedBase = base.Zero()
	if stats.PriceKnown {
		stats.UnrealizedNative = price.Sub(stats.AvgBuyNative).Mul(stats.SharesOwned)
		if havePriceBase {
			stats.UnrealizedBase = priceBase.Sub(stats.AvgBuyBase).Mul(stats.SharesOwned)
		}
	}

	stats.TotalNative = stats.RealizedNative.Add(stats.UnrealizedNative)
	stats.TotalBase = stats.RealizedBase.Add(stats.UnrealizedBase)

	if totalNativeBase, ok := convert(stats.TotalNative, asOf); ok {
		stats.CurrencyGain = stats.TotalBase.Sub(totalNativeBase)
	} else {
		stats.CurrencyGain = base.Zero()
	}

	costNative := stats.AvgBuyNative.Mul(stats.SharesBought)
	if !costNative.IsZero() {
		r, _ := stats.TotalNative.Decimal().Div(costNative.Decimal()).Float64()
		stats.ReturnNative = r
	}
	costBase := stats.AvgBuyBase.Mul(stats.SharesBought)
	if !costBase.IsZero() {
		r, _ := stats.TotalBase.Decimal().Div(costBase.Decimal()).Float64()
		stats.ReturnBase = r
	}

	if stats.PriceKnown && stats.SharesOwned.IsPositive() {
		v, _ := price.Mul(stats.SharesOwned).Decimal().Float64()
		nativeFlows = append(nativeFlows, datedCashFlow{day: asOf, amount: v})
		if havePriceBase {
			v, _ := priceBase.Mul(stats.SharesOwned).Decimal().Float64()
			flows = append(flows, datedCashFlow{day: asOf, amount: v})
		}
	}
	sort.SliceStable(flows, func(i, j int) bool { return flows[i].day.Before(flows[j].day) })
	sort.SliceStable(nativeFlows, func(i, j int) bool { return nativeFlows[i].day.Before(nativeFlows[j].day) })
	stats.IRR, stats.IRRKnown = xirr(flows)
	stats.IRRNative, stats.IRRNativeKnown = xirr(nativeFlows)

	return stats
}
