package kapytal

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashFlowStats aggregates the cash movements of one date bucket, valued in
// the base currency. Incomes, InwardTransfers, Refunds, Expenses and
// OutwardTransfers are positive magnitudes; the signed picture comes from the
// derived quantities.
type CashFlowStats struct {
	Range Range

	Incomes          Money
	InwardTransfers  Money
	Refunds          Money
	InitialBalances  Money
	Expenses         Money
	OutwardTransfers Money

	Inflows  Money // incomes + inward transfers + refunds + initial balances
	Outflows Money // expenses + outward transfers

	CashFlow           Money // inflows - outflows
	TotalGrowth        Money // end-of-bucket value - start-of-bucket value
	GainLoss           Money // total growth - cash flow
	SecuritiesGainLoss Money // market movement of held securities
	CurrenciesGainLoss Money // gain/loss not explained by securities

	// SavingsRate is cash flow over saveable inflows (incomes, inward
	// transfers, initial balances). NaN when there is no eligible inflow.
	// Values above 1 are valid when refunds dominate.
	SavingsRate float64

	// Incomplete is set when a missing exchange rate or security price
	// forced a contribution to be skipped; the bucket's figures are then
	// partial.
	Incomplete bool
}

// CashFlowReport is the date-bucketed cash-flow grid over a filtered
// transaction set.
type CashFlowReport struct {
	Currency *Currency
	Period   Period
	Buckets  []CashFlowStats
	Total    CashFlowStats
	Average  CashFlowStats
}

// CashFlow computes the cash-flow report over [from, to] bucketed by the
// given period. Transfers crossing the boundary of the filter's selected
// account set count as inward or outward flows; transfers fully inside the
// set are value-neutral. Security buys and sells with only one side inside
// the set are classified as transfers in the direction of the cash movement.
func (l *Ledger) CashFlow(f *Filter, period Period, from, to Date) (*CashFlowReport, error) {
	base := l.baseCurrency
	if base == nil {
		return nil, newValidationError("no base currency is set")
	}
	selected := f.selectedAccountSet(l)
	txs := f.Apply(l, l.Transactions())

	report := &CashFlowReport{Currency: base, Period: period}
	for _, bucket := range period.RangesBetween(from, to) {
		stats := l.cashFlowBucket(txs, selected, base, bucket)
		report.Buckets = append(report.Buckets, stats)
	}
	report.Total = l.cashFlowBucket(txs, selected, base, Range{From: from, To: to})
	report.Average = averageCashFlow(report.Buckets, base)
	return report, nil
}

func (l *Ledger) cashFlowBucket(txs []Transaction, selected map[uuid.UUID]bool, base *Currency, bucket Range) CashFlowStats {
	stats := CashFlowStats{
		Range:            bucket,
		Incomes:          base.Zero(),
		InwardTransfers:  base.Zero(),
		Refunds:          base.Zero(),
		InitialBalances:  base.Zero(),
		Expenses:         base.Zero(),
		OutwardTransfers: base.Zero(),
	}

	// Start and end values of the selected accounts frame the bucket; the
	// security-account share of the change feeds SecuritiesGainLoss.
	startValue := base.Zero()
	endValue := base.Zero()
	securitiesDelta := base.Zero()
	for id := range selected {
		item, err := l.accountItem(id)
		if err != nil {
			continue
		}
		start, errStart := l.ItemValue(item, bucket.From.Add(-1), base)
		end, errEnd := l.ItemValue(item, bucket.To, base)
		if errStart != nil || errEnd != nil {
			stats.Incomplete = true
			continue
		}
		startValue = startValue.Add(start)
		endValue = endValue.Add(end)
		if item.Type() == SecurityAccountItem {
			securitiesDelta = securitiesDelta.Add(end).Sub(start)
		}
	}

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
		if !bucket.Contains(day) {
			continue
		}
		switch t := tx.(type) {
		case *CashTransaction:
			amount, ok := convert(t.Amount(), day)
			if !ok {
				continue
			}
			if t.typ == CashIncome {
				stats.Incomes = stats.Incomes.Add(amount)
			} else {
				stats.Expenses = stats.Expenses.Add(amount)
			}
		case *RefundTransaction:
			amount, ok := convert(t.Amount(), day)
			if !ok {
				continue
			}
			stats.Refunds = stats.Refunds.Add(amount)
		case *CashTransfer:
			senderIn, recipientIn := selected[t.sender], selected[t.recipient]
			if senderIn && recipientIn {
				continue
			}
			if senderIn {
				if amount, ok := convert(t.sent, day); ok {
					stats.OutwardTransfers = stats.OutwardTransfers.Add(amount)
				}
			}
			if recipientIn {
				if amount, ok := convert(t.received, day); ok {
					stats.InwardTransfers = stats.InwardTransfers.Add(amount)
				}
			}
		case *SecurityTransaction:
			amount, ok := convert(t.Amount(), day)
			if !ok {
				continue
			}
			cashIn, securityIn := selected[t.cashAccount], selected[t.securityAccount]
			switch {
			case cashIn && securityIn:
				// Internal: cash turned into shares or back; the value change
				// shows up through SecuritiesGainLoss, not as a flow.
				if t.typ == SecurityBuy {
					securitiesDelta = securitiesDelta.Sub(amount)
				} else {
					securitiesDelta = securitiesDelta.Add(amount)
				}
			case cashIn:
				if t.typ == SecurityBuy {
					stats.OutwardTransfers = stats.OutwardTransfers.Add(amount)
				} else {
					stats.InwardTransfers = stats.InwardTransfers.Add(amount)
				}
			case securityIn:
				if t.typ == SecurityBuy {
					stats.InwardTransfers = stats.InwardTransfers.Add(amount)
				} else {
					stats.OutwardTransfers = stats.OutwardTransfers.Add(amount)
				}
			}
		}
	}

	stats.Inflows = stats.Incomes.Add(stats.InwardTransfers).Add(stats.Refunds).Add(stats.InitialBalances)
	stats.Outflows = stats.Expenses.Add(stats.OutwardTransfers)
	stats.CashFlow = stats.Inflows.Sub(stats.Outflows)
	stats.TotalGrowth = endValue.Sub(startValue)
	stats.GainLoss = stats.TotalGrowth.Sub(stats.CashFlow)
	stats.SecuritiesGainLoss = securitiesDelta
	stats.CurrenciesGainLoss = stats.GainLoss.Sub(stats.SecuritiesGainLoss)

	eligible := stats.Incomes.Add(stats.InwardTransfers).Add(stats.InitialBalances)
	if eligible.IsZero() {
		stats.SavingsRate = math.NaN()
	} else {
		rate, _ := stats.CashFlow.Decimal().Div(eligible.Decimal()).Float64()
		stats.SavingsRate = rate
	}
	return stats
}

// averageCashFlow averages the bucket stats, for the mean row of the grid.
func averageCashFlow(buckets []CashFlowStats, base *Currency) CashFlowStats {
	avg := CashFlowStats{
		Incomes:            base.Zero(),
		InwardTransfers:    base.Zero(),
		Refunds:            base.Zero(),
		InitialBalances:    base.Zero(),
		Expenses:           base.Zero(),
		OutwardTransfers:   base.Zero(),
		Inflows:            base.Zero(),
		Outflows:           base.Zero(),
		CashFlow:           base.Zero(),
		TotalGrowth:        base.Zero(),
		GainLoss:           base.Zero(),
		SecuritiesGainLoss: base.Zero(),
		CurrenciesGainLoss: base.Zero(),
		SavingsRate:        math.NaN(),
	}
	if len(buckets) == 0 {
		return avg
	}
	for _, s := range buckets {
		avg.Incomes = avg.Incomes.Add(s.Incomes)
		avg.InwardTransfers = avg.InwardTransfers.Add(s.InwardTransfers)
		avg.Refunds = avg.Refunds.Add(s.Refunds)
		avg.InitialBalances = avg.InitialBalances.Add(s.InitialBalances)
		avg.Expenses = avg.Expenses.Add(s.Expenses)
		avg.OutwardTransfers = avg.OutwardTransfers.Add(s.OutwardTransfers)
		avg.Inflows = avg.Inflows.Add(s.Inflows)
		avg.Outflows = avg.Outflows.Add(s.Outflows)
		avg.CashFlow = avg.CashFlow.Add(s.CashFlow)
		avg.TotalGrowth = avg.TotalGrowth.Add(s.TotalGrowth)
		avg.GainLoss = avg.GainLoss.Add(s.GainLoss)
		avg.SecuritiesGainLoss = avg.SecuritiesGainLoss.Add(s.SecuritiesGainLoss)
		avg.CurrenciesGainLoss = avg.CurrenciesGainLoss.Add(s.CurrenciesGainLoss)
		avg.Incomplete = avg.Incomplete || s.Incomplete
	}
	n := int64(len(buckets))
	divide := func(m Money) Money { return m.Div(decimal.NewFromInt(n)) }
	avg.Incomes = divide(avg.Incomes)
	avg.InwardTransfers = divide(avg.InwardTransfers)
	avg.Refunds = divide(avg.Refunds)
	avg.InitialBalances = divide(avg.InitialBalances)
	avg.Expenses = divide(avg.Expenses)
	avg.OutwardTransfers = divide(avg.OutwardTransfers)
	avg.Inflows = divide(avg.Inflows)
	avg.Outflows = divide(avg.Outflows)
	avg.CashFlow = divide(avg.CashFlow)
	avg.TotalGrowth = divide(avg.TotalGrowth)
	avg.GainLoss = divide(avg.GainLoss)
	avg.SecuritiesGainLoss = divide(avg.SecuritiesGainLoss)
	avg.CurrenciesGainLoss = divide(avg.CurrenciesGainLoss)
	return avg
}
