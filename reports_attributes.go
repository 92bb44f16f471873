package kapytal

import (
	"sort"

	"github.com/google/uuid"
)

// AttributeRow is one attribute's value per bucket in an attribute report.
type AttributeRow struct {
	Name    string // category path, tag name or payee name
	Amounts []Money
	Total   Money

	// Count is the number of distinct transactions that contributed.
	Count int
}

// AttributeReport buckets the value-bearing amounts of filtered transactions
// by one attribute (category, tag or payee). Incomes count positive,
// expenses negative and refunds positive, offsetting the refunded spending.
// Transfers are value-neutral and never appear.
type AttributeReport struct {
	Currency *Currency
	Period   Period
	Buckets  []Range
	Rows     []AttributeRow

	// Incomplete is set when a missing exchange rate forced contributions
	// to be skipped.
	Incomplete bool
}

type attributeContribution struct {
	key    string
	amount Money
	day    Date
	tx     uuid.UUID
}

// CategoryReport groups the filtered transactions' category splits by
// category path. A split on a child category also counts toward each of its
// ancestors, so parent rows show subtree totals.
func (l *Ledger) CategoryReport(f *Filter, period Period, from, to Date) (*AttributeReport, error) {
	return l.attributeReport(f, period, from, to, func(tx Transaction) []attributeContribution {
		var out []attributeContribution
		day := DateOf(tx.When())
		sign := 1
		var splits []CategoryAmount
		switch t := tx.(type) {
		case *CashTransaction:
			splits = t.categories
			if t.typ == CashExpense {
				sign = -1
			}
		case *RefundTransaction:
			splits = t.categories
		default:
			return nil
		}
		for _, ca := range splits {
			amount := ca.Amount
			if sign < 0 {
				amount = amount.Neg()
			}
			for id := ca.Category; id != uuid.Nil; id = l.categories[id].parent {
				out = append(out, attributeContribution{
					key:    l.CategoryPath(id),
					amount: amount,
					day:    day,
					tx:     tx.ID(),
				})
			}
		}
		return out
	})
}

// TagReport groups the filtered transactions' tag amounts by tag name. A tag
// without an explicit split amount counts the full transaction amount.
// Dividends are value-bearing here; transfers are not.
func (l *Ledger) TagReport(f *Filter, period Period, from, to Date) (*AttributeReport, error) {
	return l.attributeReport(f, period, from, to, func(tx Transaction) []attributeContribution {
		full, sign := valueBearingAmount(tx)
		if full.Currency() == nil {
			return nil
		}
		day := DateOf(tx.When())
		var out []attributeContribution
		for _, ta := range tx.base().tags {
			t, err := l.tag(ta.Tag)
			if err != nil {
				continue
			}
			amount := effectiveTagAmount(ta, full)
			if sign < 0 {
				amount = amount.Neg()
			}
			out = append(out, attributeContribution{key: t.name, amount: amount, day: day, tx: tx.ID()})
		}
		return out
	})
}

// PayeeReport groups the filtered cash transactions and refunds by payee.
func (l *Ledger) PayeeReport(f *Filter, period Period, from, to Date) (*AttributeReport, error) {
	return l.attributeReport(f, period, from, to, func(tx Transaction) []attributeContribution {
		var payeeID uuid.UUID
		var amount Money
		switch t := tx.(type) {
		case *CashTransaction:
			payeeID = t.payee
			amount = t.Amount()
			if t.typ == CashExpense {
				amount = amount.Neg()
			}
		case *RefundTransaction:
			payeeID = t.payee
			amount = t.Amount()
		default:
			return nil
		}
		p, err := l.payee(payeeID)
		if err != nil {
			return nil
		}
		return []attributeContribution{{key: p.name, amount: amount, day: DateOf(tx.When()), tx: tx.ID()}}
	})
}

// valueBearingAmount returns a transaction's signed value contribution for
// attribute reports: positive for incomes, refunds and dividends, negative
// for expenses, none for transfers and buys/sells.
func valueBearingAmount(tx Transaction) (Money, int) {
	switch t := tx.(type) {
	case *CashTransaction:
		if t.typ == CashExpense {
			return t.Amount(), -1
		}
		return t.Amount(), 1
	case *RefundTransaction:
		return t.Amount(), 1
	case *SecurityTransaction:
		if t.typ == SecurityDividend {
			return t.Amount(), 1
		}
	}
	return Money{}, 0
}

func (l *Ledger) attributeReport(f *Filter, period Period, from, to Date,
	contributions func(Transaction) []attributeContribution) (*AttributeReport, error) {

	base := l.baseCurrency
	if base == nil {
		return nil, newValidationError("no base currency is set")
	}
	report := &AttributeReport{
		Currency: base,
		Period:   period,
		Buckets:  period.RangesBetween(from, to),
	}

	type cell struct {
		amounts []Money
		total   Money
		txSeen  map[uuid.UUID]bool
	}
	cells := make(map[string]*cell)
	window := Range{From: from, To: to}

	for _, tx := range f.Apply(l, l.Transactions()) {
		for _, c := range contributions(tx) {
			if !window.Contains(c.day) {
				continue
			}
			converted, err := l.Convert(c.amount, base, c.day)
			if err != nil {
				report.Incomplete = true
				continue
			}
			row, ok := cells[c.key]
			if !ok {
				row = &cell{
					amounts: make([]Money, len(report.Buckets)),
					total:   base.Zero(),
					txSeen:  make(map[uuid.UUID]bool),
				}
				for i := range row.amounts {
					row.amounts[i] = base.Zero()
				}
				cells[c.key] = row
			}
			for i, bucket := range report.Buckets {
				if bucket.Contains(c.day) {
					row.amounts[i] = row.amounts[i].Add(converted)
					break
				}
			}
			row.total = row.total.Add(converted)
			row.txSeen[c.tx] = true
		}
	}

	keys := make([]string, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		row := cells[key]
		report.Rows = append(report.Rows, AttributeRow{
			Name:    key,
			Amounts: row.amounts,
			Total:   row.total,
			Count:   len(row.txSeen),
		})
	}
	return report, nil
}
