package kapytal

import (
	"strings"

	"github.com/google/uuid"
)

// NetWorthRow values one account item at the report date.
type NetWorthRow struct {
	Path  string
	Type  AccountItemType
	Depth int

	// Native is the balance in the account's own currency; only cash
	// accounts have one.
	Native Money

	// Value is the item's worth in the report currency. Available is false
	// when a required exchange rate or price was missing; Value is then
	// meaningless and must not be read as zero.
	Value     Money
	Available bool
}

// NetWorthReport is the valuation of a set of account items at one date,
// converted to a single currency.
type NetWorthReport struct {
	Date     Date
	Currency *Currency
	Rows     []NetWorthRow

	// Total sums the leaf rows that were available. Complete reports
	// whether every row contributed.
	Total    Money
	Complete bool
}

// NetWorth values the filter's selected account items at the given date in
// the base currency. Selecting a group selects its whole subtree. Cash
// accounts are converted at the report date; security accounts price each
// holding at its latest price on or before the date, then convert from the
// security's currency.
func (l *Ledger) NetWorth(f *Filter, asOf Date) (*NetWorthReport, error) {
	base := l.baseCurrency
	if base == nil {
		return nil, newValidationError("no base currency is set")
	}
	report := &NetWorthReport{
		Date:     asOf,
		Currency: base,
		Total:    base.Zero(),
		Complete: true,
	}

	// Close the selection over descendants: a selected group brings its
	// whole subtree into the report.
	selected := make(map[uuid.UUID]bool)
	for _, item := range f.SelectedAccountItems(l) {
		l.accountSubtree(item.ID(), selected)
	}

	for _, item := range l.AccountItems() {
		if !selected[item.ID()] {
			continue
		}
		row := NetWorthRow{
			Path:  l.AccountItemPath(item.ID()),
			Type:  item.Type(),
			Depth: strings.Count(l.AccountItemPath(item.ID()), PathSeparator),
		}
		if a, ok := item.(*CashAccount); ok {
			native, err := l.CashBalance(a.id, asOf)
			if err != nil {
				return nil, err
			}
			row.Native = native
		}
		value, err := l.ItemValue(item, asOf, base)
		switch {
		case err == nil:
			row.Value = value
			row.Available = true
		case isMissingMarketData(err):
			report.Complete = false
		default:
			return nil, err
		}
		report.Rows = append(report.Rows, row)

		if item.Type() != AccountGroupItem && row.Available {
			report.Total = report.Total.Add(row.Value)
		}
	}
	return report, nil
}
