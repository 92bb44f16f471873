package kapytal

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FilterMode decides what a filter stage does with matching transactions.
type FilterMode int

const (
	FilterOff     FilterMode = iota // pass everything through
	FilterKeep                      // retain only matching transactions
	FilterDiscard                   // remove matching transactions
)

func (m FilterMode) String() string {
	switch m {
	case FilterOff:
		return "off"
	case FilterKeep:
		return "keep"
	case FilterDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

// filterStage is one predicate in the chain. match is only consulted when the
// stage's mode is Keep or Discard.
type filterStage interface {
	mode() FilterMode
	match(l *Ledger, tx Transaction) bool
}

// TypeFilter matches transactions of the listed kinds.
type TypeFilter struct {
	Mode  FilterMode
	Kinds []TransactionKind
}

func (f TypeFilter) mode() FilterMode { return f.Mode }

func (f TypeFilter) match(_ *Ledger, tx Transaction) bool {
	for _, k := range f.Kinds {
		if tx.Kind() == k {
			return true
		}
	}
	return false
}

// DateFilter matches transactions whose date falls inside the range,
// inclusive on both ends.
type DateFilter struct {
	Mode  FilterMode
	Range Range
}

func (f DateFilter) mode() FilterMode { return f.Mode }

func (f DateFilter) match(_ *Ledger, tx Transaction) bool {
	return f.Range.Contains(DateOf(tx.When()))
}

// DescriptionFilter matches transactions whose description contains the
// pattern, case-insensitively.
type DescriptionFilter struct {
	Mode    FilterMode
	Pattern string
}

func (f DescriptionFilter) mode() FilterMode { return f.Mode }

func (f DescriptionFilter) match(_ *Ledger, tx Transaction) bool {
	return strings.Contains(strings.ToLower(tx.Description()), strings.ToLower(f.Pattern))
}

// AccountFilter matches transactions involving any of the listed account
// items; a group stands for every account in its subtree. It plays a second
// role for net-worth style reports: its account set is also the set of
// account items the report values.
type AccountFilter struct {
	Mode     FilterMode
	Accounts []uuid.UUID
}

func (f AccountFilter) mode() FilterMode { return f.Mode }

func (f AccountFilter) match(l *Ledger, tx Transaction) bool {
	leaves := f.leafSet(l)
	for _, involved := range tx.involvedAccounts() {
		if leaves[involved] {
			return true
		}
	}
	return false
}

// leafSet closes the stage's account set over group subtrees and returns the
// leaf accounts covered. Unknown UUIDs are dropped.
func (f AccountFilter) leafSet(l *Ledger) map[uuid.UUID]bool {
	closed := make(map[uuid.UUID]bool)
	for _, id := range f.Accounts {
		l.accountSubtree(id, closed)
	}
	for id := range closed {
		if l.accounts[id].Type() == AccountGroupItem {
			delete(closed, id)
		}
	}
	return closed
}

func (f AccountFilter) contains(id uuid.UUID) bool {
	for _, a := range f.Accounts {
		if a == id {
			return true
		}
	}
	return false
}

// TagFilter matches transactions carrying any of the listed tags.
type TagFilter struct {
	Mode FilterMode
	Tags []uuid.UUID
}

func (f TagFilter) mode() FilterMode { return f.Mode }

func (f TagFilter) match(_ *Ledger, tx Transaction) bool {
	for _, id := range f.Tags {
		if tx.base().hasTag(id) {
			return true
		}
	}
	return false
}

// TaglessFilter matches transactions carrying no tags at all.
type TaglessFilter struct {
	Mode FilterMode
}

func (f TaglessFilter) mode() FilterMode { return f.Mode }

func (f TaglessFilter) match(_ *Ledger, tx Transaction) bool {
	return len(tx.base().tags) == 0
}

// SplitTagFilter matches transactions with at least one tag whose amount is a
// partial split rather than the full transaction amount.
type SplitTagFilter struct {
	Mode FilterMode
}

func (f SplitTagFilter) mode() FilterMode { return f.Mode }

func (f SplitTagFilter) match(_ *Ledger, tx Transaction) bool {
	for _, ta := range tx.base().tags {
		if ta.Amount.Currency() != nil {
			return true
		}
	}
	return false
}

// CategoryFilter matches cash transactions and refunds referencing any of
// the listed categories.
type CategoryFilter struct {
	Mode       FilterMode
	Categories []uuid.UUID
}

func (f CategoryFilter) mode() FilterMode { return f.Mode }

func (f CategoryFilter) match(_ *Ledger, tx Transaction) bool {
	for _, ca := range transactionCategoryAmounts(tx) {
		for _, id := range f.Categories {
			if ca.Category == id {
				return true
			}
		}
	}
	return false
}

// SplitCategoryFilter matches cash transactions and refunds split across more
// than one category.
type SplitCategoryFilter struct {
	Mode FilterMode
}

func (f SplitCategoryFilter) mode() FilterMode { return f.Mode }

func (f SplitCategoryFilter) match(_ *Ledger, tx Transaction) bool {
	return len(transactionCategoryAmounts(tx)) > 1
}

// PayeeFilter matches cash transactions and refunds with any of the listed
// payees.
type PayeeFilter struct {
	Mode   FilterMode
	Payees []uuid.UUID
}

func (f PayeeFilter) mode() FilterMode { return f.Mode }

func (f PayeeFilter) match(_ *Ledger, tx Transaction) bool {
	var payee uuid.UUID
	switch t := tx.(type) {
	case *CashTransaction:
		payee = t.payee
	case *RefundTransaction:
		payee = t.payee
	default:
		return false
	}
	for _, id := range f.Payees {
		if payee == id {
			return true
		}
	}
	return false
}

// CurrencyFilter matches transactions touching any of the listed currency
// codes, through a cash delta or a security's native currency.
type CurrencyFilter struct {
	Mode  FilterMode
	Codes []string
}

func (f CurrencyFilter) mode() FilterMode { return f.Mode }

func (f CurrencyFilter) match(l *Ledger, tx Transaction) bool {
	codes := make(map[string]bool, 2)
	for _, effect := range tx.balanceEffects() {
		if cur := effect.Delta.Currency(); cur != nil {
			codes[cur.code] = true
		}
	}
	if se, ok := tx.(shareEffector); ok {
		for _, effect := range se.shareEffects() {
			if s, err := l.security(effect.Security); err == nil {
				codes[s.cur.code] = true
			}
		}
	}
	for _, code := range f.Codes {
		if codes[code] {
			return true
		}
	}
	return false
}

// AmountFilter matches transactions with a cash delta in the filter's
// currency whose magnitude lies within [Min, Max].
type AmountFilter struct {
	Mode     FilterMode
	Currency *Currency
	Min      decimal.Decimal
	Max      decimal.Decimal
}

func (f AmountFilter) mode() FilterMode { return f.Mode }

func (f AmountFilter) match(_ *Ledger, tx Transaction) bool {
	for _, effect := range tx.balanceEffects() {
		if effect.Delta.Currency() != f.Currency {
			continue
		}
		magnitude := effect.Delta.Decimal().Abs()
		if magnitude.GreaterThanOrEqual(f.Min) && magnitude.LessThanOrEqual(f.Max) {
			return true
		}
	}
	return false
}

// SecurityFilter matches transactions referencing any of the listed
// securities.
type SecurityFilter struct {
	Mode       FilterMode
	Securities []uuid.UUID
}

func (f SecurityFilter) mode() FilterMode { return f.Mode }

func (f SecurityFilter) match(_ *Ledger, tx Transaction) bool {
	var security uuid.UUID
	switch t := tx.(type) {
	case *SecurityTransaction:
		security = t.security
	case *SecurityTransfer:
		security = t.security
	default:
		return false
	}
	for _, id := range f.Securities {
		if security == id {
			return true
		}
	}
	return false
}

// UUIDFilter matches the transactions with the listed UUIDs.
type UUIDFilter struct {
	Mode FilterMode
	IDs  []uuid.UUID
}

func (f UUIDFilter) mode() FilterMode { return f.Mode }

func (f UUIDFilter) match(_ *Ledger, tx Transaction) bool {
	for _, id := range f.IDs {
		if tx.ID() == id {
			return true
		}
	}
	return false
}

// Filter is an ordered chain of predicate stages. Stages run left to right:
// Off passes everything through, Keep retains only matches, Discard removes
// matches. The result is the intersection of all Keep constraints minus the
// union of all Discard constraints. Filtering is pure: the same filter over
// an unchanged ledger always yields the same output.
type Filter struct {
	Type          TypeFilter
	Date          DateFilter
	Description   DescriptionFilter
	Account       AccountFilter
	Tag           TagFilter
	Tagless       TaglessFilter
	SplitTag      SplitTagFilter
	Category      CategoryFilter
	SplitCategory SplitCategoryFilter
	Payee         PayeeFilter
	Currency      CurrencyFilter
	Amount        AmountFilter
	Security      SecurityFilter
	UUID          UUIDFilter
}

func (f *Filter) stages() []filterStage {
	return []filterStage{
		f.Type, f.Date, f.Description, f.Account, f.Tag, f.Tagless, f.SplitTag,
		f.Category, f.SplitCategory, f.Payee, f.Currency, f.Amount, f.Security, f.UUID,
	}
}

// Apply runs the filter chain over the given transactions, preserving their
// order.
func (f *Filter) Apply(l *Ledger, txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	out = append(out, txs...)
	for _, stage := range f.stages() {
		switch stage.mode() {
		case FilterOff:
			continue
		case FilterKeep:
			kept := out[:0]
			for _, tx := range out {
				if stage.match(l, tx) {
					kept = append(kept, tx)
				}
			}
			out = kept
		case FilterDiscard:
			kept := out[:0]
			for _, tx := range out {
				if !stage.match(l, tx) {
					kept = append(kept, tx)
				}
			}
			out = kept
		}
	}
	return out
}

// SelectedAccountItems returns the account items a net-worth style report
// should value under this filter: the account stage's set when it is in Keep
// mode, everything outside the set's subtrees in Discard mode, and every
// account item otherwise.
func (f *Filter) SelectedAccountItems(l *Ledger) []AccountItem {
	all := l.AccountItems()
	switch f.Account.Mode {
	case FilterKeep:
		var out []AccountItem
		for _, item := range all {
			if f.Account.contains(item.ID()) {
				out = append(out, item)
			}
		}
		return out
	case FilterDiscard:
		discarded := make(map[uuid.UUID]bool)
		for _, id := range f.Account.Accounts {
			l.accountSubtree(id, discarded)
		}
		var out []AccountItem
		for _, item := range all {
			if !discarded[item.ID()] {
				out = append(out, item)
			}
		}
		return out
	default:
		return all
	}
}

// selectedAccountSet returns the UUID set of the accounts (leaves only) a
// cash-flow report treats as "inside": transfers crossing this boundary
// count as inward or outward flows. Groups stand for their subtrees on both
// sides of the boundary.
func (f *Filter) selectedAccountSet(l *Ledger) map[uuid.UUID]bool {
	switch f.Account.Mode {
	case FilterKeep:
		return f.Account.leafSet(l)
	default:
		set := make(map[uuid.UUID]bool)
		for _, item := range f.SelectedAccountItems(l) {
			if item.Type() != AccountGroupItem {
				set[item.ID()] = true
			}
		}
		return set
	}
}
