package kapytal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterFixture(t *testing.T) (*Ledger, []Transaction) {
	t.Helper()
	l := newTestLedger(t)
	income(t, l, "2024-01-01", "1000.00")
	expense(t, l, "2024-01-05", "100.00")
	expense(t, l, "2024-02-10", "50.00")

	eurAccount := mustCashAccount(t, l, "Bank/Checking")
	usdAccount := mustCashAccount(t, l, "Bank/Dollar")
	_, err := l.AddCashTransfer(CashTransferParams{
		Date:           at("2024-03-01"),
		Description:    "moving dollars",
		Sender:         eurAccount.ID(),
		Recipient:      usdAccount.ID(),
		AmountSent:     M("10.00", eurAccount.Currency()),
		AmountReceived: M("11.00", usdAccount.Currency()),
	})
	require.NoError(t, err)
	return l, l.Transactions()
}

func txIDs(txs []Transaction) []uuid.UUID {
	out := make([]uuid.UUID, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID()
	}
	return out
}

func TestFilterAllOffPassesEverything(t *testing.T) {
	l, txs := filterFixture(t)
	var f Filter
	got := f.Apply(l, txs)
	assert.Equal(t, txIDs(txs), txIDs(got))
}

func TestFilterDeterminism(t *testing.T) {
	l, txs := filterFixture(t)
	f := Filter{
		Type: TypeFilter{Mode: FilterKeep, Kinds: []TransactionKind{KindExpense, KindIncome}},
		Date: DateFilter{Mode: FilterKeep, Range: Range{From: MustParseDate("2024-01-01"), To: MustParseDate("2024-01-31")}},
	}
	first := f.Apply(l, txs)
	second := f.Apply(l, txs)
	assert.Equal(t, txIDs(first), txIDs(second))
	assert.Len(t, first, 2, "income and January expense")
}

func TestFilterKeepThenDiscardSameCriterion(t *testing.T) {
	l, txs := filterFixture(t)
	criterion := Range{From: MustParseDate("2024-01-01"), To: MustParseDate("2024-12-31")}
	f := Filter{
		Date: DateFilter{Mode: FilterKeep, Range: criterion},
		UUID: UUIDFilter{Mode: FilterDiscard, IDs: txIDs(txs)},
	}
	assert.Empty(t, f.Apply(l, txs))
}

func TestFilterStages(t *testing.T) {
	l, txs := filterFixture(t)
	eurAccount := mustCashAccount(t, l, "Bank/Checking")
	usdAccount := mustCashAccount(t, l, "Bank/Dollar")
	groceries, _ := l.CategoryByPath("Food/Groceries")
	payee, _ := l.PayeeByName("Acme")
	bank, err := l.AccountItemByPath("Bank")
	require.NoError(t, err)

	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"keep transfers", Filter{Type: TypeFilter{Mode: FilterKeep, Kinds: []TransactionKind{KindCashTransfer}}}, 1},
		{"discard transfers", Filter{Type: TypeFilter{Mode: FilterDiscard, Kinds: []TransactionKind{KindCashTransfer}}}, 3},
		{"description substring, case-insensitive", Filter{Description: DescriptionFilter{Mode: FilterKeep, Pattern: "MOVING"}}, 1},
		{"usd account", Filter{Account: AccountFilter{Mode: FilterKeep, Accounts: []uuid.UUID{usdAccount.ID()}}}, 1},
		{"eur account", Filter{Account: AccountFilter{Mode: FilterKeep, Accounts: []uuid.UUID{eurAccount.ID()}}}, 4},
		{"bank group expands to its accounts", Filter{Account: AccountFilter{Mode: FilterKeep, Accounts: []uuid.UUID{bank.ID()}}}, 4},
		{"discard bank group", Filter{Account: AccountFilter{Mode: FilterDiscard, Accounts: []uuid.UUID{bank.ID()}}}, 0},
		{"groceries category", Filter{Category: CategoryFilter{Mode: FilterKeep, Categories: []uuid.UUID{groceries.ID()}}}, 2},
		{"payee", Filter{Payee: PayeeFilter{Mode: FilterKeep, Payees: []uuid.UUID{payee.ID()}}}, 3},
		{"usd currency", Filter{Currency: CurrencyFilter{Mode: FilterKeep, Codes: []string{"USD"}}}, 1},
		{"tagless", Filter{Tagless: TaglessFilter{Mode: FilterKeep}}, 4},
		{"amount 40..60 EUR", Filter{Amount: AmountFilter{Mode: FilterKeep, Currency: eurAccount.Currency(), Min: dec("40"), Max: dec("60")}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.f.Apply(l, txs), tt.want)
		})
	}
}

func TestFilterTagStages(t *testing.T) {
	l, _ := filterFixture(t)
	tag, _ := l.TagByName("holiday")
	txs := l.Transactions()

	// Tag the income with a partial split, the first expense fully.
	eurAccount := mustCashAccount(t, l, "Bank/Checking")
	incomeTx := txs[0].(*CashTransaction)
	incomeTx.tags = []TagAmount{{Tag: tag.ID(), Amount: M("100.00", eurAccount.Currency())}}
	expenseTx := txs[1].(*CashTransaction)
	expenseTx.tags = []TagAmount{{Tag: tag.ID()}}

	tagged := Filter{Tag: TagFilter{Mode: FilterKeep, Tags: []uuid.UUID{tag.ID()}}}
	assert.Len(t, tagged.Apply(l, txs), 2)

	split := Filter{SplitTag: SplitTagFilter{Mode: FilterKeep}}
	assert.Len(t, split.Apply(l, txs), 1)

	tagless := Filter{Tagless: TaglessFilter{Mode: FilterKeep}}
	assert.Len(t, tagless.Apply(l, txs), 2)
}

func TestSelectedAccountItems(t *testing.T) {
	l, _ := filterFixture(t)
	eurAccount := mustCashAccount(t, l, "Bank/Checking")

	var all Filter
	assert.Len(t, all.SelectedAccountItems(l), len(l.AccountItems()))

	keep := Filter{Account: AccountFilter{Mode: FilterKeep, Accounts: []uuid.UUID{eurAccount.ID()}}}
	items := keep.SelectedAccountItems(l)
	require.Len(t, items, 1)
	assert.Equal(t, eurAccount.ID(), items[0].ID())

	discard := Filter{Account: AccountFilter{Mode: FilterDiscard, Accounts: []uuid.UUID{eurAccount.ID()}}}
	assert.Len(t, discard.SelectedAccountItems(l), len(l.AccountItems())-1)

	// Discarding a group discards its whole subtree; only the Broker stays.
	bank, err := l.AccountItemByPath("Bank")
	require.NoError(t, err)
	discardGroup := Filter{Account: AccountFilter{Mode: FilterDiscard, Accounts: []uuid.UUID{bank.ID()}}}
	items = discardGroup.SelectedAccountItems(l)
	require.Len(t, items, 1)
	assert.Equal(t, "Broker", l.AccountItemPath(items[0].ID()))
}
