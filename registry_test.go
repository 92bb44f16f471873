package kapytal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstCurrencyBecomesBase(t *testing.T) {
	l := NewLedger()
	eur, err := l.AddCurrency("EUR", 2)
	require.NoError(t, err)
	assert.Same(t, eur, l.BaseCurrency())

	_, err = l.AddCurrency("USD", 2)
	require.NoError(t, err)
	assert.Same(t, eur, l.BaseCurrency(), "adding a second currency must not change the base")

	require.NoError(t, l.SetBaseCurrency("USD"))
	assert.Equal(t, "USD", l.BaseCurrency().Code())

	_, err = l.AddCurrency("EUR", 2)
	assert.Error(t, err, "duplicate code")
}

func TestRemoveCurrencyReferentialIntegrity(t *testing.T) {
	l := newTestLedger(t)

	err := l.RemoveCurrency("EUR")
	var rie *ReferentialIntegrityError
	require.ErrorAs(t, err, &rie, "EUR is used by Bank/Checking")

	// CZK is unused and removable.
	require.NoError(t, l.RemoveCurrency("CZK"))
	_, err = l.Currency("CZK")
	assert.Error(t, err)
}

func TestCategoryTree(t *testing.T) {
	l := newTestLedger(t)

	c, err := l.CategoryByPath("Food/Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Food/Groceries", l.CategoryPath(c.ID()))

	// Sibling names must be unique.
	_, err = l.AddCategory("Food/Groceries", ExpenseCategory)
	assert.Error(t, err)

	// A child's kind must match its parent's kind.
	_, err = l.AddCategory("Food/Bonus", IncomeCategory)
	assert.Error(t, err)

	// Parent must exist.
	_, err = l.AddCategory("Travel/Flights", ExpenseCategory)
	assert.Error(t, err)

	// Tree names must not contain the separator, flat rename is fine.
	require.NoError(t, l.RenameCategory("Food/Groceries", "Supermarket"))
	_, err = l.CategoryByPath("Food/Supermarket")
	assert.NoError(t, err)
	require.NoError(t, l.RenameCategory("Food/Supermarket", "Groceries"))
}

func TestGetOrMakeCategory(t *testing.T) {
	l := newTestLedger(t)

	c, err := l.GetOrMakeCategory("Travel/Flights/Luggage", ExpenseCategory)
	require.NoError(t, err)
	assert.Equal(t, "Travel/Flights/Luggage", l.CategoryPath(c.ID()))
	for _, path := range []string{"Travel", "Travel/Flights"} {
		if _, err := l.CategoryByPath(path); err != nil {
			t.Errorf("intermediate %q was not created: %v", path, err)
		}
	}

	// Existing category of the right kind is returned as-is.
	again, err := l.GetOrMakeCategory("Travel/Flights/Luggage", ExpenseCategory)
	require.NoError(t, err)
	assert.Same(t, c, again)

	// Kind conflict with an existing category fails.
	_, err = l.GetOrMakeCategory("Travel", IncomeCategory)
	assert.Error(t, err)
}

func TestMoveCategoryRejectsCycles(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddCategory("Food/Groceries/Snacks", ExpenseCategory)
	require.NoError(t, err)

	err = l.MoveCategory("Food", "Food/Groceries/Snacks")
	assert.Error(t, err, "moving a category under its own descendant must fail")
	err = l.MoveCategory("Food", "Food")
	assert.Error(t, err)

	// A legal move relocates the subtree.
	_, err = l.AddCategory("Household", ExpenseCategory)
	require.NoError(t, err)
	require.NoError(t, l.MoveCategory("Food/Groceries", "Household"))
	if _, err := l.CategoryByPath("Household/Groceries/Snacks"); err != nil {
		t.Errorf("subtree did not move: %v", err)
	}
}

func TestRemoveCategory(t *testing.T) {
	l := newTestLedger(t)

	err := l.RemoveCategory("Food")
	assert.Error(t, err, "category with children cannot be removed")

	expense(t, l, "2024-01-05", "10.00")
	err = l.RemoveCategory("Food/Groceries")
	var rie *ReferentialIntegrityError
	require.ErrorAs(t, err, &rie)

	// After the referencing transaction is gone, removal succeeds.
	for _, tx := range l.Transactions() {
		require.NoError(t, l.DeleteTransaction(tx.ID()))
	}
	require.NoError(t, l.RemoveCategory("Food/Groceries"))
	require.NoError(t, l.RemoveCategory("Food"))
}

func TestTagsAndPayees(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.AddTag("holiday")
	assert.Error(t, err, "duplicate tag name")
	_, err = l.AddTag("with:colon")
	assert.Error(t, err, "colon is reserved")
	_, err = l.AddPayee(" padded ")
	assert.Error(t, err)

	require.NoError(t, l.RenameTag("holiday", "vacation"))
	_, err = l.TagByName("vacation")
	assert.NoError(t, err)

	require.NoError(t, l.RemoveTag("vacation"))
	_, err = l.TagByName("vacation")
	assert.Error(t, err)
}

func TestRemoveReferencedPayeeAndAccount(t *testing.T) {
	l := newTestLedger(t)
	income(t, l, "2024-01-01", "100.00")

	var rie *ReferentialIntegrityError
	require.ErrorAs(t, l.RemovePayee("Acme"), &rie)
	require.ErrorAs(t, l.RemoveAccountItem("Bank/Checking"), &rie)
	assert.Error(t, l.RemoveAccountItem("Bank"), "non-empty group")

	for _, tx := range l.Transactions() {
		require.NoError(t, l.DeleteTransaction(tx.ID()))
	}
	require.NoError(t, l.RemovePayee("Acme"))
	require.NoError(t, l.RemoveAccountItem("Bank/Checking"))
}

func TestAccountTree(t *testing.T) {
	l := newTestLedger(t)

	// Sibling uniqueness.
	_, err := l.AddCashAccount("Bank/Checking", "EUR")
	assert.Error(t, err)

	// Leaves cannot have children.
	_, err = l.AddCashAccount("Bank/Checking/Sub", "EUR")
	assert.Error(t, err)

	// Cash account needs a registered currency.
	_, err = l.AddCashAccount("Bank/Pounds", "GBP")
	assert.Error(t, err)

	require.NoError(t, l.RenameAccountItem("Bank/Dollar", "USD Account"))
	item, err := l.AccountItemByPath("Bank/USD Account")
	require.NoError(t, err)
	assert.Equal(t, CashAccountItem, item.Type())

	// Move under a new group; cycle moves fail.
	_, err = l.AddAccountGroup("Archive")
	require.NoError(t, err)
	require.NoError(t, l.MoveAccountItem("Bank/USD Account", "Archive"))
	assert.Equal(t, "Archive/USD Account", l.AccountItemPath(item.ID()))
	assert.Error(t, l.MoveAccountItem("Bank", "Bank"))
	assert.Error(t, l.MoveAccountItem("Archive", "Archive/USD Account"))
}

func TestSecurityRegistry(t *testing.T) {
	l := newTestLedger(t)

	s, err := l.AddSecurity("World ETF", "WRLD", "USD", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.ShareDecimals())

	_, err = l.AddSecurity("World ETF", "W2", "USD", 0)
	assert.Error(t, err, "duplicate name")
	_, err = l.AddSecurity("Koruna Fund", "KF", "XXQ", 0)
	assert.Error(t, err, "unknown currency")

	require.NoError(t, l.RenameSecurity("World ETF", "Global ETF", "GLBL"))
	renamed, err := l.SecurityByName("Global ETF")
	require.NoError(t, err)
	assert.Same(t, s, renamed)
	assert.Equal(t, "GLBL", renamed.Symbol())

	require.NoError(t, l.RemoveSecurity("Global ETF"))
}
