package kapytal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// newTestLedger builds the fixture most tests share: EUR base with USD and
// CZK, a small account tree, categories of both kinds, a payee and a tag.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger()
	mustAddCurrency(t, l, "EUR", 2)
	mustAddCurrency(t, l, "USD", 2)
	mustAddCurrency(t, l, "CZK", 2)

	if _, err := l.AddAccountGroup("Bank"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddCashAccount("Bank/Checking", "EUR"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddCashAccount("Bank/Dollar", "USD"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddSecurityAccount("Broker"); err != nil {
		t.Fatal(err)
	}

	if _, err := l.AddCategory("Salary", IncomeCategory); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddCategory("Food", ExpenseCategory); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddCategory("Food/Groceries", ExpenseCategory); err != nil {
		t.Fatal(err)
	}

	if _, err := l.AddPayee("Acme"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddTag("holiday"); err != nil {
		t.Fatal(err)
	}
	return l
}

func mustAddCurrency(t *testing.T, l *Ledger, code string, places int) *Currency {
	t.Helper()
	cur, err := l.AddCurrency(code, places)
	if err != nil {
		t.Fatalf("AddCurrency(%s): %v", code, err)
	}
	return cur
}

// at builds a transaction timestamp at noon UTC of the given day.
func at(day string) time.Time {
	d := MustParseDate(day)
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// income posts a salary income to Bank/Checking and fails the test on error.
func income(t *testing.T, l *Ledger, day, amount string) *CashTransaction {
	t.Helper()
	account := mustCashAccount(t, l, "Bank/Checking")
	payee, _ := l.PayeeByName("Acme")
	category, _ := l.CategoryByPath("Salary")
	tx, err := l.AddCashTransaction(CashTransactionParams{
		Date:    at(day),
		Type:    CashIncome,
		Account: account.ID(),
		Payee:   payee.ID(),
		CategoryAmounts: []CategoryAmount{
			{Category: category.ID(), Amount: M(amount, account.Currency())},
		},
	})
	if err != nil {
		t.Fatalf("income %s on %s: %v", amount, day, err)
	}
	return tx
}

// expense posts a groceries expense to Bank/Checking.
func expense(t *testing.T, l *Ledger, day, amount string) *CashTransaction {
	t.Helper()
	account := mustCashAccount(t, l, "Bank/Checking")
	payee, _ := l.PayeeByName("Acme")
	category, _ := l.CategoryByPath("Food/Groceries")
	tx, err := l.AddCashTransaction(CashTransactionParams{
		Date:    at(day),
		Type:    CashExpense,
		Account: account.ID(),
		Payee:   payee.ID(),
		CategoryAmounts: []CategoryAmount{
			{Category: category.ID(), Amount: M(amount, account.Currency())},
		},
	})
	if err != nil {
		t.Fatalf("expense %s on %s: %v", amount, day, err)
	}
	return tx
}

func mustCashAccount(t *testing.T, l *Ledger, path string) *CashAccount {
	t.Helper()
	account, err := l.CashAccountByPath(path)
	if err != nil {
		t.Fatalf("CashAccountByPath(%s): %v", path, err)
	}
	return account
}

func mustBalance(t *testing.T, l *Ledger, path, day string) Money {
	t.Helper()
	account := mustCashAccount(t, l, path)
	balance, err := l.CashBalance(account.ID(), MustParseDate(day))
	if err != nil {
		t.Fatalf("CashBalance(%s, %s): %v", path, day, err)
	}
	return balance
}
