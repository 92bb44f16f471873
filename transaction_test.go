package kapytal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashTransactionAmountIsSumOfSplits(t *testing.T) {
	l := newTestLedger(t)
	account := mustCashAccount(t, l, "Bank/Checking")
	payee, _ := l.PayeeByName("Acme")
	groceries, _ := l.CategoryByPath("Food/Groceries")
	food, _ := l.CategoryByPath("Food")

	tx, err := l.AddCashTransaction(CashTransactionParams{
		Date:    at("2024-01-05"),
		Type:    CashExpense,
		Account: account.ID(),
		Payee:   payee.ID(),
		CategoryAmounts: []CategoryAmount{
			{Category: groceries.ID(), Amount: M("12.30", account.Currency())},
			{Category: food.ID(), Amount: M("7.70", account.Currency())},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "20.00 EUR", tx.Amount().String())
}

func TestCashTransactionValidation(t *testing.T) {
	l := newTestLedger(t)
	account := mustCashAccount(t, l, "Bank/Checking")
	usdAccount := mustCashAccount(t, l, "Bank/Dollar")
	payee, _ := l.PayeeByName("Acme")
	salary, _ := l.CategoryByPath("Salary")
	groceries, _ := l.CategoryByPath("Food/Groceries")

	split := func(c *Category, amount string) []CategoryAmount {
		return []CategoryAmount{{Category: c.ID(), Amount: M(amount, account.Currency())}}
	}
	base := CashTransactionParams{
		Date:    at("2024-01-05"),
		Type:    CashExpense,
		Account: account.ID(),
		Payee:   payee.ID(),
	}

	tests := []struct {
		name   string
		mutate func(p *CashTransactionParams)
	}{
		{"income category on expense", func(p *CashTransactionParams) {
			p.CategoryAmounts = split(salary, "10.00")
		}},
		{"no splits", func(p *CashTransactionParams) {
			p.CategoryAmounts = nil
		}},
		{"negative split", func(p *CashTransactionParams) {
			p.CategoryAmounts = split(groceries, "-5.00")
		}},
		{"unrounded split", func(p *CashTransactionParams) {
			p.CategoryAmounts = split(groceries, "1.005")
		}},
		{"wrong split currency", func(p *CashTransactionParams) {
			p.CategoryAmounts = []CategoryAmount{
				{Category: groceries.ID(), Amount: M("5.00", usdAccount.Currency())},
			}
		}},
		{"unknown payee", func(p *CashTransactionParams) {
			p.CategoryAmounts = split(groceries, "5.00")
			p.Payee = account.ID() // not a payee UUID
		}},
		{"zero date", func(p *CashTransactionParams) {
			p.CategoryAmounts = split(groceries, "5.00")
			p.Date = time.Time{}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			before := l.Revision()
			_, err := l.AddCashTransaction(p)
			assert.Error(t, err)
			assert.Equal(t, before, l.Revision(), "failed mutation must not change the ledger")
		})
	}
}

func TestTagAmountValidation(t *testing.T) {
	l := newTestLedger(t)
	account := mustCashAccount(t, l, "Bank/Checking")
	payee, _ := l.PayeeByName("Acme")
	groceries, _ := l.CategoryByPath("Food/Groceries")
	tag, _ := l.TagByName("holiday")

	params := func(tagAmounts []TagAmount) CashTransactionParams {
		return CashTransactionParams{
			Date:    at("2024-01-05"),
			Type:    CashExpense,
			Account: account.ID(),
			Payee:   payee.ID(),
			CategoryAmounts: []CategoryAmount{
				{Category: groceries.ID(), Amount: M("20.00", account.Currency())},
			},
			TagAmounts: tagAmounts,
		}
	}

	// Tag without an explicit amount covers the full transaction amount.
	tx, err := l.AddCashTransaction(params([]TagAmount{{Tag: tag.ID()}}))
	require.NoError(t, err)
	got := effectiveTagAmount(tx.TagAmounts()[0], tx.Amount())
	assert.Equal(t, "20.00 EUR", got.String())

	// Partial split within (0, amount] is fine.
	_, err = l.AddCashTransaction(params([]TagAmount{{Tag: tag.ID(), Amount: M("5.00", account.Currency())}}))
	require.NoError(t, err)

	// Over the full amount, zero, and duplicates fail.
	_, err = l.AddCashTransaction(params([]TagAmount{{Tag: tag.ID(), Amount: M("20.01", account.Currency())}}))
	assert.Error(t, err)
	_, err = l.AddCashTransaction(params([]TagAmount{{Tag: tag.ID(), Amount: M("0", account.Currency())}}))
	assert.Error(t, err)
	_, err = l.AddCashTransaction(params([]TagAmount{{Tag: tag.ID()}, {Tag: tag.ID()}}))
	assert.Error(t, err)
}

func TestCashTransferValidation(t *testing.T) {
	l := newTestLedger(t)
	eurAccount := mustCashAccount(t, l, "Bank/Checking")
	usdAccount := mustCashAccount(t, l, "Bank/Dollar")

	params := CashTransferParams{
		Date:           at("2024-02-01"),
		Sender:         eurAccount.ID(),
		Recipient:      usdAccount.ID(),
		AmountSent:     M("100.00", eurAccount.Currency()),
		AmountReceived: M("108.00", usdAccount.Currency()),
	}
	_, err := l.AddCashTransfer(params)
	require.NoError(t, err)

	bad := params
	bad.Recipient = eurAccount.ID()
	_, err = l.AddCashTransfer(bad)
	assert.Error(t, err, "sender and recipient must differ")

	bad = params
	bad.AmountSent = M("100.00", usdAccount.Currency())
	_, err = l.AddCashTransfer(bad)
	assert.Error(t, err, "sent amount must be in the sender's currency")

	bad = params
	bad.AmountReceived = M("-1.00", usdAccount.Currency())
	_, err = l.AddCashTransfer(bad)
	assert.Error(t, err)
}

func TestSecurityTransactionValidation(t *testing.T) {
	l := newTestLedger(t)
	usdAccount := mustCashAccount(t, l, "Bank/Dollar")
	broker, err := l.SecurityAccountByPath("Broker")
	require.NoError(t, err)
	s, err := l.AddSecurity("World ETF", "WRLD", "USD", 2)
	require.NoError(t, err)

	params := SecurityTransactionParams{
		Date:            at("2024-03-01"),
		Type:            SecurityBuy,
		Security:        s.ID(),
		Shares:          dec("10"),
		AmountPerShare:  M("50.00", usdAccount.Currency()),
		CashAccount:     usdAccount.ID(),
		SecurityAccount: broker.ID(),
	}
	tx, err := l.AddSecurityTransaction(params)
	require.NoError(t, err)
	assert.Equal(t, "500.00 USD", tx.Amount().String())

	bad := params
	bad.Shares = dec("-1")
	_, err = l.AddSecurityTransaction(bad)
	assert.Error(t, err)

	bad = params
	bad.Shares = dec("1.005") // finer than the security's share precision
	_, err = l.AddSecurityTransaction(bad)
	assert.Error(t, err)

	bad = params
	eurAccount := mustCashAccount(t, l, "Bank/Checking")
	bad.CashAccount = eurAccount.ID()
	_, err = l.AddSecurityTransaction(bad)
	assert.Error(t, err, "cash account currency must match the security's currency")
}

func TestTransactionTotalOrder(t *testing.T) {
	l := newTestLedger(t)
	first := income(t, l, "2024-01-02", "1.00")
	second := expense(t, l, "2024-01-01", "1.00")
	third := expense(t, l, "2024-01-02", "2.00")

	got := l.Transactions()
	require.Len(t, got, 3)
	assert.Equal(t, second.ID(), got[0].ID(), "earlier date first")
	// Same date-time: creation order breaks the tie.
	assert.Equal(t, first.ID(), got[1].ID())
	assert.Equal(t, third.ID(), got[2].ID())
}
