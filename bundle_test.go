package kapytal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bundleFixture is reportsFixture plus a security position, a tagged income
// and a refund, so the record form exercises every transaction variant that
// has cross-references.
func bundleFixture(t *testing.T) *Ledger {
	t.Helper()
	l := reportsFixture(t)

	acme, err := l.AddSecurity("Acme Corp", "ACME", "USD", 0)
	require.NoError(t, err)
	require.NoError(t, l.SetSecurityPrice("Acme Corp", MustParseDate("2024-02-28"), dec("5.50")))

	dollar := mustCashAccount(t, l, "Bank/Dollar")
	broker, err := l.SecurityAccountByPath("Broker")
	require.NoError(t, err)
	_, err = l.AddSecurityTransaction(SecurityTransactionParams{
		Date:            at("2024-02-10"),
		Type:            SecurityBuy,
		Security:        acme.ID(),
		Shares:          dec("10"),
		AmountPerShare:  M("5.00", dollar.Currency()),
		CashAccount:     dollar.ID(),
		SecurityAccount: broker.ID(),
	})
	require.NoError(t, err)

	checking := mustCashAccount(t, l, "Bank/Checking")
	payee, _ := l.PayeeByName("Acme")
	groceries, _ := l.CategoryByPath("Food/Groceries")
	tag, _ := l.TagByName("holiday")

	target := expense(t, l, "2024-02-12", "80.00")
	_, err = l.AddRefund(RefundParams{
		Date:        at("2024-02-20"),
		Description: "partial return",
		Account:     checking.ID(),
		Target:      target.ID(),
		Payee:       payee.ID(),
		CategoryAmounts: []CategoryAmount{
			{Category: groceries.ID(), Amount: M("25.00", checking.Currency())},
		},
		TagAmounts: []TagAmount{{Tag: tag.ID(), Amount: M("10.00", checking.Currency())}},
	})
	require.NoError(t, err)
	return l
}

func TestBundleRoundTrip(t *testing.T) {
	l := bundleFixture(t)
	b := l.ToBundle()

	loaded, err := LoadBundle(b)
	require.NoError(t, err)

	// Serializing the loaded ledger must reproduce the record form exactly.
	assert.Equal(t, b, loaded.ToBundle())

	assert.Equal(t, mustBalance(t, l, "Bank/Checking", "2024-12-31").String(),
		mustBalance(t, loaded, "Bank/Checking", "2024-12-31").String())
	assert.Equal(t, mustBalance(t, l, "Bank/Dollar", "2024-12-31").String(),
		mustBalance(t, loaded, "Bank/Dollar", "2024-12-31").String())
	assert.Len(t, loaded.Transactions(), len(l.Transactions()))
}

func TestBundleJSONRoundTrip(t *testing.T) {
	l := bundleFixture(t)

	raw, err := json.Marshal(l.ToBundle())
	require.NoError(t, err)

	var b Bundle
	require.NoError(t, json.Unmarshal(raw, &b))

	loaded, err := LoadBundle(b)
	require.NoError(t, err)
	assert.Equal(t, b, loaded.ToBundle())

	report, err := loaded.NetWorth(&Filter{}, MustParseDate("2024-12-31"))
	require.NoError(t, err)
	assert.True(t, report.Complete)
}

func TestLoadBundleUnknownAccount(t *testing.T) {
	b := bundleFixture(t).ToBundle()
	for i, r := range b.Transactions {
		if r.Kind == "income" {
			b.Transactions[i].Account = "Bank/Missing"
			break
		}
	}
	_, err := LoadBundle(b)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Bank/Missing")
}

func TestLoadBundleDuplicateTransaction(t *testing.T) {
	b := bundleFixture(t).ToBundle()
	b.Transactions = append(b.Transactions, b.Transactions[0])
	_, err := LoadBundle(b)
	require.Error(t, err)
	assert.ErrorContains(t, err, "duplicate transaction id")
}

func TestLoadBundleRefundBeforeTarget(t *testing.T) {
	b := bundleFixture(t).ToBundle()
	var reordered []TransactionRecord
	for _, r := range b.Transactions {
		if r.Kind == "refund" {
			reordered = append([]TransactionRecord{r}, reordered...)
		} else {
			reordered = append(reordered, r)
		}
	}
	b.Transactions = reordered
	_, err := LoadBundle(b)
	require.Error(t, err, "a refund committed before its target has a dangling reference")
}

func TestLoadBundleRefundCeiling(t *testing.T) {
	b := bundleFixture(t).ToBundle()
	for i, r := range b.Transactions {
		if r.Kind == "refund" {
			b.Transactions[i].Categories = []SplitRecord{{Name: "Food/Groceries", Amount: "500"}}
			b.Transactions[i].Tags = nil
			break
		}
	}
	_, err := LoadBundle(b)
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
