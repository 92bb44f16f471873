package kapytal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeRateLatestOnOrBefore(t *testing.T) {
	l := newTestLedger(t)
	e, err := l.AddExchangeRate("EUR", "CZK")
	require.NoError(t, err)

	require.NoError(t, e.SetRate(MustParseDate("2024-01-10"), dec("25.0")))
	require.NoError(t, e.SetRate(MustParseDate("2024-01-20"), dec("25.5")))

	tests := []struct {
		day     string
		want    string
		wantErr bool
	}{
		{"2024-01-09", "", true}, // before first observation
		{"2024-01-10", "25", false},
		{"2024-01-15", "25", false},
		{"2024-01-20", "25.5", false},
		{"2024-06-01", "25.5", false},
	}
	for _, tt := range tests {
		rate, err := e.Rate(MustParseDate(tt.day))
		if tt.wantErr {
			if err == nil {
				t.Errorf("Rate(%s): want error, got %s", tt.day, rate)
			}
			continue
		}
		if err != nil {
			t.Errorf("Rate(%s): %v", tt.day, err)
			continue
		}
		if !rate.Equal(dec(tt.want)) {
			t.Errorf("Rate(%s) = %s, want %s", tt.day, rate, tt.want)
		}
	}
}

func TestExchangeRateUpsert(t *testing.T) {
	l := newTestLedger(t)
	e, err := l.AddExchangeRate("EUR", "CZK")
	require.NoError(t, err)
	day := MustParseDate("2024-01-10")

	require.NoError(t, e.SetRate(day, dec("25.0")))
	require.NoError(t, e.SetRate(day, dec("24.8"))) // overwrite same day
	rate, err := e.Rate(day)
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("24.8")))

	assert.Error(t, e.SetRate(day, dec("0")))
	assert.Error(t, e.SetRate(day, dec("-1")))
}

func TestAddExchangeRateRejectsDuplicatePair(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.AddExchangeRate("EUR", "CZK")
	require.NoError(t, err)
	_, err = l.AddExchangeRate("EUR", "CZK")
	assert.Error(t, err)
	_, err = l.AddExchangeRate("CZK", "EUR") // inverse orientation is the same pair
	assert.Error(t, err)
	_, err = l.AddExchangeRate("EUR", "EUR")
	assert.Error(t, err)
}

func TestConversionFactorReciprocal(t *testing.T) {
	l := newTestLedger(t)
	e, err := l.AddExchangeRate("EUR", "CZK")
	require.NoError(t, err)
	day := MustParseDate("2024-01-10")
	require.NoError(t, e.SetRate(day, dec("25.30")))

	eur, _ := l.Currency("EUR")
	czk, _ := l.Currency("CZK")

	forward, err := l.ConversionFactor(eur, czk, day)
	require.NoError(t, err)
	backward, err := l.ConversionFactor(czk, eur, day)
	require.NoError(t, err)

	product := forward.Mul(backward)
	diff := product.Sub(decimal.NewFromInt(1)).Abs()
	assert.True(t, diff.LessThan(dec("0.0000000001")), "product = %s", product)
}

func TestConversionFactorChained(t *testing.T) {
	l := newTestLedger(t)
	day := MustParseDate("2024-01-10")

	usdEur, err := l.AddExchangeRate("USD", "EUR")
	require.NoError(t, err)
	require.NoError(t, usdEur.SetRate(day, dec("0.9")))
	eurCzk, err := l.AddExchangeRate("EUR", "CZK")
	require.NoError(t, err)
	require.NoError(t, eurCzk.SetRate(day, dec("25")))

	usd, _ := l.Currency("USD")
	eur, _ := l.Currency("EUR")
	czk, _ := l.Currency("CZK")

	// No direct USD/CZK pair: resolution chains through EUR.
	factor, err := l.ConversionFactor(usd, czk, day)
	require.NoError(t, err)

	viaEur1, err := l.ConversionFactor(usd, eur, day)
	require.NoError(t, err)
	viaEur2, err := l.ConversionFactor(eur, czk, day)
	require.NoError(t, err)
	assert.True(t, factor.Equal(viaEur1.Mul(viaEur2)), "factor = %s", factor)
	assert.True(t, factor.Equal(dec("22.5")))
}

func TestConversionFactorIdentityAndMissing(t *testing.T) {
	l := newTestLedger(t)
	eur, _ := l.Currency("EUR")
	usd, _ := l.Currency("USD")
	day := MustParseDate("2024-01-10")

	one, err := l.ConversionFactor(eur, eur, day)
	require.NoError(t, err)
	assert.True(t, one.Equal(decimal.NewFromInt(1)))

	_, err = l.ConversionFactor(eur, usd, day)
	var nre *NoRateAvailableError
	require.ErrorAs(t, err, &nre)
	assert.True(t, isMissingMarketData(err))
}

func TestConvertMoney(t *testing.T) {
	l := newTestLedger(t)
	e, err := l.AddExchangeRate("EUR", "CZK")
	require.NoError(t, err)
	day := MustParseDate("2024-01-10")
	require.NoError(t, e.SetRate(day, dec("25")))

	czk, _ := l.Currency("CZK")
	eur, _ := l.Currency("EUR")
	got, err := l.Convert(M("10", eur), czk, day)
	require.NoError(t, err)
	assert.Equal(t, "250.00 CZK", got.Round().String())
}
