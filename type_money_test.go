package kapytal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCurrency(t *testing.T) {
	tests := []struct {
		code    string
		places  int
		wantErr bool
	}{
		{"EUR", 2, false},
		{"eur", 2, false}, // normalized to upper case
		{"BTC", 8, false},
		{"EUR", -1, false}, // ISO fraction
		{"EU", 2, true},
		{"EURO", 2, true},
		{"E1R", 2, true},
		{"EUR", 19, true},
	}
	for _, tt := range tests {
		cur, err := NewCurrency(tt.code, tt.places)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewCurrency(%q, %d): want error, got %v", tt.code, tt.places, cur)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewCurrency(%q, %d): %v", tt.code, tt.places, err)
		}
	}
}

func TestCurrencyISOPlaces(t *testing.T) {
	eur, err := NewCurrency("EUR", -1)
	require.NoError(t, err)
	assert.Equal(t, 2, eur.Places())
	jpy, err := NewCurrency("JPY", -1)
	require.NoError(t, err)
	assert.Equal(t, 0, jpy.Places())
}

func TestMoneyArithmetic(t *testing.T) {
	eur, _ := NewCurrency("EUR", 2)
	a := M("10.50", eur)
	b := M("2.25", eur)

	assert.Equal(t, "12.75 EUR", a.Add(b).String())
	assert.Equal(t, "8.25 EUR", a.Sub(b).String())
	assert.Equal(t, "-10.50 EUR", a.Neg().String())
	assert.True(t, a.GreaterThan(b))
	assert.True(t, b.LessThan(a))
	assert.True(t, a.Equal(M("10.5", eur)))
}

func TestMoneyMismatchPanics(t *testing.T) {
	eur, _ := NewCurrency("EUR", 2)
	usd, _ := NewCurrency("USD", 2)

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic on mixed-currency addition")
		_, ok := r.(*CurrencyMismatchError)
		assert.True(t, ok, "panic value should be *CurrencyMismatchError, got %T", r)
	}()
	_ = M("1", eur).Add(M("1", usd))
}

func TestMoneyZeroAdoptsCurrency(t *testing.T) {
	eur, _ := NewCurrency("EUR", 2)
	var total Money // weak zero, no currency yet
	total = total.Add(M("3.10", eur))
	total = total.Add(M("0.90", eur))
	assert.Equal(t, "4.00 EUR", total.String())
	assert.Same(t, eur, total.Currency())
}

func TestMoneyRoundBankers(t *testing.T) {
	eur, _ := NewCurrency("EUR", 2)
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.00"}, // half to even
		{"1.015", "1.02"},
		{"1.025", "1.02"},
		{"2.675", "2.68"},
		{"1.2", "1.20"},
	}
	for _, tt := range tests {
		got := M(tt.in, eur).Round()
		if got.String() != tt.want+" EUR" {
			t.Errorf("Round(%s) = %s, want %s EUR", tt.in, got, tt.want)
		}
		if !got.IsRounded() {
			t.Errorf("Round(%s) is not rounded", tt.in)
		}
	}
	if M("1.005", eur).IsRounded() {
		t.Error("1.005 should not count as rounded at 2 places")
	}
}

func TestMoneyConvert(t *testing.T) {
	eur, _ := NewCurrency("EUR", 2)
	czk, _ := NewCurrency("CZK", 2)
	got := M("10", eur).Convert(czk, dec("25.5"))
	assert.Equal(t, "255.00 CZK", got.Round().String())
}
