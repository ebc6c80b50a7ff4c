package payslip

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCleanCurrencyValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"R$ 50,00", "50"},
		{"garbage", "0"},
		{"", "0"},
		{"R$ 1.234.567,89", "1234567.89"},
		{"5000,00", "5000"},
		{" 12 ", "12"},
		// a lone dot is a decimal point, not a thousands separator
		{"5.000", "5"},
		{"5.0", "5"},
		{"R$ 5.000,00", "5000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := CleanCurrencyValue(tt.in)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCleanCPF(t *testing.T) {
	assert.Equal(t, "123.456.789-01", CleanCPF("12345678901"))
	assert.Equal(t, "111.444.777-35", CleanCPF("111.444.777-35"))
	assert.Equal(t, "abc", CleanCPF("abc"))
	assert.Equal(t, "123.456", CleanCPF("  123.456 "))
}

func TestCleanTextField(t *testing.T) {
	assert.Equal(t, "Joao Da Silva", CleanTextField("JOAO   DA\tSILVA"))
	assert.Equal(t, "Analista De Sistemas", CleanTextField(" analista de sistemas -:_ "))
	assert.Equal(t, "", CleanTextField("  "))
	assert.Equal(t, "Acme S.A.", CleanTextField("ACME S.A."))
	assert.Equal(t, "Acme Comercio S.A.", CleanTextField("ACME COMERCIO S.A."))
	assert.Equal(t, "Joao D'Avila", CleanTextField("JOAO D'AVILA"))
	assert.Equal(t, "José Conceição", CleanTextField("JOSÉ CONCEIÇÃO"))
	assert.Equal(t, "Auxiliar-Administrativo", CleanTextField("auxiliar-administrativo"))
}
