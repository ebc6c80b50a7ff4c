package payslip

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amt(s string) *decimal.Decimal {
	return AmountPtr(decimal.RequireFromString(s))
}

func TestValidCPF(t *testing.T) {
	assert.True(t, ValidCPF("111.444.777-35"))
	assert.True(t, ValidCPF("11144477735"))
	assert.False(t, ValidCPF("00000000000"))
	assert.False(t, ValidCPF("99999999999"))
	assert.False(t, ValidCPF("1114447773"))
	assert.False(t, ValidCPF("111.444.777-36"))
	assert.False(t, ValidCPF(""))
}

func TestValidateRequiresName(t *testing.T) {
	records := []Record{
		{NetSalary: amt("100")},
		{Name: StringPtr(""), NetSalary: amt("100"), GrossSalary: amt("120"), Deductions: amt("20")},
		{},
	}
	for _, rec := range records {
		verdict := NewValidator().Validate(rec)
		assert.False(t, verdict.IsValid)
		assert.Contains(t, verdict.Errors, MsgNameNotFound)
	}
}

func TestValidateRequiresNet(t *testing.T) {
	verdict := NewValidator().Validate(Record{Name: StringPtr("Ana")})
	assert.False(t, verdict.IsValid)
	assert.Equal(t, []string{MsgNetNotFound}, verdict.Errors)
}

func TestValidateNegativeAmounts(t *testing.T) {
	verdict := NewValidator().Validate(Record{
		Name:        StringPtr("Ana"),
		GrossSalary: amt("-10"),
		NetSalary:   amt("-5"),
	})
	assert.False(t, verdict.IsValid)
	assert.Contains(t, verdict.Errors, MsgNegativeGross)
	assert.Contains(t, verdict.Errors, MsgNegativeNet)
}

func TestValidateConsistencyTolerance(t *testing.T) {
	base := Record{Name: StringPtr("Ana"), GrossSalary: amt("5000"), Deductions: amt("800")}

	within := base
	within.NetSalary = amt("4200.01")
	assert.Empty(t, NewValidator().Validate(within).Warnings)

	outside := base
	outside.NetSalary = amt("4200.02")
	verdict := NewValidator().Validate(outside)
	assert.True(t, verdict.IsValid)
	assert.Equal(t, []string{MsgInconsistent}, verdict.Warnings)
}

func TestValidateSkipsConsistencyWithoutGross(t *testing.T) {
	verdict := NewValidator().Validate(Record{Name: StringPtr("Ana"), NetSalary: amt("4200"), Deductions: amt("900")})
	assert.True(t, verdict.IsValid)
	assert.Empty(t, verdict.Warnings)
}

func TestValidateNationalIDWarning(t *testing.T) {
	verdict := NewValidator().Validate(Record{
		Name:       StringPtr("Ana"),
		NetSalary:  amt("100"),
		NationalID: StringPtr("123.456.789-01"),
	})
	assert.True(t, verdict.IsValid)
	assert.Equal(t, []string{MsgNationalIDSuspect}, verdict.Warnings)
	assert.NotNil(t, verdict.Errors)
}
