package payslip

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Verdict messages.
const (
	MsgNameNotFound      = "name not found"
	MsgNetNotFound       = "net salary not found"
	MsgInconsistent      = "inconsistent values: gross − deductions ≠ net"
	MsgNegativeGross     = "gross salary cannot be negative"
	MsgNegativeNet       = "net salary cannot be negative"
	MsgNationalIDSuspect = "national ID may be incorrect"
)

var consistencyTolerance = decimal.NewFromFloat(0.01)

// Verdict is the outcome of validating one record. Errors make a record
// invalid; warnings never do.
type Verdict struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validator checks assembled records.
type Validator struct{}

// NewValidator returns a Validator.
func NewValidator() *Validator { return &Validator{} }

// Validate checks required fields, amount signs and consistency, and the
// CPF checksum.
func (v *Validator) Validate(rec Record) Verdict {
	errs := []string{}
	warns := []string{}

	if rec.Name == nil || strings.TrimSpace(*rec.Name) == "" {
		errs = append(errs, MsgNameNotFound)
	}
	if rec.NetSalary == nil {
		errs = append(errs, MsgNetNotFound)
	}

	gross := amountOrZero(rec.GrossSalary)
	net := amountOrZero(rec.NetSalary)
	deductions := amountOrZero(rec.Deductions)

	if !gross.IsZero() && !net.IsZero() {
		if gross.Sub(deductions).Sub(net).Abs().GreaterThan(consistencyTolerance) {
			warns = append(warns, MsgInconsistent)
		}
	}
	if gross.IsNegative() {
		errs = append(errs, MsgNegativeGross)
	}
	if net.IsNegative() {
		errs = append(errs, MsgNegativeNet)
	}

	if rec.NationalID != nil && !ValidCPF(*rec.NationalID) {
		warns = append(warns, MsgNationalIDSuspect)
	}

	return Verdict{IsValid: len(errs) == 0, Errors: errs, Warnings: warns}
}
