package payslip

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const excerptLimit = 500

// Value is a normalized field value. Text is set for text, national ID and
// period fields; Amount for amount fields.
type Value struct {
	Kind   Kind
	Text   string
	Amount decimal.Decimal
}

// Record is the structured result of extracting one payslip. Nil pointers
// mean the field was not found.
type Record struct {
	Name        *string          `json:"name"`
	NationalID  *string          `json:"national_id"`
	Period      *string          `json:"period"`
	Employer    *string          `json:"employer"`
	Role        *string          `json:"role"`
	GrossSalary *decimal.Decimal `json:"gross_salary"`
	NetSalary   *decimal.Decimal `json:"net_salary"`
	Deductions  *decimal.Decimal `json:"deductions"`

	ProcessedAt   time.Time `json:"processed_at"`
	SourceExcerpt string    `json:"source_excerpt"`
}

// Set stores v under f. Values of the wrong kind for f are ignored.
func (r *Record) Set(f Field, v Value) {
	if f.Kind() != v.Kind {
		return
	}
	text := v.Text
	amount := v.Amount
	switch f {
	case FieldName:
		r.Name = &text
	case FieldNationalID:
		r.NationalID = &text
	case FieldPeriod:
		r.Period = &text
	case FieldEmployer:
		r.Employer = &text
	case FieldRole:
		r.Role = &text
	case FieldGrossSalary:
		r.GrossSalary = &amount
	case FieldNetSalary:
		r.NetSalary = &amount
	case FieldDeductions:
		r.Deductions = &amount
	}
}

// Get returns the value stored under f and whether it is present.
func (r Record) Get(f Field) (Value, bool) {
	var s *string
	var d *decimal.Decimal
	switch f {
	case FieldName:
		s = r.Name
	case FieldNationalID:
		s = r.NationalID
	case FieldPeriod:
		s = r.Period
	case FieldEmployer:
		s = r.Employer
	case FieldRole:
		s = r.Role
	case FieldGrossSalary:
		d = r.GrossSalary
	case FieldNetSalary:
		d = r.NetSalary
	case FieldDeductions:
		d = r.Deductions
	}
	switch {
	case s != nil:
		return Value{Kind: f.Kind(), Text: *s}, true
	case d != nil:
		return Value{Kind: KindAmount, Amount: *d}, true
	}
	return Value{}, false
}

// Backfill derives one missing amount from the other two. At most one
// direction is applied per call.
func (r *Record) Backfill() {
	if r.Deductions == nil && r.GrossSalary != nil && r.NetSalary != nil {
		d := r.GrossSalary.Sub(*r.NetSalary)
		r.Deductions = &d
	} else if r.GrossSalary == nil && r.NetSalary != nil && r.Deductions != nil {
		g := r.NetSalary.Add(*r.Deductions)
		r.GrossSalary = &g
	}
}

// Excerpt returns the first 500 characters of text, with "..." appended
// when text was longer.
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= excerptLimit {
		return text
	}
	n := 0
	for i := range text {
		if n == excerptLimit {
			return text[:i] + "..."
		}
		n++
	}
	return text
}

func amountOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// StringPtr and AmountPtr build optional record values.
func StringPtr(s string) *string { return &s }

func AmountPtr(d decimal.Decimal) *decimal.Decimal { return &d }
