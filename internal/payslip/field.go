package payslip

import "fmt"

// Field names one structured value read from a payslip.
type Field string

const (
	FieldName        Field = "name"
	FieldNationalID  Field = "national_id"
	FieldPeriod      Field = "period"
	FieldGrossSalary Field = "gross_salary"
	FieldNetSalary   Field = "net_salary"
	FieldDeductions  Field = "deductions"
	FieldEmployer    Field = "employer"
	FieldRole        Field = "role"
)

// Fields lists every known field in extraction order.
var Fields = []Field{
	FieldName,
	FieldNationalID,
	FieldPeriod,
	FieldGrossSalary,
	FieldNetSalary,
	FieldDeductions,
	FieldEmployer,
	FieldRole,
}

// Kind selects how a captured string is normalized.
type Kind int

const (
	KindText Kind = iota
	KindNationalID
	KindPeriod
	KindAmount
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNationalID:
		return "national_id"
	case KindPeriod:
		return "period"
	case KindAmount:
		return "amount"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Kind reports the normalization kind of f.
func (f Field) Kind() Kind {
	switch f {
	case FieldNationalID:
		return KindNationalID
	case FieldPeriod:
		return KindPeriod
	case FieldGrossSalary, FieldNetSalary, FieldDeductions:
		return KindAmount
	default:
		return KindText
	}
}

// Valid reports whether f is one of Fields.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}
