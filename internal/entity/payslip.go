package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/payslip"
)

// Payslip is a stored payslip row for data transfer between layers.
type Payslip struct {
	ID                 uuid.UUID                  `json:"id"`
	Name               *string                    `json:"name,omitempty"`
	NationalID         *string                    `json:"national_id,omitempty"`
	Period             *string                    `json:"period,omitempty"`
	Employer           *string                    `json:"employer,omitempty"`
	Role               *string                    `json:"role,omitempty"`
	GrossSalary        *decimal.Decimal           `json:"gross_salary,omitempty"`
	NetSalary          *decimal.Decimal           `json:"net_salary,omitempty"`
	Deductions         *decimal.Decimal           `json:"deductions,omitempty"`
	ProcessedAt        time.Time                  `json:"processed_at"`
	SourceExcerpt      string                     `json:"source_excerpt"`
	OCRConfidence      float64                    `json:"ocr_confidence"`
	SourceFilename     string                     `json:"source_filename"`
	ValidationStatus   constants.ValidationStatus `json:"validation_status"`
	ValidationErrors   []string                   `json:"validation_errors"`
	ValidationWarnings []string                   `json:"validation_warnings"`
	CreatedAt          time.Time                  `json:"created_at"`
}

// Record returns the extracted fields of p.
func (p *Payslip) Record() payslip.Record {
	return payslip.Record{
		Name:          p.Name,
		NationalID:    p.NationalID,
		Period:        p.Period,
		Employer:      p.Employer,
		Role:          p.Role,
		GrossSalary:   p.GrossSalary,
		NetSalary:     p.NetSalary,
		Deductions:    p.Deductions,
		ProcessedAt:   p.ProcessedAt,
		SourceExcerpt: p.SourceExcerpt,
	}
}

// Verdict returns the stored validation outcome of p.
func (p *Payslip) Verdict() payslip.Verdict {
	return payslip.Verdict{
		IsValid:  p.ValidationStatus == constants.StatusValid,
		Errors:   nonNil(p.ValidationErrors),
		Warnings: nonNil(p.ValidationWarnings),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
