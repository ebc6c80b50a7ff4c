package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/entity"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

const sheet = "Payslips"

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	payslips repository.PayslipRepository
	logs     repository.ActionLogRepository
	logger   *slog.Logger
}

func NewService(payslips repository.PayslipRepository, logs repository.ActionLogRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{payslips: payslips, logs: logs, logger: logger}
}

// ExportPayslipsXLSX returns an XLSX workbook (as bytes) of every stored
// payslip, or of one MM/YYYY period when period is set. It fails with
// common.ErrNotFound when there is nothing to export.
func (s *Service) ExportPayslipsXLSX(ctx context.Context, period string) ([]byte, error) {
	start := time.Now()

	var (
		recs []*entity.Payslip
		err  error
	)
	if period != "" {
		recs, err = s.payslips.QueryByPeriod(ctx, period)
	} else {
		recs, err = s.payslips.List(ctx, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("query payslips: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no payslips to export: %w", common.ErrNotFound)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Name",
		"CPF",
		"Period",
		"Employer",
		"Role",
		"Gross Salary",
		"Net Salary",
		"Deductions",
		"Status",
		"Errors",
		"Warnings",
		"OCR Confidence",
		"Source File",
		"Processed At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range recs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, deref(r.Name))
		write(2, deref(r.NationalID))
		write(3, deref(r.Period))
		write(4, deref(r.Employer))
		write(5, deref(r.Role))
		write(6, FormatBRL(r.GrossSalary))
		write(7, FormatBRL(r.NetSalary))
		write(8, FormatBRL(r.Deductions))
		write(9, string(r.ValidationStatus))
		write(10, strings.Join(r.ValidationErrors, "; "))
		write(11, strings.Join(r.ValidationWarnings, "; "))
		write(12, fmt.Sprintf("%.1f", r.OCRConfidence))
		write(13, truncate(r.SourceFilename, 120))
		write(14, r.ProcessedAt.Format("2006-01-02 15:04:05"))
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 32) // name
	_ = f.SetColWidth(sheet, "B", "C", 16) // cpf, period
	_ = f.SetColWidth(sheet, "D", "E", 28) // employer, role
	_ = f.SetColWidth(sheet, "F", "H", 16) // amounts
	_ = f.SetColWidth(sheet, "J", "K", 40) // errors, warnings
	_ = f.SetColWidth(sheet, "M", "M", 40) // file

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	if s.logs != nil {
		details := map[string]any{"rows": len(recs), "period": period}
		if err := s.logs.Log(ctx, constants.ActionExport, "payslips exported", details); err != nil {
			s.logger.Warn("failed to log export", "error", err)
		}
	}
	s.logger.Info("export.xlsx.ok",
		"period", period,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// FormatBRL renders an amount as Brazilian currency, e.g. "R$ 1.234,56".
// Missing amounts render as "R$ 0,00".
func FormatBRL(d *decimal.Decimal) string {
	v := 0.0
	if d != nil {
		v = d.Round(2).InexactFloat64()
	}
	return "R$ " + humanize.FormatFloat("#.###,##", v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
