package export

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/payslip"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

func TestFormatBRL(t *testing.T) {
	d := decimal.RequireFromString("1234.56")
	assert.Equal(t, "R$ 1.234,56", FormatBRL(&d))
	big := decimal.RequireFromString("1234567.5")
	assert.Equal(t, "R$ 1.234.567,50", FormatBRL(&big))
	assert.Equal(t, "R$ 0,00", FormatBRL(nil))
}

func setup(t *testing.T) (*Service, repository.PayslipRepository, repository.ActionLogRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: "file:" + filepath.Join(t.TempDir(), "x.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	payslips := repository.NewPayslipRepository(db, nil)
	logs := repository.NewActionLogRepository(db, nil)
	return NewService(payslips, logs, nil), payslips, logs
}

func insert(t *testing.T, repo repository.PayslipRepository, name, period, net string) {
	t.Helper()
	_, err := repo.Insert(context.Background(), &repository.CreatePayslipRequest{
		Record: payslip.Record{
			Name:        payslip.StringPtr(name),
			Period:      payslip.StringPtr(period),
			NetSalary:   payslip.AmountPtr(decimal.RequireFromString(net)),
			ProcessedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		Verdict:        payslip.Verdict{IsValid: true, Errors: []string{}, Warnings: []string{}},
		Confidence:     91.5,
		SourceFilename: name + ".pdf",
	})
	require.NoError(t, err)
}

func TestExportPayslipsXLSX(t *testing.T) {
	svc, repo, logs := setup(t)
	insert(t, repo, "Joao Da Silva", "03/2024", "4200")
	insert(t, repo, "Maria Souza", "02/2024", "3100.5")

	data, err := svc.ExportPayslipsXLSX(context.Background(), "03/2024")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Joao Da Silva", rows[1][0])
	assert.Equal(t, "03/2024", rows[1][2])
	assert.Equal(t, "R$ 0,00", rows[1][5])
	assert.Equal(t, "R$ 4.200,00", rows[1][6])
	assert.Equal(t, "valid", rows[1][8])
	assert.Equal(t, "91.5", rows[1][11])

	recent, err := logs.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, constants.ActionExport, recent[0].Action)

	all, err := svc.ExportPayslipsXLSX(context.Background(), "")
	require.NoError(t, err)
	f2, err := excelize.OpenReader(bytes.NewReader(all))
	require.NoError(t, err)
	defer f2.Close()
	rows, err = f2.GetRows(sheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExportNothing(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.ExportPayslipsXLSX(context.Background(), "01/1999")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
