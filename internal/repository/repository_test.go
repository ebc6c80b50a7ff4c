package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/payslip"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), Config{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(context.Background()))
	// idempotent
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func amount(s string) *decimal.Decimal {
	return payslip.AmountPtr(decimal.RequireFromString(s))
}

func newRequest(name, period, net string, valid bool) *CreatePayslipRequest {
	rec := payslip.Record{
		Name:          payslip.StringPtr(name),
		Period:        payslip.StringPtr(period),
		NetSalary:     amount(net),
		ProcessedAt:   time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		SourceExcerpt: "Nome: " + name,
	}
	verdict := payslip.Verdict{IsValid: valid, Errors: []string{}, Warnings: []string{}}
	if !valid {
		verdict.Errors = []string{payslip.MsgNameNotFound}
	}
	return &CreatePayslipRequest{Record: rec, Verdict: verdict, Confidence: 80, SourceFilename: name + ".pdf"}
}

func TestPayslipInsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPayslipRepository(openTestDB(t), nil)

	req := newRequest("Joao Da Silva", "03/2024", "4200.00", true)
	req.Record.NationalID = payslip.StringPtr("111.444.777-35")
	req.Record.GrossSalary = amount("5000.00")
	req.Record.Deductions = amount("800.00")
	req.Verdict.Warnings = []string{payslip.MsgInconsistent}

	created, err := repo.Insert(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusValid, created.ValidationStatus)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Joao Da Silva", *got.Name)
	assert.Equal(t, "111.444.777-35", *got.NationalID)
	assert.Nil(t, got.Employer)
	assert.True(t, decimal.NewFromInt(5000).Equal(*got.GrossSalary))
	assert.True(t, decimal.NewFromInt(4200).Equal(*got.NetSalary))
	assert.True(t, decimal.NewFromInt(800).Equal(*got.Deductions))
	assert.Equal(t, req.Record.ProcessedAt, got.ProcessedAt)
	assert.Equal(t, "Joao Da Silva.pdf", got.SourceFilename)
	assert.InDelta(t, 80, got.OCRConfidence, 0.001)
	assert.Equal(t, []string{}, got.ValidationErrors)
	assert.Equal(t, []string{payslip.MsgInconsistent}, got.ValidationWarnings)
	assert.True(t, got.Verdict().IsValid)
}

func TestPayslipGetMissing(t *testing.T) {
	_, err := NewPayslipRepository(openTestDB(t), nil).GetByID(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestPayslipQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewPayslipRepository(openTestDB(t), nil)

	for _, req := range []*CreatePayslipRequest{
		newRequest("Maria Souza", "02/2024", "3000", true),
		newRequest("Joao Da Silva", "02/2024", "4200", true),
		newRequest("Joao Da Silva", "03/2024", "4300", true),
		newRequest("Ana Lima", "03/2024", "1000", false),
	} {
		_, err := repo.Insert(ctx, req)
		require.NoError(t, err)
	}

	byName, err := repo.QueryByName(ctx, "joao")
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "03/2024", *byName[0].Period)
	assert.Equal(t, "02/2024", *byName[1].Period)

	byPeriod, err := repo.QueryByPeriod(ctx, "02/2024")
	require.NoError(t, err)
	require.Len(t, byPeriod, 2)
	assert.Equal(t, "Joao Da Silva", *byPeriod[0].Name)
	assert.Equal(t, "Maria Souza", *byPeriod[1].Name)

	none, err := repo.QueryByName(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	stats, err := repo.Statistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalCount)
	assert.EqualValues(t, 3, stats.ValidCount)
	assert.EqualValues(t, 3, stats.UniquePeople)
	assert.EqualValues(t, 2, stats.UniquePeriods)
	assert.True(t, decimal.NewFromInt(12500).Equal(stats.SumNet), "sum %s", stats.SumNet)
	assert.True(t, decimal.NewFromInt(3125).Equal(stats.AvgNet), "avg %s", stats.AvgNet)
	assert.InDelta(t, 80, stats.AvgConfidence, 0.001)
}

func TestPayslipStatisticsEmpty(t *testing.T) {
	stats, err := NewPayslipRepository(openTestDB(t), nil).Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCount)
	assert.True(t, stats.SumNet.IsZero())
	assert.True(t, stats.AvgNet.IsZero())
	assert.Zero(t, stats.AvgConfidence)
}

func TestPayslipUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewPayslipRepository(openTestDB(t), nil)

	created, err := repo.Insert(ctx, newRequest("Ana", "01/2024", "100", false))
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, &UpdatePayslipRequest{
		Employer:  payslip.StringPtr("Acme Ltda"),
		NetSalary: amount("150.50"),
		Verdict:   &payslip.Verdict{IsValid: true, Errors: []string{}, Warnings: []string{}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltda", *updated.Employer)
	assert.True(t, decimal.RequireFromString("150.5").Equal(*updated.NetSalary))
	assert.Equal(t, constants.StatusValid, updated.ValidationStatus)
	assert.Empty(t, updated.ValidationErrors)

	flagged, err := repo.Update(ctx, created.ID, &UpdatePayslipRequest{
		Verdict: &payslip.Verdict{Errors: []string{payslip.MsgNameNotFound}, Warnings: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInvalid, flagged.ValidationStatus)
	assert.Equal(t, []string{payslip.MsgNameNotFound}, flagged.ValidationErrors)
	assert.NotNil(t, flagged.ValidationWarnings)
	assert.Empty(t, flagged.ValidationWarnings)

	unchanged, err := repo.Update(ctx, created.ID, &UpdatePayslipRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltda", *unchanged.Employer)

	_, err = repo.Update(ctx, uuid.New(), &UpdatePayslipRequest{Role: payslip.StringPtr("x")})
	assert.True(t, errors.Is(err, common.ErrNotFound))

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, created.ID), common.ErrNotFound))
}

func TestEncodeMessages(t *testing.T) {
	errs, warns, err := encodeMessages(payslip.Verdict{Errors: []string{"a \"quoted\" msg"}})
	require.NoError(t, err)
	assert.Equal(t, `["a \"quoted\" msg"]`, errs)
	assert.Equal(t, "[]", warns)
}

func TestActionLog(t *testing.T) {
	ctx := context.Background()
	logs := NewActionLogRepository(openTestDB(t), nil)

	require.NoError(t, logs.Log(ctx, constants.ActionInsert, "payslip stored", map[string]any{"file": "a.pdf"}))
	require.NoError(t, logs.Log(ctx, constants.ActionExport, "export done", nil))

	recent, err := logs.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, constants.ActionExport, recent[0].Action)
	assert.Equal(t, "a.pdf", recent[1].Details["file"])

	one, err := logs.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestOpenAcceptsConfigDriverNames(t *testing.T) {
	for _, driver := range []string{"", common.DriverSQLite, "sqlite3"} {
		t.Run("driver="+driver, func(t *testing.T) {
			dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
			db, err := Open(context.Background(), Config{Driver: driver, DSN: dsn}, nil)
			require.NoError(t, err)
			t.Cleanup(db.Close)
			assert.NoError(t, db.HealthCheck(context.Background(), time.Second))
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, nil)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	assert.NoError(t, openTestDB(t).HealthCheck(context.Background(), time.Second))
}
