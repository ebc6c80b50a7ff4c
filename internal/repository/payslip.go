package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/entity"
	"github.com/joseph-ayodele/payslip-tracker/internal/payslip"
)

const (
	payslipsTable = "payslips"
	// fixed width so lexical order matches time order
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var payslipColumns = []string{
	"id", "name", "national_id", "period", "employer", "role",
	"gross_salary", "net_salary", "deductions",
	"processed_at", "source_excerpt", "ocr_confidence", "source_filename",
	"validation_status", "validation_errors", "validation_warnings", "created_at",
}

// CreatePayslipRequest wraps parameters for storing an extracted payslip.
type CreatePayslipRequest struct {
	Record         payslip.Record
	Verdict        payslip.Verdict
	Confidence     float64
	SourceFilename string
}

// UpdatePayslipRequest carries corrected field values. Nil fields are left
// unchanged. Verdict, when set, replaces the stored validation outcome.
type UpdatePayslipRequest struct {
	Name        *string
	NationalID  *string
	Period      *string
	Employer    *string
	Role        *string
	GrossSalary *decimal.Decimal
	NetSalary   *decimal.Decimal
	Deductions  *decimal.Decimal
	Verdict     *payslip.Verdict
}

type PayslipRepository interface {
	Insert(ctx context.Context, req *CreatePayslipRequest) (*entity.Payslip, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payslip, error)
	List(ctx context.Context, limit int) ([]*entity.Payslip, error)
	QueryByName(ctx context.Context, name string) ([]*entity.Payslip, error)
	QueryByPeriod(ctx context.Context, period string) ([]*entity.Payslip, error)
	Statistics(ctx context.Context) (*entity.Statistics, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdatePayslipRequest) (*entity.Payslip, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type payslipRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
	now    func() time.Time
}

func NewPayslipRepository(db *DB, logger *slog.Logger) PayslipRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &payslipRepository{drv: db.Driver, logger: logger, now: time.Now}
}

func (r *payslipRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

func (r *payslipRepository) Insert(ctx context.Context, req *CreatePayslipRequest) (*entity.Payslip, error) {
	rec := req.Record
	errs, warns, err := encodeMessages(req.Verdict)
	if err != nil {
		r.logger.Error("failed to encode validation messages", "file", req.SourceFilename, "error", err)
		return nil, common.NewAppError("ENCODE_ERROR", "insert payslip", err)
	}

	id := uuid.New()
	createdAt := r.now().UTC()
	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = createdAt
	}
	status := constants.StatusFor(req.Verdict.IsValid)

	query, args := r.builder().Insert(payslipsTable).
		Columns(payslipColumns...).
		Values(
			id.String(), nullString(rec.Name), nullString(rec.NationalID), nullString(rec.Period),
			nullString(rec.Employer), nullString(rec.Role),
			nullAmount(rec.GrossSalary), nullAmount(rec.NetSalary), nullAmount(rec.Deductions),
			processedAt.UTC().Format(timeLayout), rec.SourceExcerpt, req.Confidence, req.SourceFilename,
			string(status), errs, warns, createdAt.Format(timeLayout),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		r.logger.Error("failed to insert payslip", "file", req.SourceFilename, "error", err)
		return nil, common.NewAppError("DB_ERROR", "insert payslip", errors.Join(common.ErrDatabase, err))
	}
	r.logger.Debug("payslip inserted", "id", id, "status", status)

	return &entity.Payslip{
		ID:                 id,
		Name:               rec.Name,
		NationalID:         rec.NationalID,
		Period:             rec.Period,
		Employer:           rec.Employer,
		Role:               rec.Role,
		GrossSalary:        rec.GrossSalary,
		NetSalary:          rec.NetSalary,
		Deductions:         rec.Deductions,
		ProcessedAt:        processedAt.UTC(),
		SourceExcerpt:      rec.SourceExcerpt,
		OCRConfidence:      req.Confidence,
		SourceFilename:     req.SourceFilename,
		ValidationStatus:   status,
		ValidationErrors:   nonNilStrings(req.Verdict.Errors),
		ValidationWarnings: nonNilStrings(req.Verdict.Warnings),
		CreatedAt:          createdAt,
	}, nil
}

func (r *payslipRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payslip, error) {
	b := r.builder()
	q := b.Select(payslipColumns...).From(b.Table(payslipsTable)).Where(entsql.EQ("id", id.String()))
	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("payslip %s: %w", id, common.ErrNotFound)
	}
	return rows[0], nil
}

// List returns the newest payslips first. limit <= 0 returns all rows.
func (r *payslipRepository) List(ctx context.Context, limit int) ([]*entity.Payslip, error) {
	b := r.builder()
	q := b.Select(payslipColumns...).From(b.Table(payslipsTable)).OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.query(ctx, q)
}

// QueryByName matches name case-insensitively as a substring, latest period first.
func (r *payslipRepository) QueryByName(ctx context.Context, name string) ([]*entity.Payslip, error) {
	b := r.builder()
	q := b.Select(payslipColumns...).From(b.Table(payslipsTable)).
		Where(entsql.ContainsFold("name", name)).
		OrderBy(entsql.Desc("period"), entsql.Desc("created_at"))
	return r.query(ctx, q)
}

// QueryByPeriod returns the payslips of one MM/YYYY period ordered by name.
func (r *payslipRepository) QueryByPeriod(ctx context.Context, period string) ([]*entity.Payslip, error) {
	b := r.builder()
	q := b.Select(payslipColumns...).From(b.Table(payslipsTable)).
		Where(entsql.EQ("period", period)).
		OrderBy(entsql.Asc("name"), entsql.Asc("created_at"))
	return r.query(ctx, q)
}

func (r *payslipRepository) Statistics(ctx context.Context) (*entity.Statistics, error) {
	b := r.builder()
	q := b.Select(
		entsql.Count("*"),
		"COUNT(CASE WHEN validation_status = 'valid' THEN 1 END)",
		"COUNT(DISTINCT name)",
		"COUNT(DISTINCT period)",
		entsql.Sum("net_salary"),
		entsql.Avg("net_salary"),
		entsql.Avg("ocr_confidence"),
	).From(b.Table(payslipsTable))
	query, args := q.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to compute statistics", "error", err)
		return nil, errors.Join(common.ErrDatabase, err)
	}
	defer rows.Close()

	stats := &entity.Statistics{}
	if rows.Next() {
		var sumNet, avgNet decimal.NullDecimal
		var avgConf sql.NullFloat64
		if err := rows.Scan(&stats.TotalCount, &stats.ValidCount, &stats.UniquePeople, &stats.UniquePeriods,
			&sumNet, &avgNet, &avgConf); err != nil {
			return nil, errors.Join(common.ErrDatabase, err)
		}
		stats.SumNet = sumNet.Decimal.Round(2)
		stats.AvgNet = avgNet.Decimal.Round(2)
		stats.AvgConfidence = avgConf.Float64
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(common.ErrDatabase, err)
	}
	return stats, nil
}

func (r *payslipRepository) Update(ctx context.Context, id uuid.UUID, req *UpdatePayslipRequest) (*entity.Payslip, error) {
	u := r.builder().Update(payslipsTable).Where(entsql.EQ("id", id.String()))
	set := func(col string, v *string) {
		if v != nil {
			u.Set(col, *v)
		}
	}
	setAmount := func(col string, v *decimal.Decimal) {
		if v != nil {
			u.Set(col, v.String())
		}
	}
	set("name", req.Name)
	set("national_id", req.NationalID)
	set("period", req.Period)
	set("employer", req.Employer)
	set("role", req.Role)
	setAmount("gross_salary", req.GrossSalary)
	setAmount("net_salary", req.NetSalary)
	setAmount("deductions", req.Deductions)
	if v := req.Verdict; v != nil {
		errs, warns, err := encodeMessages(*v)
		if err != nil {
			r.logger.Error("failed to encode validation messages", "id", id, "error", err)
			return nil, common.NewAppError("ENCODE_ERROR", "update payslip", err)
		}
		u.Set("validation_status", string(constants.StatusFor(v.IsValid))).
			Set("validation_errors", errs).
			Set("validation_warnings", warns)
	}
	if u.Empty() {
		return r.GetByID(ctx, id)
	}

	query, args := u.Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to update payslip", "id", id, "error", err)
		return nil, errors.Join(common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("payslip %s: %w", id, common.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *payslipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := r.builder().Delete(payslipsTable).Where(entsql.EQ("id", id.String())).Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to delete payslip", "id", id, "error", err)
		return errors.Join(common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Join(common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("payslip %s: %w", id, common.ErrNotFound)
	}
	r.logger.Debug("payslip deleted", "id", id)
	return nil
}

func (r *payslipRepository) query(ctx context.Context, q *entsql.Selector) ([]*entity.Payslip, error) {
	query, args := q.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to query payslips", "error", err)
		return nil, errors.Join(common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.Payslip
	for rows.Next() {
		p, err := scanPayslip(&rows)
		if err != nil {
			return nil, errors.Join(common.ErrDatabase, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(common.ErrDatabase, err)
	}
	return out, nil
}

func scanPayslip(rows *entsql.Rows) (*entity.Payslip, error) {
	var (
		id, processedAt, createdAt, status, errs, warns string
		name, nationalID, period, employer, role         sql.NullString
		gross, net, deductions                           decimal.NullDecimal
		p                                                entity.Payslip
	)
	if err := rows.Scan(&id, &name, &nationalID, &period, &employer, &role,
		&gross, &net, &deductions,
		&processedAt, &p.SourceExcerpt, &p.OCRConfidence, &p.SourceFilename,
		&status, &errs, &warns, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if p.ProcessedAt, err = time.Parse(timeLayout, processedAt); err != nil {
		return nil, fmt.Errorf("parse processed_at: %w", err)
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(errs), &p.ValidationErrors); err != nil {
		return nil, fmt.Errorf("parse validation_errors: %w", err)
	}
	if err := json.Unmarshal([]byte(warns), &p.ValidationWarnings); err != nil {
		return nil, fmt.Errorf("parse validation_warnings: %w", err)
	}
	p.ValidationErrors = nonNilStrings(p.ValidationErrors)
	p.ValidationWarnings = nonNilStrings(p.ValidationWarnings)
	p.ValidationStatus = constants.ValidationStatus(status)
	p.Name = stringPtr(name)
	p.NationalID = stringPtr(nationalID)
	p.Period = stringPtr(period)
	p.Employer = stringPtr(employer)
	p.Role = stringPtr(role)
	p.GrossSalary = amountPtr(gross)
	p.NetSalary = amountPtr(net)
	p.Deductions = amountPtr(deductions)
	return &p, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullAmount(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func amountPtr(nd decimal.NullDecimal) *decimal.Decimal {
	if !nd.Valid {
		return nil
	}
	d := nd.Decimal
	return &d
}

// encodeMessages renders the verdict's errors and warnings as JSON arrays,
// never null.
func encodeMessages(v payslip.Verdict) (errs, warns string, err error) {
	eb, err := json.Marshal(nonNilStrings(v.Errors))
	if err != nil {
		return "", "", err
	}
	wb, err := json.Marshal(nonNilStrings(v.Warnings))
	if err != nil {
		return "", "", err
	}
	return string(eb), string(wb), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
