package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/entity"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

// Update applies corrected field values to a stored payslip and re-runs
// validation on the merged record.
func (p *Processor) Update(ctx context.Context, id uuid.UUID, req repository.UpdatePayslipRequest) (*entity.Payslip, error) {
	if p.payslips == nil {
		return nil, fmt.Errorf("no payslip store configured: %w", common.ErrInternal)
	}
	current, err := p.payslips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := current.Record()
	if req.Name != nil {
		rec.Name = req.Name
	}
	if req.NationalID != nil {
		rec.NationalID = req.NationalID
	}
	if req.Period != nil {
		rec.Period = req.Period
	}
	if req.Employer != nil {
		rec.Employer = req.Employer
	}
	if req.Role != nil {
		rec.Role = req.Role
	}
	if req.GrossSalary != nil {
		rec.GrossSalary = req.GrossSalary
	}
	if req.NetSalary != nil {
		rec.NetSalary = req.NetSalary
	}
	if req.Deductions != nil {
		rec.Deductions = req.Deductions
	}
	verdict := p.validator.Validate(rec)
	req.Verdict = &verdict

	row, err := p.payslips.Update(ctx, id, &req)
	if err != nil {
		p.logger.Error("processor.update.failed", "id", id, "err", err)
		return nil, err
	}
	p.logAction(ctx, constants.ActionUpdate, "payslip updated", map[string]any{
		"id":     id.String(),
		"status": string(row.ValidationStatus),
	})
	p.logger.Info("processor.update.ok", "id", id, "valid", verdict.IsValid)
	return row, nil
}

// Delete removes a stored payslip.
func (p *Processor) Delete(ctx context.Context, id uuid.UUID) error {
	if p.payslips == nil {
		return fmt.Errorf("no payslip store configured: %w", common.ErrInternal)
	}
	if err := p.payslips.Delete(ctx, id); err != nil {
		return err
	}
	p.logAction(ctx, constants.ActionDelete, "payslip deleted", map[string]any{"id": id.String()})
	p.logger.Info("processor.delete.ok", "id", id)
	return nil
}
