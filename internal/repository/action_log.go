package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/entity"
)

const (
	actionLogsTable = "action_logs"
	defaultLogLimit = 100
)

type ActionLogRepository interface {
	Log(ctx context.Context, action constants.ActionType, message string, details map[string]any) error
	Recent(ctx context.Context, limit int) ([]*entity.ActionLog, error)
}

type actionLogRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewActionLogRepository(db *DB, logger *slog.Logger) ActionLogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &actionLogRepository{drv: db.Driver, logger: logger}
}

func (r *actionLogRepository) Log(ctx context.Context, action constants.ActionType, message string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	query, args := entsql.Dialect(r.drv.Dialect()).Insert(actionLogsTable).
		Columns("id", "action", "message", "details", "created_at").
		Values(uuid.NewString(), string(action), message, string(raw), time.Now().UTC().Format(timeLayout)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		r.logger.Error("failed to write action log", "action", action, "error", err)
		return errors.Join(common.ErrDatabase, err)
	}
	return nil
}

// Recent returns the latest entries first; limit <= 0 means 100.
func (r *actionLogRepository) Recent(ctx context.Context, limit int) ([]*entity.ActionLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	b := entsql.Dialect(r.drv.Dialect())
	query, args := b.Select("id", "action", "message", "details", "created_at").
		From(b.Table(actionLogsTable)).
		OrderBy(entsql.Desc("created_at")).
		Limit(limit).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to read action logs", "error", err)
		return nil, errors.Join(common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.ActionLog
	for rows.Next() {
		var id, action, details, createdAt string
		l := &entity.ActionLog{}
		if err := rows.Scan(&id, &action, &l.Message, &details, &createdAt); err != nil {
			return nil, errors.Join(common.ErrDatabase, err)
		}
		var err error
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse id: %w", err)
		}
		if l.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &l.Details); err != nil {
			return nil, fmt.Errorf("parse details: %w", err)
		}
		l.Action = constants.ActionType(action)
		out = append(out, l)
	}
	return out, rows.Err()
}
