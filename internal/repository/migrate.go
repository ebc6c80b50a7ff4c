package repository

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS payslips (
		id                  TEXT PRIMARY KEY,
		name                TEXT,
		national_id         TEXT,
		period              TEXT,
		employer            TEXT,
		role                TEXT,
		gross_salary        NUMERIC(14,2),
		net_salary          NUMERIC(14,2),
		deductions          NUMERIC(14,2),
		processed_at        TEXT NOT NULL,
		source_excerpt      TEXT NOT NULL DEFAULT '',
		ocr_confidence      DOUBLE PRECISION NOT NULL DEFAULT 0,
		source_filename     TEXT NOT NULL DEFAULT '',
		validation_status   TEXT NOT NULL CHECK (validation_status IN ('valid', 'invalid')),
		validation_errors   TEXT NOT NULL DEFAULT '[]',
		validation_warnings TEXT NOT NULL DEFAULT '[]',
		created_at          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS payslips_name_idx ON payslips (name)`,
	`CREATE INDEX IF NOT EXISTS payslips_period_idx ON payslips (period)`,
	`CREATE INDEX IF NOT EXISTS payslips_created_at_idx ON payslips (created_at)`,
	`CREATE TABLE IF NOT EXISTS action_logs (
		id         TEXT PRIMARY KEY,
		action     TEXT NOT NULL,
		message    TEXT NOT NULL,
		details    TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS action_logs_created_at_idx ON action_logs (created_at)`,
}

// Migrate creates the tables and indexes if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := db.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			db.logger.Error("migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db.logger.Info("database schema ready")
	return nil
}
