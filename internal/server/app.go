package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/export"
	"github.com/joseph-ayodele/payslip-tracker/internal/ocr"
	"github.com/joseph-ayodele/payslip-tracker/internal/payslip"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	repo "github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

// App bundles the long-lived components shared by the binaries.
type App struct {
	DB        *repo.DB
	Payslips  repo.PayslipRepository
	Logs      repo.ActionLogRepository
	Processor *pipeline.Processor
	Exporter  *export.Service
}

// NewApp opens the database and builds the processing stack from cfg.
func NewApp(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := ConnectDB(ctx, DBConfig(cfg.Database), logger)
	if err != nil {
		return nil, err
	}

	payslips := repo.NewPayslipRepository(db, logger)
	logs := repo.NewActionLogRepository(db, logger)

	opts := []pipeline.Option{
		pipeline.WithPersistMode(cfg.Extraction.PersistMode),
		pipeline.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
	}
	if path := cfg.Extraction.PatternsFile; path != "" {
		ps, err := loadPatterns(path)
		if err != nil {
			CloseDB(db)
			return nil, err
		}
		logger.Info("using custom extraction patterns", "file", path)
		opts = append(opts, pipeline.WithExtractor(payslip.NewExtractor(ps)))
	}

	extractor := ocr.NewExtractor(OCRConfig(cfg.OCR), logger)
	proc, err := pipeline.NewProcessor(logger, extractor, payslips, logs, opts...)
	if err != nil {
		CloseDB(db)
		return nil, err
	}

	return &App{
		DB:        db,
		Payslips:  payslips,
		Logs:      logs,
		Processor: proc,
		Exporter:  export.NewService(payslips, logs, logger),
	}, nil
}

func (a *App) Close() { CloseDB(a.DB) }

// DBConfig maps the environment configuration onto the repository one.
func DBConfig(c common.DatabaseConfig) repo.Config {
	return repo.Config{
		Driver:           c.Driver,
		DSN:              c.DSN,
		MaxConns:         c.MaxConns,
		MinConns:         c.MinConns,
		MaxConnLifetime:  c.MaxConnLifetime,
		MaxConnIdleTime:  c.MaxConnIdleTime,
		DialTimeout:      c.DialTimeout,
		StatementTimeout: c.StatementTimeout,
	}
}

// OCRConfig maps the environment configuration onto the OCR one.
func OCRConfig(c common.OCRConfig) ocr.Config {
	return ocr.Config{
		Pdftoppm:          c.Pdftoppm,
		Tesseract:         c.Tesseract,
		TesseractLang:     c.Languages,
		TessdataDir:       c.TessdataDir,
		PSM:               c.PSM,
		OEM:               c.OEM,
		MinWordConfidence: c.MinWordConfidence,
		DPI:               c.DPI,
		MaxPages:          c.MaxPages,
		Rasterizer:        c.Rasterizer,
		Preprocess:        c.Preprocess,
	}
}

func loadPatterns(path string) (*payslip.PatternSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open patterns file: %w", err)
	}
	defer f.Close()
	ps, err := payslip.LoadPatternSet(f)
	if err != nil {
		return nil, fmt.Errorf("load patterns from %s: %w", path, err)
	}
	return ps, nil
}
