package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/entity"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslip-tracker/internal/ocr"
	"github.com/joseph-ayodele/payslip-tracker/internal/payslip"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

// TextReader turns an uploaded document into text. *ocr.Extractor satisfies it.
type TextReader interface {
	Extract(ctx context.Context, filename string, data []byte) (ocr.ExtractionResult, error)
}

// Outcome is the result of processing one document.
type Outcome struct {
	Filename string                `json:"filename"`
	Record   payslip.Record        `json:"record"`
	Verdict  payslip.Verdict       `json:"verdict"`
	OCR      OCRSummary            `json:"ocr"`
	Payslip  *entity.Payslip       `json:"payslip,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
	Persist  constants.PersistMode `json:"persist_mode"`
}

// OCRSummary is the part of an ocr.ExtractionResult worth reporting.
type OCRSummary struct {
	Method     string  `json:"method"`
	Pages      int     `json:"pages"`
	Confidence float64 `json:"confidence"`
	DurationMS int64   `json:"duration_ms"`
}

// Processor coordinates OCR, field extraction, validation and storage.
type Processor struct {
	logger         *slog.Logger
	reader         TextReader
	extractor      *payslip.Extractor
	validator      *payslip.Validator
	payslips       repository.PayslipRepository
	logs           repository.ActionLogRepository
	mode           constants.PersistMode
	maxUploadBytes int64
}

type Option func(*Processor)

// WithPersistMode selects which records Process stores (default constants.PersistAll).
func WithPersistMode(m constants.PersistMode) Option {
	return func(p *Processor) {
		if _, ok := constants.ParsePersistMode(string(m)); ok {
			p.mode = m
		}
	}
}

// WithMaxUploadBytes overrides the upload size limit.
func WithMaxUploadBytes(n int64) Option {
	return func(p *Processor) { p.maxUploadBytes = n }
}

// WithExtractor replaces the default field extractor.
func WithExtractor(e *payslip.Extractor) Option {
	return func(p *Processor) {
		if e != nil {
			p.extractor = e
		}
	}
}

// NewProcessor builds a Processor. payslips and logs may be nil, in which
// case nothing is stored regardless of the persist mode.
func NewProcessor(
	logger *slog.Logger,
	reader TextReader,
	payslips repository.PayslipRepository,
	logs repository.ActionLogRepository,
	opts ...Option,
) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:    logger,
		reader:    reader,
		validator: payslip.NewValidator(),
		payslips:  payslips,
		logs:      logs,
		mode:      constants.PersistAll,
	}
	for _, o := range opts {
		o(p)
	}
	if p.extractor == nil {
		ps, err := payslip.DefaultPatternSet()
		if err != nil {
			return nil, fmt.Errorf("load patterns: %w", err)
		}
		p.extractor = payslip.NewExtractor(ps)
	}
	return p, nil
}

// Analyze runs extraction and validation on text without touching storage.
func (p *Processor) Analyze(text string) (payslip.Record, payslip.Verdict) {
	rec := p.extractor.ExtractAll(text)
	return rec, p.validator.Validate(rec)
}

// Process validates the upload, reads its text, extracts and validates the
// fields, and stores the record according to the persist mode.
func (p *Processor) Process(ctx context.Context, filename string, data []byte) (*Outcome, error) {
	start := time.Now()

	warnings, err := ingest.ValidateUpload(filename, int64(len(data)), p.maxUploadBytes)
	if err != nil {
		p.logger.Warn("processor.upload.rejected", "file", filename, "size", len(data), "err", err)
		return nil, err
	}

	res, err := p.reader.Extract(ctx, filename, data)
	if err != nil {
		p.logger.Error("processor.ocr.failed", "file", filename, "err", err)
		p.logAction(ctx, constants.ActionError, "text extraction failed", map[string]any{
			"file":  filename,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	p.logger.Info("processor.ocr.ok",
		"file", filename,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
	)

	rec, verdict := p.Analyze(res.Text)
	out := &Outcome{
		Filename: filename,
		Record:   rec,
		Verdict:  verdict,
		OCR: OCRSummary{
			Method:     res.Method,
			Pages:      res.Pages,
			Confidence: res.Confidence,
			DurationMS: res.Duration.Milliseconds(),
		},
		Warnings: append(warnings, res.Warnings...),
		Persist:  p.mode,
	}

	if p.shouldPersist(verdict) {
		row, err := p.payslips.Insert(ctx, &repository.CreatePayslipRequest{
			Record:         rec,
			Verdict:        verdict,
			Confidence:     res.Confidence,
			SourceFilename: filename,
		})
		if err != nil {
			p.logger.Error("processor.persist.failed", "file", filename, "err", err)
			return out, fmt.Errorf("store %s: %w", filename, err)
		}
		out.Payslip = row
		p.logAction(ctx, constants.ActionInsert, "payslip stored", map[string]any{
			"id":     row.ID.String(),
			"file":   filename,
			"status": string(row.ValidationStatus),
		})
	}

	p.logger.Info("processor.done",
		"file", filename,
		"valid", verdict.IsValid,
		"errors", len(verdict.Errors),
		"warnings", len(verdict.Warnings),
		"persisted", out.Payslip != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Processor) shouldPersist(v payslip.Verdict) bool {
	if p.payslips == nil {
		return false
	}
	switch p.mode {
	case constants.PersistAll:
		return true
	case constants.PersistValid:
		return v.IsValid
	default:
		return false
	}
}

func (p *Processor) logAction(ctx context.Context, action constants.ActionType, msg string, details map[string]any) {
	if p.logs == nil {
		return
	}
	if err := p.logs.Log(ctx, action, msg, details); err != nil {
		p.logger.Warn("failed to write action log", "action", action, "err", err)
	}
}
