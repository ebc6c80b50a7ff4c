package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/constants"
)

// Rasterizer backends.
const (
	RasterizerPoppler = "poppler"
	RasterizerPDFCPU  = "pdfcpu"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "por+eng"
	TessdataDir   string
	PSM           int // default 6, uniform block of text
	OEM           int // default 3

	// Words at or below this confidence (0..100) are dropped.
	MinWordConfidence float64

	DPI        int    // rasterization DPI for scanned PDFs, default 300
	MaxPages   int    // 0 = no limit
	Rasterizer string // RasterizerPoppler | RasterizerPDFCPU

	Preprocess bool

	// Digital PDFs whose text layer scores at least this are not OCRed.
	TextLayerMinScore float64
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.FormatPDF | constants.FormatImage
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float64 // 0..100
}

type Extractor struct {
	cfg        Config
	runner     Runner
	engine     Engine
	rasterizer Rasterizer
	logger     *slog.Logger
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithRunner replaces the command runner used by the default engine and rasterizer.
func WithRunner(r Runner) ExtractorOption {
	return func(e *Extractor) { e.runner = r }
}

// WithEngine replaces the OCR engine.
func WithEngine(en Engine) ExtractorOption {
	return func(e *Extractor) { e.engine = en }
}

// WithRasterizer replaces the PDF rasterizer.
func WithRasterizer(r Rasterizer) ExtractorOption {
	return func(e *Extractor) { e.rasterizer = r }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	e := &Extractor{cfg: cfg, runner: newExecRunner(logger), logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	if e.engine == nil {
		e.engine = defaultEngine(cfg, e.runner, logger)
	}
	if e.rasterizer == nil {
		switch cfg.Rasterizer {
		case RasterizerPDFCPU:
			e.rasterizer = NewPDFCPURasterizer(cfg.MaxPages, logger)
		default:
			e.rasterizer = NewPopplerRasterizer(cfg, e.runner, logger)
		}
	}
	return e
}

func (c Config) withDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.TesseractLang == "" {
		c.TesseractLang = "por+eng"
	}
	if c.PSM <= 0 {
		c.PSM = 6
	}
	if c.OEM <= 0 {
		c.OEM = 3
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.Rasterizer == "" {
		c.Rasterizer = RasterizerPoppler
	}
	if c.TextLayerMinScore <= 0 {
		c.TextLayerMinScore = 0.6
	}
	return c
}

// Extract picks a strategy based on the file extension of filename.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(filename))
	e.logger.Debug("starting ocr extraction", "file", filename, "ext", ext, "bytes", len(data))
	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.FormatPDF:
		res, err = e.extractPDF(ctx, data)
	case constants.FormatImage:
		res, err = e.extractImage(ctx, data)
	default:
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	return res, err
}
