package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Rasterizer turns a PDF into page images in document order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error)
}

// PopplerRasterizer renders pages with pdftoppm.
type PopplerRasterizer struct {
	bin      string
	dpi      int
	maxPages int
	runner   Runner
	logger   *slog.Logger
}

func NewPopplerRasterizer(cfg Config, runner Runner, logger *slog.Logger) *PopplerRasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = newExecRunner(logger)
	}
	cfg = cfg.withDefaults()
	return &PopplerRasterizer{bin: cfg.Pdftoppm, dpi: cfg.DPI, maxPages: cfg.MaxPages, runner: runner, logger: logger}
}

func (p *PopplerRasterizer) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	tmpDir, in, err := writeTempPDF(pdf)
	if err != nil {
		return nil, err
	}
	defer removeAll(p.logger, tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(p.dpi), "-png"}
	if p.maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.maxPages))
	}
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	args = append(args, in, prefix)
	if _, err := p.runner.Run(ctx, Command{Stage: "rasterize", Bin: p.bin, Args: args}); err != nil {
		return nil, err
	}

	// page-1.png, page-2.png, ... (zero-padded when there are 10+ pages)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortByPageNumber(matches)
	return openImages(matches, p.maxPages)
}

// PDFCPURasterizer pulls the embedded page images out of scanned PDFs.
// It needs no external binaries but only works for image-only PDFs.
type PDFCPURasterizer struct {
	maxPages int
	logger   *slog.Logger
}

func NewPDFCPURasterizer(maxPages int, logger *slog.Logger) *PDFCPURasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPURasterizer{maxPages: maxPages, logger: logger}
}

func (p *PDFCPURasterizer) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpDir, in, err := writeTempPDF(pdf)
	if err != nil {
		return nil, err
	}
	defer removeAll(p.logger, tmpDir)

	outDir := filepath.Join(tmpDir, "images")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return nil, err
	}
	if err := api.ExtractImagesFile(in, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("pdfcpu extract images: %w", err)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, en := range entries {
		if !en.IsDir() {
			paths = append(paths, filepath.Join(outDir, en.Name()))
		}
	}
	sortByPageNumber(paths)
	return openImages(paths, p.maxPages)
}

func writeTempPDF(pdf []byte) (dir, path string, err error) {
	dir, err = os.MkdirTemp("", "pt-pdf-*")
	if err != nil {
		return "", "", err
	}
	path = filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return "", "", fmt.Errorf("write temp pdf: %w", err)
	}
	return dir, path, nil
}

func removeAll(logger *slog.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
	}
}

var rePageNum = regexp.MustCompile(`(\d+)`)

// sortByPageNumber orders paths by the first number in the file name.
func sortByPageNumber(paths []string) {
	num := func(p string) int {
		m := rePageNum.FindString(filepath.Base(p))
		n, _ := strconv.Atoi(m)
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool {
		ni, nj := num(paths[i]), num(paths[j])
		if ni != nj {
			return ni < nj
		}
		return paths[i] < paths[j]
	})
}

func openImages(paths []string, maxPages int) ([]image.Image, error) {
	if maxPages > 0 && len(paths) > maxPages {
		paths = paths[:maxPages]
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no pages rendered")
	}
	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open page %s: %w", filepath.Base(p), err)
		}
		images = append(images, img)
	}
	return images, nil
}
