package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// PageText is the recognized text of one page image.
type PageText struct {
	Text       string
	Confidence float64 // mean kept-word confidence, 0..100
	Words      int
}

// Engine recognizes text in a page image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (PageText, error)
}

// TesseractEngine runs the tesseract CLI in TSV mode.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseractEngine(cfg Config, runner Runner, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = newExecRunner(logger)
	}
	return &TesseractEngine{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

func (t *TesseractEngine) Recognize(ctx context.Context, img image.Image) (PageText, error) {
	tmpDir, err := os.MkdirTemp("", "pt-tess-*")
	if err != nil {
		return PageText{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	path := filepath.Join(tmpDir, "page.png")
	if err := imaging.Save(img, path); err != nil {
		return PageText{}, fmt.Errorf("write page image: %w", err)
	}

	// tesseract <png> stdout -l por+eng --oem 3 --psm 6 tsv
	args := []string{path, "stdout", "-l", t.cfg.TesseractLang,
		"--oem", strconv.Itoa(t.cfg.OEM), "--psm", strconv.Itoa(t.cfg.PSM)}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, err := t.runner.Run(ctx, Command{Stage: "recognize", Bin: t.cfg.Tesseract, Args: args})
	if err != nil {
		return PageText{}, err
	}
	return parseTSV(string(out), t.cfg.MinWordConfidence), nil
}

// parseTSV rebuilds line text from tesseract TSV rows, keeping words whose
// confidence is above minConf.
//
// Columns: level page_num block_num par_num line_num word_num left top width height conf text
func parseTSV(tsv string, minConf float64) PageText {
	var (
		b        strings.Builder
		lineKey  string
		lineBuf  []string
		sum      float64
		kept     int
		flushOut = func() {
			if len(lineBuf) == 0 {
				return
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(strings.Join(lineBuf, " "))
			lineBuf = lineBuf[:0]
		}
	)
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue // only word rows carry text
		}
		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf <= minConf {
			continue
		}
		key := strings.Join(cols[1:5], ".")
		if key != lineKey {
			flushOut()
			lineKey = key
		}
		lineBuf = append(lineBuf, word)
		sum += conf
		kept++
	}
	flushOut()

	pt := PageText{Text: b.String(), Words: kept}
	if kept > 0 {
		pt.Confidence = sum / float64(kept)
	}
	return pt
}
