//go:build gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine calls libtesseract in-process. Build with -tags gosseract.
type GosseractEngine struct {
	cfg    Config
	logger *slog.Logger
}

func NewGosseractEngine(cfg Config, logger *slog.Logger) *GosseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &GosseractEngine{cfg: cfg.withDefaults(), logger: logger}
}

func (g *GosseractEngine) Recognize(ctx context.Context, img image.Image) (PageText, error) {
	if err := ctx.Err(); err != nil {
		return PageText{}, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return PageText{}, fmt.Errorf("encode page image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if g.cfg.TessdataDir != "" {
		client.SetTessdataPrefix(g.cfg.TessdataDir)
	}
	if err := client.SetLanguage(strings.Split(g.cfg.TesseractLang, "+")...); err != nil {
		return PageText{}, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(g.cfg.PSM)); err != nil {
		return PageText{}, fmt.Errorf("set psm: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return PageText{}, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return PageText{}, fmt.Errorf("bounding boxes: %w", err)
	}

	var (
		b       strings.Builder
		lineKey [3]int
		sum     float64
		kept    int
	)
	for _, box := range boxes {
		if box.Confidence <= g.cfg.MinWordConfidence || strings.TrimSpace(box.Word) == "" {
			continue
		}
		key := [3]int{box.BlockNum, box.ParNum, box.LineNum}
		switch {
		case kept == 0:
		case key != lineKey:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		lineKey = key
		b.WriteString(box.Word)
		sum += box.Confidence
		kept++
	}
	pt := PageText{Text: b.String(), Words: kept}
	if kept > 0 {
		pt.Confidence = sum / float64(kept)
	}
	g.logger.Debug("gosseract page done", "words", pt.Words, "confidence", pt.Confidence)
	return pt, nil
}

func defaultEngine(cfg Config, _ Runner, logger *slog.Logger) Engine {
	return NewGosseractEngine(cfg, logger)
}
