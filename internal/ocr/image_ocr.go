package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/joseph-ayodele/payslip-tracker/constants"
)

func (e *Extractor) extractImage(ctx context.Context, data []byte) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.FormatImage, Method: "image-ocr", Language: e.cfg.TesseractLang}
	img, err := decodeImage(data)
	if err != nil {
		return res, err
	}
	text, conf, warns := e.recognizePages(ctx, []image.Image{img})
	res.Warnings = warns
	if text == "" && len(warns) > 0 {
		return res, errOCRFailed(warns)
	}
	res.Text = text
	res.Pages = 1
	res.Confidence = conf
	return res, nil
}

// recognizePages OCRs each page and joins the text with a page break
// marker. Confidence is the mean over pages that produced words.
func (e *Extractor) recognizePages(ctx context.Context, pages []image.Image) (string, float64, []string) {
	var (
		b       strings.Builder
		warns   []string
		confSum float64
		counted int
	)
	for i, img := range pages {
		if err := ctx.Err(); err != nil {
			warns = append(warns, err.Error())
			break
		}
		if e.cfg.Preprocess {
			img = Preprocess(img)
		}
		pt, err := e.engine.Recognize(ctx, img)
		if err != nil {
			e.logger.Warn("page ocr failed", "page", i+1, "error", err)
			warns = append(warns, err.Error())
			continue
		}
		if pt.Words > 0 {
			confSum += pt.Confidence
			counted++
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(pt.Text)
	}
	var conf float64
	if counted > 0 {
		conf = confSum / float64(counted)
	}
	return Normalize(b.String()), conf, warns
}
