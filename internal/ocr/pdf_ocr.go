package ocr

import (
	"context"
	"errors"
	"strings"

	"github.com/joseph-ayodele/payslip-tracker/constants"
)

func errOCRFailed(warns []string) error {
	return errors.New("ocr produced no text: " + strings.Join(warns, "; "))
}

// extractPDF prefers the embedded text layer and falls back to OCR of the
// rasterized pages.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.FormatPDF, Language: e.cfg.TesseractLang}

	text, pages, err := readTextLayer(data, e.cfg.MaxPages)
	if err != nil {
		e.logger.Debug("pdf text layer unavailable", "error", err)
		res.Warnings = append(res.Warnings, "text layer: "+err.Error())
	} else if score := payslipLikeness(text); score >= e.cfg.TextLayerMinScore {
		e.logger.Debug("using pdf text layer", "pages", pages, "score", score)
		res.Text = Normalize(text)
		res.Pages = pages
		res.Method = "pdf-text"
		res.Confidence = 100
		return res, nil
	} else {
		e.logger.Debug("pdf text layer too weak, falling back to ocr", "score", score)
	}

	images, err := e.rasterizer.Rasterize(ctx, data)
	if err != nil {
		e.logger.Error("pdf rasterization failed", "error", err)
		return res, err
	}
	ocrText, conf, warns := e.recognizePages(ctx, images)
	res.Warnings = append(res.Warnings, warns...)
	if ocrText == "" && len(warns) > 0 {
		return res, errOCRFailed(warns)
	}
	res.Text = ocrText
	res.Pages = len(images)
	res.Method = "pdf-ocr"
	res.Confidence = conf
	return res, nil
}
