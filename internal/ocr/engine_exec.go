//go:build !gosseract

package ocr

import "log/slog"

func defaultEngine(cfg Config, runner Runner, logger *slog.Logger) Engine {
	return NewTesseractEngine(cfg, runner, logger)
}
