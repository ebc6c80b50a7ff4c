package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
)

// WarnSmallFile is reported for uploads below constants.SmallUploadBytes.
const WarnSmallFile = "file is very small, OCR quality may be affected"

// ValidateUpload checks a candidate document before it is read. It fails for
// unsupported extensions and for sizes above maxBytes (constants.MaxUploadBytes
// when maxBytes <= 0); small files only produce a warning.
func ValidateUpload(name string, size, maxBytes int64) ([]string, error) {
	if maxBytes <= 0 {
		maxBytes = constants.MaxUploadBytes
	}
	ext := constants.NormalizeExt(filepath.Ext(name))
	if ext == "" || !AllowedExt(ext) {
		return nil, fmt.Errorf("%q: %w", name, common.ErrUnsupportedFormat)
	}
	if size > maxBytes {
		return nil, fmt.Errorf("file too large (%s, max %s): %w",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(maxBytes)), common.ErrInvalidInput)
	}
	if size <= 0 {
		return nil, fmt.Errorf("file is empty: %w", common.ErrInvalidInput)
	}

	var warnings []string
	if size < constants.SmallUploadBytes {
		warnings = append(warnings, WarnSmallFile)
	}
	return warnings, nil
}
