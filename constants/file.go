package constants

import "strings"

// File formats accepted by the OCR extractor.
const (
	FormatPDF   = "PDF"
	FormatImage = "IMAGE"
)

// FileTypes holds the formats the pipeline can turn into text.
var FileTypes = []string{FormatPDF, FormatImage}

// AllowedExtensions holds the file extensions accepted for payslip uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// Upload limits.
const (
	MaxUploadBytes   int64 = 10 << 20
	SmallUploadBytes int64 = 50 << 10
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns FormatPDF or FormatImage for an allowed extension, "" otherwise.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return FormatPDF
	case "jpg", "jpeg", "png":
		return FormatImage
	default:
		return ""
	}
}
