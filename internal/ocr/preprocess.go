package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Preprocess applies the fixed filter chain used before OCR: grayscale,
// light denoise, contrast boost and sharpen.
func Preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.Blur(out, 0.5)
	out = imaging.AdjustContrast(out, 20)
	return imaging.Sharpen(out, 1.0)
}

// decodeImage decodes an uploaded image, honouring EXIF orientation.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
