package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Processor handles OCR processing with Tesseract. It keeps the engine's
// default configuration; every call uses its own client so concurrent
// recognitions share no state.
type Processor struct{}

// NewProcessor creates a new OCR processor
func NewProcessor() *Processor {
	return &Processor{}
}

// Recognize extracts text from an encoded raster image. A blank image is not
// an error: the engine ran and found nothing, so the result is "".
func (p *Processor) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}
