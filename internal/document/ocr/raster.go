package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the resolution scanned pages are rendered at before OCR.
const DefaultDPI = 300

// Rasterizer renders PDF pages to PNG images with MuPDF.
type Rasterizer struct {
	dpi      float64
	maxPages int
}

// NewRasterizer creates a rasterizer rendering at dpi. maxPages bounds how
// many leading pages are rendered; zero renders all of them.
func NewRasterizer(dpi float64, maxPages int) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Rasterizer{dpi: dpi, maxPages: maxPages}
}

// Rasterize returns one PNG per page in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, pdf []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if r.maxPages > 0 && n > r.maxPages {
		n = r.maxPages
	}

	pages := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(i, r.dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}
