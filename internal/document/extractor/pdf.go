package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// encryptEntry matches a trailer /Encrypt entry, either inline or by reference.
var encryptEntry = regexp.MustCompile(`/Encrypt\s*(?:<<|\d+\s+\d+\s+R)`)

// PDFExtractor extracts text from PDF documents
type PDFExtractor struct {
	rasterizer PageRasterizer
	recognizer Recognizer
	ocrTimeout time.Duration
	logger     *zap.Logger
}

// PDFOption configures a PDFExtractor.
type PDFOption func(*PDFExtractor)

// WithScannedPageOCR makes the extractor rasterise and OCR documents whose
// text layer is empty.
func WithScannedPageOCR(rasterizer PageRasterizer, recognizer Recognizer, timeout time.Duration) PDFOption {
	return func(e *PDFExtractor) {
		e.rasterizer = rasterizer
		e.recognizer = recognizer
		e.ocrTimeout = timeout
	}
}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor(logger *zap.Logger, opts ...PDFOption) *PDFExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &PDFExtractor{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract concatenates the text of every page in page order.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty pdf", ErrUnsupportedContainer)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) || declaresEncryption(data) {
			return "", fmt.Errorf("%w: %w: %v", ErrUnsupportedContainer, ErrEncrypted, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}

	numPages := r.NumPage()
	var pages []string

	for i := 1; i <= numPages; i++ {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		text, err := pageText(r, i)
		if err != nil {
			e.logger.Debug("skipping pdf page", zap.Int("page", i), zap.Error(err))
			continue
		}

		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 && numPages > 0 && e.rasterizer != nil && e.recognizer != nil {
		return e.recognizeScannedPages(ctx, data)
	}

	return strings.Join(pages, "\n\n"), nil
}

// declaresEncryption reports whether the file carries a security handler. The
// reader rejects handlers it cannot open with generic errors, so the trailer
// is checked directly.
func declaresEncryption(data []byte) bool {
	return encryptEntry.Match(data)
}

// pageText isolates a single page so that a malformed content stream only
// loses that page.
func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %d: panic: %v", n, p)
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (e *PDFExtractor) recognizeScannedPages(ctx context.Context, data []byte) (string, error) {
	if e.ocrTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.ocrTimeout)
		defer cancel()
	}

	images, err := e.rasterizer.Rasterize(ctx, data)
	if err != nil {
		e.logger.Warn("pdf has no text layer and could not be rasterised", zap.Error(err))
		return "", nil
	}

	var pages []string
	for i, img := range images {
		text, err := recognizeWithin(ctx, e.recognizer, img)
		if err != nil {
			e.logger.Warn("ocr failed on scanned pdf page", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	e.logger.Debug("recognised scanned pdf",
		zap.Int("pages", len(images)),
		zap.Int("pages_with_text", len(pages)))

	return strings.Join(pages, "\n\n"), nil
}
