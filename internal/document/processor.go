package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/study-material-service/internal/document/extractor"
)

// Config wires the optional engines behind the format extractors.
type Config struct {
	// OCR recognises text in images. Nil disables image extraction.
	OCR extractor.Recognizer
	// Rasterizer renders PDF pages for OCR when a PDF has no text layer.
	Rasterizer extractor.PageRasterizer
	// OCRTimeout bounds a single OCR run. Zero means no bound.
	OCRTimeout time.Duration
	// OCRConcurrency caps calls running inside the OCR engine. Zero means
	// no cap.
	OCRConcurrency int
	// ScannedPDFOCR routes text-less PDFs through Rasterizer and OCR.
	ScannedPDFOCR bool
	// UseUniOffice tries unioffice before the package walker for DOCX.
	UseUniOffice bool
	// MaxDocumentSize bounds uploads read by ProcessFile.
	MaxDocumentSize int64
}

// OutcomeCache short-circuits extraction of documents seen before.
type OutcomeCache interface {
	Cached(ctx context.Context, src Source, extract func(context.Context, Source) Outcome) Outcome
}

// Option customises a Processor.
type Option func(*Processor)

// WithExtractor replaces the extractor used for one format.
func WithExtractor(f Format, e extractor.Extractor) Option {
	return func(p *Processor) { p.extractors[f] = e }
}

// WithCache routes ProcessFile through c.
func WithCache(c OutcomeCache) Option {
	return func(p *Processor) { p.cache = c }
}

// WithTransitionHook registers fn to observe every state transition.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(p *Processor) { p.onTransition = fn }
}

// Processor is the only entry point for document extraction. It is safe
// for concurrent use; calls share no mutable state.
type Processor struct {
	extractors      map[Format]extractor.Extractor
	plainExtractor  *extractor.PlainExtractor
	logger          *zap.Logger
	maxDocumentSize int64
	onTransition    func(from, to State)
	cache           OutcomeCache
}

// NewProcessor creates a new document processor
func NewProcessor(logger *zap.Logger, cfg Config, opts ...Option) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxDocumentSize <= 0 {
		cfg.MaxDocumentSize = DefaultMaxDocumentSize
	}

	if cfg.OCR != nil && cfg.OCRConcurrency > 0 {
		cfg.OCR = extractor.NewLimitedRecognizer(cfg.OCR, int64(cfg.OCRConcurrency))
	}

	var pdfOpts []extractor.PDFOption
	if cfg.ScannedPDFOCR && cfg.Rasterizer != nil && cfg.OCR != nil {
		pdfOpts = append(pdfOpts, extractor.WithScannedPageOCR(cfg.Rasterizer, cfg.OCR, cfg.OCRTimeout))
	}

	plain := extractor.NewPlainExtractor()
	p := &Processor{
		extractors: map[Format]extractor.Extractor{
			FormatPDF:   extractor.NewPDFExtractor(logger, pdfOpts...),
			FormatDOCX:  extractor.NewDOCXExtractor(cfg.UseUniOffice),
			FormatPPTX:  extractor.NewPPTXExtractor(logger),
			FormatImage: extractor.NewImageExtractor(cfg.OCR, cfg.OCRTimeout),
		},
		plainExtractor:  plain,
		logger:          logger,
		maxDocumentSize: cfg.MaxDocumentSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ExtractText classifies src, runs the matching extractor and falls back to
// a plain-text decode when that extractor fails. It never panics and never
// returns an error: failures end in an Outcome with empty Text and
// Succeeded false.
func (p *Processor) ExtractText(ctx context.Context, src Source) Outcome {
	var (
		out     Outcome
		failure error
		state   = StateClassifying
	)

	for state != StateDone {
		var next State

		switch state {
		case StateClassifying:
			out.Format = Classify(src.MIMEType, src.Filename)
			next = StateExtracting

		case StateExtracting:
			text, err := p.runExtractor(ctx, out.Format, src)
			if err != nil {
				failure = err
				next = StateFallbackAttempted
				break
			}
			out.Text = text
			next = StateSucceeded

		case StateSucceeded:
			out.Succeeded = true
			next = StateDone

		case StateFallbackAttempted:
			out.Text = p.fallback(out.Format, src, failure)
			next = StateDone
		}

		p.transition(src, state, next)
		state = next
	}

	out.Text = strings.ToValidUTF8(out.Text, "")
	return out
}

func (p *Processor) runExtractor(ctx context.Context, f Format, src Source) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s extractor panicked: %v", extractor.ErrUnsupportedContainer, f, r)
		}
	}()

	if f == FormatPlainText {
		if e, ok := p.extractors[f]; ok {
			return e.Extract(ctx, src.Data)
		}
		return p.plainExtractor.Decode(src.Data, src.MIMEType)
	}

	e, ok := p.extractors[f]
	if !ok {
		return "", fmt.Errorf("no extractor registered for %s", f)
	}
	return e.Extract(ctx, src.Data)
}

// fallback decodes the original bytes as plain text after the format's
// extractor failed. OCR failures and plain-text failures are not retried:
// image bytes never decode to meaningful text and a second plain decode
// would fail the same way.
func (p *Processor) fallback(f Format, src Source, failure error) string {
	fields := []zap.Field{
		zap.String("filename", src.Filename),
		zap.String("format", string(f)),
		zap.Int("bytes", len(src.Data)),
		zap.Error(failure),
	}

	if errors.Is(failure, extractor.ErrEngineFailure) {
		p.logger.Warn("ocr failed, returning empty text", fields...)
		return ""
	}
	if f == FormatPlainText {
		p.logger.Warn("document is not decodable as text", fields...)
		return ""
	}

	p.logger.Warn("extraction failed, falling back to plain text", fields...)

	text, err := p.plainExtractor.Decode(src.Data, src.MIMEType)
	if err != nil {
		p.logger.Warn("plain text fallback failed",
			zap.String("filename", src.Filename),
			zap.String("format", string(f)),
			zap.Error(err))
		return ""
	}
	return text
}

func (p *Processor) transition(src Source, from, to State) {
	if ce := p.logger.Check(zap.DebugLevel, "extraction state transition"); ce != nil {
		ce.Write(
			zap.String("filename", src.Filename),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}
	if p.onTransition != nil {
		p.onTransition(from, to)
	}
}
