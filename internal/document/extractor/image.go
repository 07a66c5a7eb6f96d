package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageExtractor extracts text from raster images using OCR
type ImageExtractor struct {
	recognizer Recognizer
	timeout    time.Duration
}

// NewImageExtractor creates a new image extractor. A nil recognizer makes
// every extraction fail with ErrEngineFailure.
func NewImageExtractor(recognizer Recognizer, timeout time.Duration) *ImageExtractor {
	return &ImageExtractor{
		recognizer: recognizer,
		timeout:    timeout,
	}
}

// Extract validates that data is a decodable raster image and returns the
// text the OCR engine recognises in it. Every failure, including a timeout,
// is reported as ErrEngineFailure.
func (e *ImageExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if e.recognizer == nil {
		return "", fmt.Errorf("%w: no ocr engine configured", ErrEngineFailure)
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: unsupported image: %v", ErrEngineFailure, err)
	} else if format == "" {
		return "", fmt.Errorf("%w: unknown image codec", ErrEngineFailure)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	return recognizeWithin(ctx, e.recognizer, data)
}

type recognition struct {
	text string
	err  error
}

// recognizeWithin runs the recognizer and gives up when ctx is done. The
// engine call itself may not be interruptible, so it runs on its own
// goroutine and its late result is discarded.
func recognizeWithin(ctx context.Context, r Recognizer, img []byte) (string, error) {
	done := make(chan recognition, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- recognition{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		text, err := r.Recognize(ctx, img)
		done <- recognition{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%w: %v", ErrEngineFailure, res.err)
		}
		return res.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrEngineFailure, ctx.Err())
	}
}
