package extractor

import (
	"context"
	"errors"
)

// Extraction error taxonomy. Callers of document.Processor never see these;
// they are logged and recovered inside the processor.
var (
	ErrUnsupportedContainer = errors.New("unsupported or corrupt container")
	ErrEncrypted            = errors.New("document is encrypted")
	ErrDecodeFailure        = errors.New("bytes are not decodable as text")
	ErrEngineFailure        = errors.New("ocr engine failure")
)

// Extractor turns the raw bytes of one document format into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Recognizer runs optical character recognition over an encoded raster image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// PageRasterizer renders every page of a PDF to an encoded raster image.
type PageRasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}
