package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/study-material-service/pkg/stream"
)

// DefaultMaxDocumentSize is the upload limit used when none is configured.
const DefaultMaxDocumentSize = 50 * 1024 * 1024

const readChunkSize = 64 * 1024

// Error definitions
var (
	ErrFileTooLarge      = fmt.Errorf("file size exceeds maximum allowed size")
	ErrMissingFileHeader = errors.New("upload has no file header")
)

// ProcessorResult contains the extracted text and metadata of one upload
type ProcessorResult struct {
	DocumentID string
	Title      string
	Outcome    Outcome
	Metadata   map[string]string
}

// ProcessFile reads an uploaded file and extracts its text. Only reading
// the upload can fail; extraction problems surface as an unsuccessful
// Outcome. The caller owns file and any temporary storage behind it.
func (p *Processor) ProcessFile(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*ProcessorResult, error) {
	if header == nil {
		return nil, ErrMissingFileHeader
	}

	// Check file size
	if header.Size > p.maxDocumentSize {
		return nil, ErrFileTooLarge
	}

	data, err := stream.NewChunkedReader(file, readChunkSize).WithLimit(p.maxDocumentSize).ReadBytes()
	if err != nil {
		if errors.Is(err, stream.ErrLimitExceeded) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
		p.logger.Debug("sniffed upload content type",
			zap.String("filename", header.Filename),
			zap.String("contentType", contentType))
	}

	src := Source{
		Data:     data,
		MIMEType: contentType,
		Filename: header.Filename,
	}

	var outcome Outcome
	if p.cache != nil {
		outcome = p.cache.Cached(ctx, src, p.ExtractText)
	} else {
		outcome = p.ExtractText(ctx, src)
	}

	p.logger.Info("processed upload",
		zap.String("filename", header.Filename),
		zap.String("format", string(outcome.Format)),
		zap.Bool("succeeded", outcome.Succeeded),
		zap.Int("chars", len(outcome.Text)))

	return &ProcessorResult{
		DocumentID: uuid.NewString(),
		Title:      filepath.Base(header.Filename),
		Outcome:    outcome,
		Metadata: map[string]string{
			"filename":    header.Filename,
			"size":        strconv.Itoa(len(data)),
			"contentType": contentType,
			"format":      string(outcome.Format),
		},
	}, nil
}
