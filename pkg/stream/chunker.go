package stream

import (
	"bytes"
	"errors"
	"io"
)

// ErrLimitExceeded is returned once more bytes than the configured limit
// have been read.
var ErrLimitExceeded = errors.New("stream exceeds size limit")

// ChunkedReader provides chunked reading capability for large files
type ChunkedReader struct {
	reader    io.Reader
	chunkSize int
	buffer    *bytes.Buffer
	eof       bool
	limit     int64
	total     int64
}

// NewChunkedReader creates a new chunked reader
func NewChunkedReader(reader io.Reader, chunkSize int) *ChunkedReader {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	return &ChunkedReader{
		reader:    reader,
		chunkSize: chunkSize,
		buffer:    bytes.NewBuffer(make([]byte, 0, chunkSize)),
	}
}

// WithLimit makes the reader fail with ErrLimitExceeded after more than n
// bytes. Zero or negative means unlimited.
func (cr *ChunkedReader) WithLimit(n int64) *ChunkedReader {
	cr.limit = n
	return cr
}

// NextChunk reads the next chunk from the reader. The returned slice is only
// valid until the next call.
func (cr *ChunkedReader) NextChunk() ([]byte, error) {
	cr.buffer.Reset()

	if cr.eof {
		return nil, io.EOF
	}

	temp := make([]byte, cr.chunkSize)

	// Read until we have a full chunk or EOF
	for cr.buffer.Len() < cr.chunkSize && !cr.eof {
		n, err := cr.reader.Read(temp[:cr.chunkSize-cr.buffer.Len()])
		if n > 0 {
			cr.buffer.Write(temp[:n])
			cr.total += int64(n)
			if cr.limit > 0 && cr.total > cr.limit {
				return nil, ErrLimitExceeded
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				cr.eof = true
				break
			}
			return nil, err
		}
	}

	if cr.buffer.Len() == 0 {
		return nil, io.EOF
	}

	return cr.buffer.Bytes(), nil
}

// ReadAll reads all chunks into a slice
func (cr *ChunkedReader) ReadAll() ([][]byte, error) {
	var chunks [][]byte

	for {
		chunk, err := cr.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		// Make a copy of the chunk to avoid overwriting
		chunkCopy := make([]byte, len(chunk))
		copy(chunkCopy, chunk)

		chunks = append(chunks, chunkCopy)
	}

	return chunks, nil
}

// ReadBytes reads the whole stream into one contiguous slice.
func (cr *ChunkedReader) ReadBytes() ([]byte, error) {
	var out []byte

	for {
		chunk, err := cr.NextChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		out = append(out, chunk...)
	}

	if out == nil {
		out = []byte{}
	}
	return out, nil
}
