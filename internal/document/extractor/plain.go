package extractor

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// minPrintableRatio is the share of printable runes a salvaged decode must
// reach to count as text rather than binary noise.
const minPrintableRatio = 0.85

// PlainExtractor decodes plain text documents
type PlainExtractor struct{}

// NewPlainExtractor creates a new plain text extractor
func NewPlainExtractor() *PlainExtractor {
	return &PlainExtractor{}
}

// Extract decodes data as UTF-8 text.
func (e *PlainExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return e.Decode(data, "")
}

// Decode converts data to UTF-8. A charset parameter on mimeHint is honoured,
// byte order marks select UTF-8 or UTF-16, and anything else is read as
// UTF-8. Invalid sequences are dropped when what remains still looks like
// text; otherwise ErrDecodeFailure is returned.
func (e *PlainExtractor) Decode(data []byte, mimeHint string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	if text, ok := decodeDeclaredCharset(data, mimeHint); ok {
		return text, nil
	}

	decoded, _, err := transform.Bytes(xunicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	if utf8.Valid(decoded) {
		return string(decoded), nil
	}

	salvaged := strings.ToValidUTF8(string(decoded), "")
	if strings.TrimSpace(salvaged) == "" {
		return "", fmt.Errorf("%w: no valid utf-8 content", ErrDecodeFailure)
	}
	if ratio := printableRatio(salvaged); ratio < minPrintableRatio {
		return "", fmt.Errorf("%w: only %.0f%% printable after dropping invalid bytes", ErrDecodeFailure, ratio*100)
	}

	return salvaged, nil
}

func decodeDeclaredCharset(data []byte, mimeHint string) (string, bool) {
	if mimeHint == "" {
		return "", false
	}
	_, params, err := mime.ParseMediaType(mimeHint)
	if err != nil || params["charset"] == "" {
		return "", false
	}

	enc, name := charset.Lookup(params["charset"])
	if enc == nil || name == "utf-8" {
		return "", false
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

// printableRatio returns the share of runes that are printable or ordinary
// whitespace.
func printableRatio(s string) float64 {
	total, printable := 0, 0
	for _, r := range s {
		total++
		switch {
		case r == utf8.RuneError, r >= 0xE000 && r <= 0xF8FF:
		case r == '\n' || r == '\r' || r == '\t' || unicode.IsPrint(r):
			printable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}
