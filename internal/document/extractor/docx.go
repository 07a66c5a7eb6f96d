package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/document"
)

const wordMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DOCXExtractor extracts text from Word documents
type DOCXExtractor struct {
	useUniOffice bool
}

// NewDOCXExtractor creates a new Word extractor. unioffice is only consulted
// when useUniOffice is set, which requires a UniDoc licence key to have been
// registered by the caller.
func NewDOCXExtractor(useUniOffice bool) *DOCXExtractor {
	return &DOCXExtractor{useUniOffice: useUniOffice}
}

// Extract returns the raw paragraph text of a Word document, one paragraph
// per line, with all formatting discarded.
func (e *DOCXExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if e.useUniOffice {
		if text, err := extractWithUniOffice(ctx, data); err == nil {
			return text, nil
		}
	}

	pkg, err := OpenPackage(data)
	if err != nil {
		return "", err
	}

	body, err := pkg.ReadEntry("word/document.xml")
	if err != nil {
		return "", err
	}

	tree, err := ParseTree(body, wordRun)
	if err != nil {
		return "", fmt.Errorf("%w: word/document.xml: %v", ErrUnsupportedContainer, err)
	}

	var paragraphs []string
	for _, p := range FindElements(tree, isWordParagraph) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text := strings.TrimSpace(strings.Join(CollectRuns(p), ""))
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}

func extractWithUniOffice(ctx context.Context, data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var paragraphs []string
	for _, para := range doc.Paragraphs() {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		var paraText strings.Builder
		for _, run := range para.Runs() {
			paraText.WriteString(run.Text())
		}

		if text := strings.TrimSpace(paraText.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}

func isWordParagraph(name Name) bool {
	return name.is(wordMLNamespace, "w", "p")
}

func wordRun(name Name, inner func() string) (string, bool) {
	switch {
	case name.is(wordMLNamespace, "w", "t"):
		return inner(), true
	case name.is(wordMLNamespace, "w", "tab"):
		return "\t", true
	case name.is(wordMLNamespace, "w", "br"), name.is(wordMLNamespace, "w", "cr"):
		return "\n", true
	case name.is(wordMLNamespace, "w", "pPr"), name.is(wordMLNamespace, "w", "rPr"):
		// property blocks hold tab stops, never content
		return "", true
	case isFallback(name):
		return "", true
	}
	return "", false
}
