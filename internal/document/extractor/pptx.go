package extractor

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const drawingMLNamespace = "http://schemas.openxmlformats.org/drawingml/2006/main"

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PPTXExtractor extracts text from PowerPoint presentations
type PPTXExtractor struct {
	logger *zap.Logger
}

// NewPPTXExtractor creates a new PowerPoint extractor
func NewPPTXExtractor(logger *zap.Logger) *PPTXExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PPTXExtractor{logger: logger}
}

// Extract returns the text runs of every slide in slide-number order. A
// package that cannot be opened, has no slides, or has no text yields an
// empty string without error.
func (e *PPTXExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		e.logger.Debug("pptx package not readable", zap.Error(err))
		return "", nil
	}

	var slides []string
	for _, entry := range pkg.NumberedEntries(slidePattern) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := slideText(entry)
		if err != nil {
			e.logger.Warn("skipping unreadable slide",
				zap.String("entry", entry.Name),
				zap.Int("slide", entry.Number),
				zap.Error(err))
			continue
		}

		if text != "" {
			slides = append(slides, text)
		}
	}

	return strings.Join(slides, "\n"), nil
}

func slideText(entry PackageEntry) (string, error) {
	data, err := entry.Open()
	if err != nil {
		return "", err
	}

	tree, err := ParseTree(data, slideRun)
	if err != nil {
		return "", err
	}

	var runs []string
	for _, r := range CollectRuns(tree) {
		if r = strings.TrimSpace(r); r != "" {
			runs = append(runs, r)
		}
	}
	if len(runs) == 0 {
		return "", nil
	}
	return strings.Join(runs, " "), nil
}

func slideRun(name Name, inner func() string) (string, bool) {
	switch {
	case name.is(drawingMLNamespace, "a", "t"):
		return inner(), true
	case isFallback(name):
		return "", true
	}
	return "", false
}
