package document

import (
	"mime"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// Classify picks the format for a document. A recognised MIME type always
// wins over the filename extension; anything unrecognised is plain text.
func Classify(mimeType, filename string) Format {
	if f, ok := formatFromMIME(mimeType); ok {
		return f
	}
	if f, ok := formatFromExtension(filename); ok {
		return f
	}
	return FormatPlainText
}

func formatFromMIME(mimeType string) (Format, bool) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType, _, _ = strings.Cut(mimeType, ";")
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case mediaType == "":
		return "", false
	case mediaType == MIMETypePDF:
		return FormatPDF, true
	case mediaType == MIMETypeDOCX:
		return FormatDOCX, true
	case mediaType == MIMETypePPTX:
		return FormatPPTX, true
	case strings.HasPrefix(mediaType, "image/"):
		return FormatImage, true
	}
	return "", false
}

func formatFromExtension(filename string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case ext == ".pdf":
		return FormatPDF, true
	case ext == ".docx":
		return FormatDOCX, true
	case ext == ".pptx":
		return FormatPPTX, true
	case imageExtensions[ext]:
		return FormatImage, true
	}
	return "", false
}
