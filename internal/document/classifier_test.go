package document

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		filename string
		want     Format
	}{
		{name: "pdf mime", mimeType: "application/pdf", want: FormatPDF},
		{name: "docx mime", mimeType: MIMETypeDOCX, want: FormatDOCX},
		{name: "pptx mime", mimeType: MIMETypePPTX, want: FormatPPTX},
		{name: "any image mime", mimeType: "image/heic", want: FormatImage},
		{name: "mime with params", mimeType: "Application/PDF; name=x", want: FormatPDF},
		{name: "pdf extension", filename: "notes.PDF", want: FormatPDF},
		{name: "docx extension", filename: "essay.docx", want: FormatDOCX},
		{name: "pptx extension", filename: "lecture.pptx", want: FormatPPTX},
		{name: "jpeg extension", filename: "board.jpeg", want: FormatImage},
		{name: "webp extension", filename: "scan.webp", want: FormatImage},
		{name: "txt extension", filename: "todo.txt", want: FormatPlainText},
		{name: "unknown extension", filename: "data.bin", want: FormatPlainText},
		{name: "nothing", want: FormatPlainText},
		{name: "mime beats extension", mimeType: "application/pdf", filename: "renamed.txt", want: FormatPDF},
		{name: "mime beats image extension", mimeType: MIMETypePPTX, filename: "slides.png", want: FormatPPTX},
		{name: "unknown mime falls to extension", mimeType: "application/octet-stream", filename: "deck.pptx", want: FormatPPTX},
		{name: "text mime is plain", mimeType: "text/plain", filename: "x.md", want: FormatPlainText},
		{name: "legacy doc is plain", filename: "old.doc", want: FormatPlainText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.mimeType, tt.filename); got != tt.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tt.mimeType, tt.filename, got, tt.want)
			}
		})
	}
}
