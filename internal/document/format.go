package document

// Format is the document format chosen for one extraction call.
type Format string

const (
	FormatPDF       Format = "pdf"
	FormatDOCX      Format = "docx"
	FormatPPTX      Format = "pptx"
	FormatImage     Format = "image"
	FormatPlainText Format = "text"
)

// Known MIME types
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Source is one document handed to the processor. The processor only reads
// Data and never keeps it after ExtractText returns.
type Source struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Outcome is the result of one extraction. Text is always valid UTF-8 and
// is empty on total failure. Succeeded reports whether the format's own
// extractor produced Text, as opposed to the plain-text fallback.
type Outcome struct {
	Text      string `json:"text"`
	Format    Format `json:"format"`
	Succeeded bool   `json:"succeeded"`
}

// State is a step of the extraction state machine.
type State int

const (
	StateClassifying State = iota
	StateExtracting
	StateSucceeded
	StateFallbackAttempted
	StateDone
)

func (s State) String() string {
	switch s {
	case StateClassifying:
		return "classifying"
	case StateExtracting:
		return "extracting"
	case StateSucceeded:
		return "succeeded"
	case StateFallbackAttempted:
		return "fallback_attempted"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
