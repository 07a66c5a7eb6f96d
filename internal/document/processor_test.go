package document

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sanjeevkumarraob/study-material-service/internal/document/extractor"
	"github.com/sanjeevkumarraob/study-material-service/internal/document/testdocs"
)

type fakeOCR struct {
	text string
	err  error
}

func (f fakeOCR) Recognize(ctx context.Context, img []byte) (string, error) {
	return f.text, f.err
}

type extractorFunc func(ctx context.Context, data []byte) (string, error)

func (f extractorFunc) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

func newTestProcessor(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	return NewProcessor(zaptest.NewLogger(t), Config{OCR: fakeOCR{text: "whiteboard notes"}}, opts...)
}

func TestExtractText_WellFormedSamples(t *testing.T) {
	tests := []struct {
		name   string
		src    Source
		format Format
		want   string
	}{
		{
			name:   "pdf",
			src:    Source{Data: testdocs.PDF("Cell membrane transport"), Filename: "bio.pdf"},
			format: FormatPDF,
			want:   "Cell membrane transport",
		},
		{
			name:   "docx",
			src:    Source{Data: testdocs.DOCX("Treaty of Westphalia"), MIMEType: MIMETypeDOCX},
			format: FormatDOCX,
			want:   "Treaty of Westphalia",
		},
		{
			name:   "pptx",
			src:    Source{Data: testdocs.PPTX(testdocs.SlideXML("Newton's laws")), Filename: "physics.pptx"},
			format: FormatPPTX,
			want:   "Newton's laws",
		},
		{
			name:   "image",
			src:    Source{Data: testdocs.PNG(), MIMEType: "image/png"},
			format: FormatImage,
			want:   "whiteboard notes",
		},
		{
			name:   "plain text",
			src:    Source{Data: []byte("Quadratic formula"), Filename: "math.txt"},
			format: FormatPlainText,
			want:   "Quadratic formula",
		},
	}

	p := newTestProcessor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := p.ExtractText(context.Background(), tt.src)
			if out.Format != tt.format {
				t.Fatalf("Format = %q, want %q", out.Format, tt.format)
			}
			if !out.Succeeded {
				t.Fatalf("Succeeded = false for a well-formed %s", tt.name)
			}
			if !strings.Contains(out.Text, tt.want) {
				t.Fatalf("Text = %q, want it to contain %q", out.Text, tt.want)
			}
		})
	}
}

func TestExtractText_EmptyInputNeverFails(t *testing.T) {
	p := newTestProcessor(t)
	for _, f := range []string{"a.pdf", "a.docx", "a.pptx", "a.png", "a.txt", ""} {
		t.Run(f, func(t *testing.T) {
			out := p.ExtractText(context.Background(), Source{Data: []byte{}, Filename: f})
			if out.Text != "" {
				t.Fatalf("Text = %q, want empty", out.Text)
			}
		})
	}
}

func TestExtractText_FallbackToPlainText(t *testing.T) {
	var transitions []State
	p := newTestProcessor(t, WithTransitionHook(func(from, to State) {
		transitions = append(transitions, to)
	}))

	out := p.ExtractText(context.Background(), Source{Data: []byte("actually a text file"), Filename: "mislabelled.docx"})

	if out.Format != FormatDOCX {
		t.Fatalf("Format = %q, want docx", out.Format)
	}
	if out.Succeeded {
		t.Fatal("Succeeded = true, want false after fallback")
	}
	if out.Text != "actually a text file" {
		t.Fatalf("Text = %q", out.Text)
	}

	want := []State{StateExtracting, StateFallbackAttempted, StateDone}
	if !reflect.DeepEqual(transitions, want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
}

func TestExtractText_SuccessTransitions(t *testing.T) {
	var transitions []State
	p := newTestProcessor(t, WithTransitionHook(func(from, to State) {
		transitions = append(transitions, to)
	}))

	p.ExtractText(context.Background(), Source{Data: []byte("hello"), Filename: "a.txt"})

	want := []State{StateExtracting, StateSucceeded, StateDone}
	if !reflect.DeepEqual(transitions, want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
}

func TestExtractText_FallbackAlsoFails(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	junk := make([]byte, 2048)
	r.Read(junk)

	out := newTestProcessor(t).ExtractText(context.Background(), Source{Data: junk, MIMEType: "application/pdf"})
	if out.Text != "" || out.Succeeded {
		t.Fatalf("got %+v, want empty unsuccessful outcome", out)
	}
}

func TestExtractText_UnclassifiableBinary(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	junk := make([]byte, 1024)
	r.Read(junk)

	out := newTestProcessor(t).ExtractText(context.Background(), Source{Data: junk})
	if out.Format != FormatPlainText {
		t.Fatalf("Format = %q, want text", out.Format)
	}
	if !utf8.ValidString(out.Text) {
		t.Fatalf("Text is not valid UTF-8: %q", out.Text)
	}
}

func TestExtractText_OCRFailureIsEmpty(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewProcessor(zap.New(core), Config{OCR: fakeOCR{text: "never"}})

	out := p.ExtractText(context.Background(), Source{Data: []byte("corrupt image payload"), MIMEType: "image/jpeg"})

	if out != (Outcome{Text: "", Format: FormatImage, Succeeded: false}) {
		t.Fatalf("got %+v", out)
	}
	if logs.FilterLevelExact(zap.WarnLevel).FilterMessage("ocr failed, returning empty text").Len() != 1 {
		t.Fatalf("expected one ocr warning, got %v", logs.All())
	}
	if logs.FilterLevelExact(zap.ErrorLevel).Len() != 0 {
		t.Fatal("ocr failure must not be logged as an error")
	}
}

func TestExtractText_EngineErrorIsEmpty(t *testing.T) {
	p := NewProcessor(zaptest.NewLogger(t), Config{OCR: fakeOCR{err: errors.New("tesseract: failed")}})

	out := p.ExtractText(context.Background(), Source{Data: testdocs.PNG(), Filename: "scan.png"})
	if out.Text != "" || out.Succeeded {
		t.Fatalf("got %+v, want empty unsuccessful outcome", out)
	}
}

func TestExtractText_BlankImageSucceedsEmpty(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewProcessor(zap.New(core), Config{OCR: fakeOCR{text: ""}})

	out := p.ExtractText(context.Background(), Source{Data: testdocs.PNG(), Filename: "blank.png"})
	if out != (Outcome{Text: "", Format: FormatImage, Succeeded: true}) {
		t.Fatalf("got %+v, want empty successful outcome", out)
	}
	if logs.Len() != 0 {
		t.Fatalf("blank image logged warnings: %v", logs.All())
	}
}

func TestExtractText_RecoversPanics(t *testing.T) {
	boom := extractorFunc(func(ctx context.Context, data []byte) (string, error) {
		panic("parser blew up")
	})
	p := newTestProcessor(t, WithExtractor(FormatPDF, boom))

	out := p.ExtractText(context.Background(), Source{Data: []byte("%PDF-ish text"), Filename: "x.pdf"})
	if out.Succeeded {
		t.Fatal("Succeeded = true after a panic")
	}
	if out.Text != "%PDF-ish text" {
		t.Fatalf("Text = %q, want plain-text fallback", out.Text)
	}
}

func TestExtractText_InvalidUTF8FromExtractorIsCleaned(t *testing.T) {
	dirty := extractorFunc(func(ctx context.Context, data []byte) (string, error) {
		return "ok\xffok", nil
	})
	p := newTestProcessor(t, WithExtractor(FormatPPTX, dirty))

	out := p.ExtractText(context.Background(), Source{Filename: "x.pptx"})
	if out.Text != "okok" || !out.Succeeded {
		t.Fatalf("got %+v", out)
	}
}

func TestExtractText_BlankPDFSucceedsEmpty(t *testing.T) {
	out := newTestProcessor(t).ExtractText(context.Background(), Source{Data: testdocs.PDF(""), Filename: "blank.pdf"})
	if !out.Succeeded || out.Text != "" {
		t.Fatalf("got %+v, want succeeded with empty text", out)
	}
}

func TestExtractText_Idempotent(t *testing.T) {
	p := newTestProcessor(t)
	sources := []Source{
		{Data: testdocs.PPTX(testdocs.SlideXML("one"), testdocs.SlideXML("two")), Filename: "a.pptx"},
		{Data: testdocs.DOCX("para"), Filename: "a.docx"},
		{Data: testdocs.PDF("page"), Filename: "a.pdf"},
		{Data: []byte("words"), Filename: "a.txt"},
	}

	for _, src := range sources {
		first := p.ExtractText(context.Background(), src)
		second := p.ExtractText(context.Background(), src)
		if first != second {
			t.Fatalf("%s: %+v != %+v", src.Filename, first, second)
		}
	}
}

func TestExtractText_Concurrent(t *testing.T) {
	p := newTestProcessor(t)
	data := testdocs.PPTX(testdocs.SlideXML("shared deck"))

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := p.ExtractText(context.Background(), Source{Data: data, Filename: "deck.pptx"})
			if out.Text != "shared deck" {
				errs <- out.Text
			}
		}()
	}
	wg.Wait()
	close(errs)

	for text := range errs {
		t.Errorf("concurrent extraction returned %q", text)
	}
}

var _ extractor.Extractor = extractorFunc(nil)
