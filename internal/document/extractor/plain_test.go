package extractor

import (
	"errors"
	"math/rand"
	"testing"
)

func TestPlainExtractor_Decode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		mimeHint string
		want     string
	}{
		{name: "utf-8", data: []byte("Krebs cycle – ATP"), want: "Krebs cycle – ATP"},
		{name: "empty", data: nil, want: ""},
		{name: "utf-8 bom", data: append([]byte{0xEF, 0xBB, 0xBF}, "notes"...), want: "notes"},
		{name: "utf-16le bom", data: []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, want: "hi"},
		{name: "declared latin1", data: []byte{'c', 'a', 'f', 0xE9}, mimeHint: "text/plain; charset=iso-8859-1", want: "café"},
		{name: "stray invalid byte dropped", data: []byte("mostly fine text\xff here"), want: "mostly fine text here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPlainExtractor().Decode(tt.data, tt.mimeHint)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlainExtractor_BinaryIsDecodeFailure(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	data := make([]byte, 4096)
	r.Read(data)

	_, err := NewPlainExtractor().Decode(data, "")
	if !errors.Is(err, ErrDecodeFailure) {
		t.Fatalf("Decode() error = %v, want ErrDecodeFailure", err)
	}
}
