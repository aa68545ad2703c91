package extract

import (
	"errors"
	"testing"

	"bookrag/internal/domain"
)

func TestText_PlainTextPassthrough(t *testing.T) {
	got, err := Text([]byte("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestText_UnknownMimeTreatedAsPlain(t *testing.T) {
	got, err := Text([]byte("raw bytes"), "application/octet-stream")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "raw bytes" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestText_CorruptPDF(t *testing.T) {
	_, err := Text([]byte("definitely not a pdf"), "application/pdf")
	if err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
	if !errors.Is(err, domain.ErrExtraction) {
		t.Errorf("expected extraction error, got %v", err)
	}
}

func TestText_PDFMimeWithParameters(t *testing.T) {
	if !isPDF("application/pdf; charset=binary") {
		t.Error("expected mime parameters to be ignored")
	}
	if isPDF("text/plain") {
		t.Error("text/plain misclassified as pdf")
	}
}
