package extract

import (
	"errors"
	"testing"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()

	text, err := r.Extract([]byte("hello world"), "essay.txt")
	if err != nil || text != "hello world" {
		t.Fatalf("plain text extraction failed: %q %v", text, err)
	}

	if _, err := r.Extract([]byte("x"), "slides.pptx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := r.Extract([]byte("x"), "noextension"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRegistryCaseInsensitiveExtension(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Extract([]byte("content"), "ESSAY.TXT"); err != nil {
		t.Fatalf("uppercase extension should dispatch: %v", err)
	}
}

func TestPlainTextErrors(t *testing.T) {
	var p PlainText
	if _, err := p.Extract([]byte("   \n\t  "), "a.txt"); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := p.Extract([]byte{0xff, 0xfe, 0x81}, "a.txt"); !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument for invalid UTF-8, got %v", err)
	}
}

func TestPDFRejectsGarbage(t *testing.T) {
	var p PDF
	if _, err := p.Extract([]byte("definitely not a pdf"), "a.pdf"); !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument, got %v", err)
	}
}
