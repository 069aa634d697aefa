package extract

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF pulls the text layer out of a PDF. Scanned documents without a text
// layer come back as ErrEmptyDocument; OCR is out of scope.
type PDF struct{}

func (PDF) Extract(data []byte, _ string) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ErrCorruptDocument
	}

	content, err := r.GetPlainText()
	if err != nil {
		return "", ErrCorruptDocument
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, content); err != nil {
		return "", ErrCorruptDocument
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}
