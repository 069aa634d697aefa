package extract

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Extractor turns an uploaded file into plain text for the pipeline. The
// format-specific parsers behind it are black boxes; the pipeline only
// ever sees the returned string.
type Extractor interface {
	Extract(data []byte, filename string) (string, error)
}

var (
	ErrEmptyDocument     = errors.New("document contains no extractable text")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("document is corrupt or unreadable")
)

// Registry dispatches on file extension.
type Registry struct {
	byExt map[string]Extractor
}

func NewRegistry() *Registry {
	r := &Registry{byExt: map[string]Extractor{}}
	r.Register(PlainText{}, ".txt", ".md", ".text")
	r.Register(PDF{}, ".pdf")
	return r
}

func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

func (r *Registry) Extract(data []byte, filename string) (string, error) {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return "", ErrUnsupportedFormat
	}
	e, ok := r.byExt[strings.ToLower(filename[i:])]
	if !ok {
		return "", ErrUnsupportedFormat
	}
	return e.Extract(data, filename)
}

// PlainText accepts UTF-8 text files as-is.
type PlainText struct{}

func (PlainText) Extract(data []byte, _ string) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrCorruptDocument
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}
