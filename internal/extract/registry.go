// Package extract turns uploaded file bytes into plain text, dispatching on
// MIME type. Presentation formats are deliberately unimplemented so the
// client can say "format not supported" instead of a generic error.
package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrUnsupportedFormat = errors.New("extract: unsupported format")

const (
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Extractor turns raw file bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

type Registry struct {
	mu     sync.RWMutex
	byMIME map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string]Extractor)}
}

// Register binds a MIME type to an extractor. A trailing "/*" registers a
// whole family, e.g. "image/*".
func (r *Registry) Register(mimeType string, e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byMIME[normalizeMIME(mimeType)] = e
}

func (r *Registry) ForMIME(mimeType string) (Extractor, error) {
	mt := normalizeMIME(mimeType)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byMIME[mt]; ok {
		return e, nil
	}
	if slash := strings.Index(mt, "/"); slash > 0 {
		if e, ok := r.byMIME[mt[:slash]+"/*"]; ok {
			return e, nil
		}
	}
	return nil, ErrUnsupportedFormat
}

// Default wires up the supported formats: PDF, DOCX and OCR-backed images.
func Default(ocr *OCRClient) *Registry {
	r := NewRegistry()
	r.Register(MIMEPDF, PDFExtractor{})
	r.Register(MIMEDocx, DocxExtractor{})
	r.Register("image/*", &ImageExtractor{OCR: ocr})
	return r
}

func normalizeMIME(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if semi := strings.Index(mt, ";"); semi >= 0 {
		mt = strings.TrimSpace(mt[:semi])
	}
	return mt
}
