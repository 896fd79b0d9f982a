package extract

import (
	"context"
	"errors"
	"testing"
)

type staticExtractor struct{ text string }

func (s staticExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	_ = data
	return s.text, nil
}

func TestRegistry_NormalizesMIMELookups(t *testing.T) {
	r := NewRegistry()
	r.Register(MIMEPDF, staticExtractor{text: "pdf"})

	for _, mt := range []string{
		MIMEPDF,
		"Application/PDF",
		"application/pdf; charset=binary",
		"  application/pdf  ",
	} {
		e, err := r.ForMIME(mt)
		if err != nil {
			t.Fatalf("ForMIME(%q): %v", mt, err)
		}
		got, _ := e.Extract(context.Background(), nil)
		if got != "pdf" {
			t.Fatalf("ForMIME(%q) dispatched to wrong extractor", mt)
		}
	}
}

func TestRegistry_FamilyFallback(t *testing.T) {
	r := NewRegistry()
	r.Register("image/*", staticExtractor{text: "ocr"})

	e, err := r.ForMIME("image/png")
	if err != nil {
		t.Fatalf("family lookup: %v", err)
	}
	got, _ := e.Extract(context.Background(), nil)
	if got != "ocr" {
		t.Fatal("image/png should fall back to image/*")
	}
}

func TestRegistry_UnknownFormat(t *testing.T) {
	r := NewRegistry()
	r.Register(MIMEPDF, staticExtractor{})

	pptx := "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	if _, err := r.ForMIME(pptx); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestDefault_CoversSupportedFormats(t *testing.T) {
	r := Default(NewOCRClient("http://localhost:0"))

	for _, mt := range []string{MIMEPDF, MIMEDocx, "image/jpeg", "image/png"} {
		if _, err := r.ForMIME(mt); err != nil {
			t.Errorf("ForMIME(%q): %v", mt, err)
		}
	}
	if _, err := r.ForMIME("text/html"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("text/html should be unsupported, got %v", err)
	}
}
