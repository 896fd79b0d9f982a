package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string, includeDocument bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("[Content_Types].xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	_, _ = w.Write([]byte(`<?xml version="1.0"?><Types/>`))

	if includeDocument {
		w, err = zw.Create("word/document.xml")
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		_, _ = w.Write([]byte(documentXML))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestDocxExtract_TextRunsAndBreaks(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Cell structure</w:t></w:r></w:p>
    <w:p><w:r><w:t>Line one</w:t><w:br/><w:t>line two</w:t></w:r></w:p>
    <w:p><w:r><w:t>col a</w:t><w:tab/><w:t>col b</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := DocxExtractor{}.Extract(context.Background(), buildDocx(t, doc, true))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	for _, want := range []string{"Cell structure", "Line one\nline two", "col a\tcol b"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(text, "Cell structure\n") {
		t.Errorf("paragraph end should produce a newline:\n%s", text)
	}
}

func TestDocxExtract_IgnoresNonTextMarkup(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>only this</w:t></w:r></w:p></w:body>
</w:document>`

	text, err := DocxExtractor{}.Extract(context.Background(), buildDocx(t, doc, true))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if strings.TrimSpace(text) != "only this" {
		t.Fatalf("got %q, want only the text run content", text)
	}
}

func TestDocxExtract_MissingDocumentPart(t *testing.T) {
	_, err := DocxExtractor{}.Extract(context.Background(), buildDocx(t, "", false))
	if err == nil || !strings.Contains(err.Error(), "word/document.xml") {
		t.Fatalf("got %v, want missing document part error", err)
	}
}

func TestDocxExtract_NotAZip(t *testing.T) {
	if _, err := (DocxExtractor{}).Extract(context.Background(), []byte("plainly not a zip")); err == nil {
		t.Fatal("expected an error for non-zip input")
	}
}
