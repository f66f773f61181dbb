package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Hello world\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") {
		t.Errorf("got %q", got)
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBytes_docxPreservesParagraphs(t *testing.T) {
	docXML := `<?xml version="1.0"?><w:document><w:body>` +
		`<w:p w:rsidR="00A"><w:r><w:t>Articles of Association</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">The Company is </w:t></w:r><w:r><w:t>incorporated in ADGM.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>   </w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Signed by the Director.</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	e := NewExtractor()
	got, err := e.ExtractBytes(buildDocx(t, docXML), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d: %q", len(lines), got)
	}
	if lines[0] != "Articles of Association" {
		t.Errorf("paragraph 0: %q", lines[0])
	}
	if lines[1] != "The Company is incorporated in ADGM." {
		t.Errorf("paragraph 1: %q", lines[1])
	}
	if lines[2] != "Signed by the Director." {
		t.Errorf("paragraph 2: %q", lines[2])
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestExtractBytes_xlsx(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "Fee Schedule")
	_ = f.SetCellValue("Sheet1", "B1", "Amount")
	_ = f.SetCellValue("Sheet1", "A2", "Incorporation")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.Contains(got, "Fee Schedule") || !strings.Contains(got, "Incorporation") {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_unknownExtensionFallsBackToPlain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("some clause"), ".clause")
	if err != nil || got != "some clause" {
		t.Errorf("got %q, %v", got, err)
	}
}
