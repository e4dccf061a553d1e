package doctext

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"trainee-backend/internal/extract"
	"trainee-backend/internal/testutil/docxtest"
	"trainee-backend/internal/testutil/pdftest"
)

func TestFromBytesZipDocxNormalizes(t *testing.T) {
	data := docxtest.Build([]string{"Dear ", "Jane"}, []string{"Welcome"})

	text, err := FromBytes(data, "application/zip", "letter.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if text != "Dear Jane\nWelcome" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestFromBytesRealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	w.Write([]byte("hello"))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = FromBytes(buf.Bytes(), "application/zip", "notes.zip")
	if err == nil || !strings.Contains(err.Error(), "unsupported mime type: application/zip") {
		t.Fatalf("expected unsupported mime error, got %v", err)
	}
}

func TestFromPDF(t *testing.T) {
	text, err := FromBytes(pdftest.Build("Hello Jane"), extract.MimePDF, "letter.pdf")
	if err != nil {
		t.Fatalf("extract pdf: %v", err)
	}
	if !strings.Contains(text, "Jane") {
		t.Fatalf("expected text to contain Jane, got %q", text)
	}
}

func TestFromDOCXRejectsMalformedXML(t *testing.T) {
	data := docxtest.BuildWithParts(`<w:document><w:body><w:p><w:t>x</w:t></w:r></w:p></w:body></w:document>`, nil)
	if _, err := FromDOCX(data); err == nil {
		t.Fatalf("expected malformed document error")
	}
}
