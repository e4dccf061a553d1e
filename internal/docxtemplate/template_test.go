package docxtemplate

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"trainee-backend/internal/testutil/doctext"
	"trainee-backend/internal/testutil/docxtest"
)

func docxText(t *testing.T, data []byte) string {
	t.Helper()
	text, err := doctext.FromDOCX(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return text
}

func zipParts(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	parts := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		parts[f.Name] = b
	}
	return parts
}

func TestPopulateWithoutPlaceholdersRoundTrips(t *testing.T) {
	template := docxtest.BuildWithParts(docxtest.DocumentXML([]string{"Plain text"}), map[string]string{
		"word/header1.xml": `<w:hdr xmlns:w="x"><w:p><w:r><w:t>Header</w:t></w:r></w:p></w:hdr>`,
		"word/media/a.bin": "\x00\x01binary",
	})

	out, err := Populate(template, map[string]string{"name": "Jane"})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if !reflect.DeepEqual(zipParts(t, template), zipParts(t, out)) {
		t.Fatalf("expected parts to be byte-equivalent")
	}
}

func TestPopulateReplacesTokens(t *testing.T) {
	template := docxtest.Build([]string{"Dear {name},"}, []string{"Cohort {cohort} starts"})

	out, err := Populate(template, map[string]string{"name": "Jane", "cohort": "2024"})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	text := docxText(t, out)
	if text != "Dear Jane,\nCohort 2024 starts" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestPopulateMergesSplitRuns(t *testing.T) {
	template := docxtest.Build([]string{"Hello {na", "me", "}!"})

	out, err := Populate(template, map[string]string{"name": "Jane"})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if text := docxText(t, out); text != "Hello Jane!" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestPopulateKeepsUnmatchedPlaceholders(t *testing.T) {
	template := docxtest.Build([]string{"{name} and {unknown}"})

	out, err := Populate(template, map[string]string{"name": "Jane", "extra": "ignored"})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if text := docxText(t, out); text != "Jane and {unknown}" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestPopulateEscapesValues(t *testing.T) {
	template := docxtest.Build([]string{"{name}"})

	out, err := Populate(template, map[string]string{"name": "A & B <C>"})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	doc := string(zipParts(t, out)["word/document.xml"])
	if !strings.Contains(doc, "A &amp; B &lt;C&gt;") {
		t.Fatalf("expected escaped value in %s", doc)
	}
	if text := docxText(t, out); text != "A & B <C>" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestPopulateSubstitutesHeaders(t *testing.T) {
	template := docxtest.BuildWithParts(docxtest.DocumentXML([]string{"body"}), map[string]string{
		"word/footer2.xml": `<w:ftr xmlns:w="x"><w:p><w:r><w:t>{name}</w:t></w:r></w:p></w:ftr>`,
	})

	out, err := Populate(template, map[string]string{"name": "Jane"})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	footer := string(zipParts(t, out)["word/footer2.xml"])
	if !strings.Contains(footer, ">Jane</w:t>") {
		t.Fatalf("expected footer substitution, got %s", footer)
	}
}

func TestPopulateInvalidTemplate(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("notes.txt")
	w.Write([]byte("hello"))
	zw.Close()

	for name, payload := range map[string][]byte{
		"empty":       nil,
		"not a zip":   []byte("garbage"),
		"no document": buf.Bytes(),
	} {
		if _, err := Populate(payload, map[string]string{"a": "b"}); !errors.Is(err, ErrInvalidTemplate) {
			t.Fatalf("%s: expected ErrInvalidTemplate, got %v", name, err)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	template := docxtest.Build([]string{"{name} ", "{co", "hort}"}, []string{"{name} again {date}"})

	names, err := Placeholders(template)
	if err != nil {
		t.Fatalf("placeholders: %v", err)
	}
	want := []string{"cohort", "date", "name"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func wrapDocument(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
}

func TestPopulateSkipsEmptySelfClosingRuns(t *testing.T) {
	template := docxtest.BuildWithParts(wrapDocument(
		`<w:p><w:r><w:t xml:space="preserve"/></w:r><w:r><w:t>Dear {name}</w:t></w:r></w:p>`,
	), nil)

	out, err := Populate(template, map[string]string{"name": "Jane"})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	doc := string(zipParts(t, out)["word/document.xml"])
	if strings.Contains(doc, "&lt;") {
		t.Fatalf("markup was escaped into text: %s", doc)
	}
	if !strings.Contains(doc, `<w:r><w:t xml:space="preserve"/></w:r>`) {
		t.Fatalf("expected empty run to be kept, got %s", doc)
	}
	if text := docxText(t, out); text != "Dear Jane" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestPopulateTextBoxParagraphs(t *testing.T) {
	template := docxtest.BuildWithParts(wrapDocument(
		`<w:p><w:r><w:pict><w:txbxContent><w:p><w:r><w:t>Box {cohort}</w:t></w:r></w:p></w:txbxContent></w:pict></w:r>`+
			`<w:r><w:t>Dear {name}</w:t></w:r></w:p>`,
	), nil)

	names, err := Placeholders(template)
	if err != nil {
		t.Fatalf("placeholders: %v", err)
	}
	if want := []string{"cohort", "name"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}

	out, err := Populate(template, map[string]string{"name": "Jane", "cohort": "2024"})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	doc := string(zipParts(t, out)["word/document.xml"])
	for _, want := range []string{">Box 2024</w:t>", ">Dear Jane</w:t>"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in %s", want, doc)
		}
	}
	if strings.Contains(doc, "{") {
		t.Fatalf("placeholder left behind: %s", doc)
	}
	if _, err := doctext.FromDOCX(out); err != nil {
		t.Fatalf("output is not well formed: %v", err)
	}
}

func TestParagraphRunsIgnoresComments(t *testing.T) {
	paras := paragraphRuns(`<w:p><!-- <w:t>x</w:t> --><w:r><w:t a="1">{a}</w:t></w:r></w:p>`)
	if len(paras) != 1 || len(paras[0]) != 1 || paras[0][0].text != "{a}" {
		t.Fatalf("unexpected runs %+v", paras)
	}
}
