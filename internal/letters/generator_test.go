package letters

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trainee-backend/internal/converter"
	"trainee-backend/internal/shared/storage/object"
	"trainee-backend/internal/shared/storage/object/memory"
	"trainee-backend/internal/testutil/doctext"
	"trainee-backend/internal/testutil/docxtest"
	"trainee-backend/internal/testutil/pdftest"
)

// newFakeConverter mimics the conversion service by rendering the docx
// text into a PDF.
func newFakeConverter(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/libreoffice/convert" {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("files")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		payload, _ := io.ReadAll(file)
		text, err := doctext.FromBytes(payload, "", header.Filename)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdftest.Build(strings.Split(text, "\n")...))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGenerator(t *testing.T, store object.ObjectStore, url string) *Generator {
	t.Helper()
	client, err := converter.New(converter.Options{BaseURL: url, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("converter: %v", err)
	}
	return &Generator{Store: store, Converter: client}
}

func pdfText(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	text, err := doctext.FromPDF(data)
	if err != nil {
		t.Fatalf("extract pdf: %v", err)
	}
	return text
}

func TestGenerateGitHubTraineeLetter(t *testing.T) {
	store := memory.New()
	store.Put(TemplateKey(TypeGitHubTrainee), docxtest.Build([]string{"Dear {name},"}, []string{"Welcome aboard"}), object.ACLPrivate)
	gen := newGenerator(t, store, newFakeConverter(t).URL)

	pdf, err := gen.Generate(context.Background(), TypeGitHubTrainee, Data{"name": "Jane"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	text := pdfText(t, pdf)
	if !strings.Contains(text, "Jane") {
		t.Fatalf("expected Jane in %q", text)
	}
	if strings.Contains(text, "{name}") {
		t.Fatalf("placeholder left in %q", text)
	}

	for _, call := range store.Calls() {
		if call.Op != "download" {
			t.Fatalf("expected no intermediate artifacts, got %+v", call)
		}
	}
}

func TestGenerateConversionFailure(t *testing.T) {
	store := memory.New()
	store.Put(TemplateKey(TypeGitHubTrainee), docxtest.Build([]string{"{name}"}), object.ACLPrivate)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	gen := newGenerator(t, store, srv.URL)

	pdf, err := gen.Generate(context.Background(), TypeGitHubTrainee, Data{"name": "Jane"})
	if pdf != nil {
		t.Fatalf("expected no pdf")
	}
	var convErr *converter.ConversionError
	if !errors.As(err, &convErr) || convErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected ConversionError with status 500, got %v", err)
	}
}

func TestGenerateMissingTemplate(t *testing.T) {
	gen := newGenerator(t, memory.New(), "http://127.0.0.1:1")

	_, err := gen.Generate(context.Background(), TypeGitHubTrainee, Data{"name": "Jane"})
	var fetchErr *TemplateFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected TemplateFetchError, got %v", err)
	}
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected not found to be preserved, got %v", err)
	}
}

func TestGenerateCorruptTemplate(t *testing.T) {
	store := memory.New()
	store.Put(TemplateKey(TypeGitHubTrainee), []byte("not a zip"), object.ACLPrivate)
	gen := newGenerator(t, store, "http://127.0.0.1:1")

	_, err := gen.Generate(context.Background(), TypeGitHubTrainee, Data{"name": "Jane"})
	var popErr *TemplatePopulationError
	if !errors.As(err, &popErr) {
		t.Fatalf("expected TemplatePopulationError, got %v", err)
	}
}

func TestGenerateValidatesInput(t *testing.T) {
	gen := newGenerator(t, memory.New(), "http://127.0.0.1:1")

	if _, err := gen.Generate(context.Background(), Type("OFFER"), Data{}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if _, err := gen.Generate(context.Background(), TypeGitHubTrainee, Data{"bad name": "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPutTemplateAndPlaceholders(t *testing.T) {
	store := memory.New()
	gen := newGenerator(t, store, "http://127.0.0.1:1")
	template := docxtest.Build([]string{"{name} joins {cohort}"})

	if err := gen.PutTemplate(context.Background(), TypeGitHubTrainee, "letter.docx", "application/octet-stream", strings.NewReader(string(template))); err != nil {
		t.Fatalf("put template: %v", err)
	}
	obj, ok := store.Get(TemplateKey(TypeGitHubTrainee))
	if !ok || obj.ACL != object.ACLPrivate {
		t.Fatalf("expected private template, got %+v %v", obj, ok)
	}

	names, err := gen.Placeholders(context.Background(), TypeGitHubTrainee)
	if err != nil {
		t.Fatalf("placeholders: %v", err)
	}
	if strings.Join(names, ",") != "cohort,name" {
		t.Fatalf("unexpected placeholders %v", names)
	}

	err = gen.PutTemplate(context.Background(), TypeGitHubTrainee, "letter.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for pdf, got %v", err)
	}
}

func TestParseType(t *testing.T) {
	for _, raw := range []string{"GITHUB_TRAINEE", "github_trainee", "github-trainee"} {
		got, err := ParseType(raw)
		if err != nil || got != TypeGitHubTrainee {
			t.Fatalf("parse %q: %v %v", raw, got, err)
		}
	}
	if _, err := ParseType("offer"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}
