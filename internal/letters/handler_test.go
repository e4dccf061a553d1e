package letters

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"trainee-backend/internal/shared/storage/object"
	"trainee-backend/internal/shared/storage/object/memory"
	"trainee-backend/internal/testutil/docxtest"
)

func newLetterRouter(gen *Generator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(gen).RegisterRoutes(r.Group("/api"))
	return r
}

func TestHandlerGenerate(t *testing.T) {
	store := memory.New()
	store.Put(TemplateKey(TypeGitHubTrainee), docxtest.Build([]string{"Dear {name}"}), object.ACLPrivate)
	r := newLetterRouter(newGenerator(t, store, newFakeConverter(t).URL))

	body, _ := json.Marshal(map[string]any{"data": map[string]string{"name": "Jane"}})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/letters/github-trainee", bytes.NewReader(body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected pdf body")
	}
	if cd := resp.Header().Get("Content-Disposition"); cd != `attachment; filename="GITHUB_TRAINEE_Jane.pdf"` {
		t.Fatalf("unexpected content disposition %q", cd)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	withTemplate := memory.New()
	withTemplate.Put(TemplateKey(TypeGitHubTrainee), docxtest.Build([]string{"{name}"}), object.ACLPrivate)

	tests := []struct {
		name   string
		store  *memory.Store
		path   string
		body   string
		status int
		code   string
	}{
		{name: "unknown type", store: memory.New(), path: "/api/letters/offer", body: `{"data":{}}`, status: http.StatusBadRequest, code: "validation_error"},
		{name: "missing data", store: withTemplate, path: "/api/letters/GITHUB_TRAINEE", body: `{}`, status: http.StatusBadRequest, code: "validation_error"},
		{name: "missing template", store: memory.New(), path: "/api/letters/GITHUB_TRAINEE", body: `{"data":{"name":"Jane"}}`, status: http.StatusNotFound, code: "template_not_found"},
		{name: "conversion failure", store: withTemplate, path: "/api/letters/GITHUB_TRAINEE", body: `{"data":{"name":"Jane"}}`, status: http.StatusBadGateway, code: "conversion_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newLetterRouter(newGenerator(t, tt.store, failing.URL))
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))

			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload.Error.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, payload.Error.Code)
			}
		})
	}
}

func TestHandlerPutTemplate(t *testing.T) {
	store := memory.New()
	r := newLetterRouter(newGenerator(t, store, "http://127.0.0.1:1"))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "letter.docx")
	part.Write(docxtest.Build([]string{"{name}"}))
	mw.Close()

	req := httptest.NewRequest(http.MethodPut, "/api/letters/GITHUB_TRAINEE/template", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/letters/GITHUB_TRAINEE/placeholders", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"placeholders":["name"]`) {
		t.Fatalf("unexpected placeholders response %d: %s", resp.Code, resp.Body.String())
	}
}
