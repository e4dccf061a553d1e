package letters

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trainee-backend/internal/converter"
	"trainee-backend/internal/shared/server/respond"
	"trainee-backend/internal/shared/storage/object"
	"trainee-backend/internal/shared/util"
)

const maxTemplateSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the generator.
type Handler struct {
	Gen *Generator
}

// NewHandler constructs a Handler.
func NewHandler(gen *Generator) *Handler {
	return &Handler{Gen: gen}
}

// RegisterRoutes attaches letter routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/letters/:type", h.generate)
	rg.GET("/letters/:type/placeholders", h.placeholders)
	rg.PUT("/letters/:type/template", h.putTemplate)
}

type generateRequest struct {
	Data Data `json:"data"`
}

func (h *Handler) generate(c *gin.Context) {
	letterType, ok := h.letterType(c)
	if !ok {
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Data == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "data is required", nil)
		return
	}

	pdf, err := h.Gen.Generate(c.Request.Context(), letterType, req.Data)
	if err != nil {
		writeError(c, err)
		return
	}
	defer pdf.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", pdf, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, downloadName(letterType, req.Data)),
	})
}

func downloadName(t Type, data Data) string {
	base := string(t)
	if name := strings.TrimSpace(data["name"]); name != "" {
		base += "_" + name
	}
	if safe, err := util.SanitizeFileName(base + ".pdf"); err == nil {
		return safe
	}
	return string(t) + ".pdf"
}

func (h *Handler) placeholders(c *gin.Context) {
	letterType, ok := h.letterType(c)
	if !ok {
		return
	}

	names, err := h.Gen.Placeholders(c.Request.Context(), letterType)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"type": letterType, "placeholders": names})
}

func (h *Handler) putTemplate(c *gin.Context) {
	letterType, ok := h.letterType(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTemplateSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if err := h.Gen.PutTemplate(c.Request.Context(), letterType, fileHeader.Filename, mimeType, file); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) letterType(c *gin.Context) (Type, bool) {
	t, err := ParseType(c.Param("type"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return "", false
	}
	c.Set("letterType", string(t))
	return t, true
}

func writeError(c *gin.Context, err error) {
	var (
		convErr  *converter.ConversionError
		fetchErr *TemplateFetchError
		popErr   *TemplatePopulationError
	)
	switch {
	case errors.Is(err, ErrUnknownType), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.As(err, &fetchErr) && errors.Is(err, object.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "template_not_found", "letter template not found", nil)
	case errors.As(err, &fetchErr):
		respond.Error(c, http.StatusInternalServerError, "template_fetch_failed", "failed to load letter template", nil)
	case errors.As(err, &popErr):
		respond.Error(c, http.StatusInternalServerError, "template_population_failed", "failed to populate letter template", nil)
	case errors.As(err, &convErr):
		details := gin.H{}
		if convErr.StatusCode != 0 {
			details["upstreamStatus"] = convErr.StatusCode
		}
		respond.Error(c, http.StatusBadGateway, "conversion_failed", "document conversion failed", details)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate letter", nil)
	}
}
