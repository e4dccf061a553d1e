package profilepictures

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"trainee-backend/internal/shared/server/respond"
	"trainee-backend/internal/shared/tempfile"
	"trainee-backend/internal/trainees"
)

const defaultMaxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadSize
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches profile picture routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("/trainees/:id/profile-picture", h.set)
	rg.DELETE("/trainees/:id/profile-picture", h.delete)
}

func (h *Handler) set(c *gin.Context) {
	traineeID := c.Param("id")
	c.Set("traineeId", traineeID)
	// Leave room for the multipart envelope around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+1<<20)

	res, err := h.Svc.Set(c.Request.Context(), traineeID, formFileSource{c: c, field: "file", maxBytes: h.MaxUploadBytes})
	if err != nil {
		writeError(c, err, "failed to set profile picture")
		return
	}
	respond.Created(c, res)
}

// formFileSource parses the multipart form only when the service asks for the
// upload, so an unknown trainee is reported before a malformed body.
type formFileSource struct {
	c        *gin.Context
	field    string
	maxBytes int64
}

func (s formFileSource) Accept(ctx context.Context, scope *tempfile.Scope) (string, error) {
	header, err := s.c.FormFile(s.field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, s.maxBytes)
		}
		return "", fmt.Errorf("%w: file is required", ErrValidation)
	}
	return MultipartSource{Header: header, MaxBytes: s.maxBytes}.Accept(ctx, scope)
}

func (h *Handler) delete(c *gin.Context) {
	traineeID := c.Param("id")
	c.Set("traineeId", traineeID)

	if err := h.Svc.Delete(c.Request.Context(), traineeID); err != nil {
		writeError(c, err, "failed to delete profile picture")
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, trainees.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "trainee not found", nil)
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, trainees.ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "trainee was modified concurrently, retry the request", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
