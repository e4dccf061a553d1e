package trainees

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trainee-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/trainees", h.create)
	rg.GET("/trainees/:id", h.get)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	t, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrConflict):
			respond.Error(c, http.StatusConflict, "conflict", "trainee already exists", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create trainee", nil)
		}
		return
	}
	c.Set("traineeId", t.ID)
	respond.Created(c, t)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("traineeId", id)
	t, err := h.Svc.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "trainee not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load trainee", nil)
		}
		return
	}
	respond.OK(c, t)
}
