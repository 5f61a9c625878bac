package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/response"
)

type progressService interface {
	CompleteModule(ctx context.Context, userID, moduleID string) (*models.ProgressUpdateResult, error)
	CourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgressView, error)
	ItineraryProgress(ctx context.Context, userID, itineraryID string) (*models.ItineraryProgressView, error)
}

// ProgressHandler records module completions and reports progress.
type ProgressHandler struct {
	service progressService
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(svc progressService) *ProgressHandler {
	return &ProgressHandler{service: svc}
}

// CompleteModule godoc
// @Summary Mark a module as completed
// @Description Idempotent; returns the recomputed course percentage as progress_curso
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /modulos/{id}/completar [post]
func (h *ProgressHandler) CompleteModule(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	res, err := h.service.CompleteModule(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Course godoc
// @Summary Caller's progress in a course
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /cursos/{id}/progreso [get]
func (h *ProgressHandler) Course(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	view, err := h.service.CourseProgress(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Itinerary godoc
// @Summary Caller's progress in an itinerary
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param id path string true "Itinerary ID"
// @Success 200 {object} response.Envelope
// @Router /itinerarios/{id}/progreso [get]
func (h *ProgressHandler) Itinerary(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	view, err := h.service.ItineraryProgress(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
