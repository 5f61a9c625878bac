package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/response"
)

type enrollmentService interface {
	EnrollInCourse(ctx context.Context, userID, courseID string) (*models.EnrollmentResult, error)
	EnrollInItinerary(ctx context.Context, userID, itineraryID string) (*models.EnrollmentResult, error)
	PurchaseItinerary(ctx context.Context, userID, itineraryID string, req models.PurchaseItineraryRequest) (*models.PurchaseResult, error)
	MyCourses(ctx context.Context, userID string) ([]models.CourseDetail, error)
	MyItineraries(ctx context.Context, userID string) ([]models.EnrolledItinerary, error)
}

// EnrollmentHandler manages course and itinerary enrollments of the caller.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// EnrollCourse godoc
// @Summary Enroll in a course
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cursos/{id}/inscribirse [post]
func (h *EnrollmentHandler) EnrollCourse(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	res, err := h.service.EnrollInCourse(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// EnrollItinerary godoc
// @Summary Join an itinerary
// @Description Adds the membership only; course enrollments are not created
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Itinerary ID"
// @Success 200 {object} response.Envelope
// @Router /itinerarios/{id}/inscribirse [post]
func (h *EnrollmentHandler) EnrollItinerary(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	res, err := h.service.EnrollInItinerary(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Purchase godoc
// @Summary Purchase an itinerary
// @Description Enrolls the caller in the itinerary and every course it holds
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Itinerary ID"
// @Param payload body models.PurchaseItineraryRequest false "Payment method"
// @Success 200 {object} response.Envelope
// @Router /itinerarios/{id}/pagar [post]
func (h *EnrollmentHandler) Purchase(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.PurchaseItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, bindError(err, "invalid payment payload"))
		return
	}
	res, err := h.service.PurchaseItinerary(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// MyCourses godoc
// @Summary Courses the caller is enrolled in
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mis-cursos [get]
func (h *EnrollmentHandler) MyCourses(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	courses, err := h.service.MyCourses(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if courses == nil {
		courses = []models.CourseDetail{}
	}
	response.OK(c, courses)
}

// MyItineraries godoc
// @Summary Itineraries the caller belongs to, with progress
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /mis-itinerarios [get]
func (h *EnrollmentHandler) MyItineraries(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	itineraries, err := h.service.MyItineraries(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if itineraries == nil {
		itineraries = []models.EnrolledItinerary{}
	}
	response.OK(c, itineraries)
}
