package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/internal/service"
	"github.com/noah-isme/aulora-api/pkg/response"
)

type profileService interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error)
}

type progressExporter interface {
	ProgressReport(ctx context.Context, principal *models.JWTClaims, format service.ExportFormat) (*service.ExportFile, error)
}

type paymentHistory interface {
	MyPayments(ctx context.Context, userID string) ([]models.Payment, error)
}

// ProfileHandler serves the authenticated user's own account.
type ProfileHandler struct {
	profiles profileService
	exporter progressExporter
	payments paymentHistory
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(profiles profileService, exporter progressExporter, payments paymentHistory) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, exporter: exporter, payments: payments}
}

// Get godoc
// @Summary Current user profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /perfil [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	profile, err := h.profiles.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Update godoc
// @Summary Update current user profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /perfil [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid profile payload"))
		return
	}
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ExportProgress godoc
// @Summary Download course progress report
// @Tags Profile
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /perfil/progreso/export [get]
func (h *ProfileHandler) ExportProgress(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	file, err := h.exporter.ProgressReport(c.Request.Context(), claims, service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Payments godoc
// @Summary Payment history of the current user
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /perfil/pagos [get]
func (h *ProfileHandler) Payments(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	payments, err := h.payments.MyPayments(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	response.OK(c, payments)
}
