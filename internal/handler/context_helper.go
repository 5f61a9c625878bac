package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aulora-api/internal/middleware"
	"github.com/noah-isme/aulora-api/internal/models"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
	"github.com/noah-isme/aulora-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes a 401 and returns nil when the request carries no principal.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

func pageParams(c *gin.Context) (int, int) {
	page, size := 1, 0
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = v
	}
	return page, size
}

func courseFilterFromQuery(c *gin.Context) models.CourseFilter {
	page, size := pageParams(c)
	return models.CourseFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		CategoryID: strings.TrimSpace(c.Query("category_id")),
		Ordering:   models.CourseOrdering(c.Query("ordering")),
		Page:       page,
		PageSize:   size,
	}
}

func itineraryFilterFromQuery(c *gin.Context) models.ItineraryFilter {
	page, size := pageParams(c)
	return models.ItineraryFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Ordering: models.CourseOrdering(c.Query("ordering")),
		Page:     page,
		PageSize: size,
	}
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
