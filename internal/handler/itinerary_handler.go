package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aulora-api/internal/middleware"
	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/response"
)

type itineraryCatalog interface {
	ListItineraries(ctx context.Context, principal *models.JWTClaims, filter models.ItineraryFilter) ([]models.Itinerary, *models.Pagination, error)
	ExploreItineraries(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, *models.Pagination, error)
	GetItinerary(ctx context.Context, id string) (*models.ItineraryDetail, error)
	CreateItinerary(ctx context.Context, req models.CreateItineraryRequest) (*models.ItineraryDetail, error)
	ItineraryPrice(ctx context.Context, id string) (*models.Price, error)
}

// ItineraryHandler exposes itinerary catalog endpoints.
type ItineraryHandler struct {
	catalog itineraryCatalog
}

// NewItineraryHandler constructs the handler.
func NewItineraryHandler(catalog itineraryCatalog) *ItineraryHandler {
	return &ItineraryHandler{catalog: catalog}
}

// List godoc
// @Summary List itineraries visible to the caller
// @Tags Itineraries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /itinerarios [get]
func (h *ItineraryHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	itineraries, page, err := h.catalog.ListItineraries(c.Request.Context(), claims, itineraryFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, itineraries, page, middleware.ResponseMeta(c))
}

// Explore godoc
// @Summary Public itinerary search
// @Tags Explore
// @Produce json
// @Param search query string false "Text search"
// @Param ordering query string false "title, -title, price or -price"
// @Success 200 {object} response.Envelope
// @Router /explorar-itinerarios [get]
func (h *ItineraryHandler) Explore(c *gin.Context) {
	itineraries, page, err := h.catalog.ExploreItineraries(c.Request.Context(), itineraryFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, itineraries, page, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Itinerary detail with ordered courses
// @Tags Itineraries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Itinerary ID"
// @Success 200 {object} response.Envelope
// @Router /itinerarios/{id} [get]
func (h *ItineraryHandler) Get(c *gin.Context) {
	itinerary, err := h.catalog.GetItinerary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, itinerary)
}

// Create godoc
// @Summary Create itinerary
// @Tags Itineraries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateItineraryRequest true "Itinerary payload"
// @Success 201 {object} response.Envelope
// @Router /itinerarios [post]
func (h *ItineraryHandler) Create(c *gin.Context) {
	var req models.CreateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid itinerary payload"))
		return
	}
	itinerary, err := h.catalog.CreateItinerary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, itinerary)
}

// Price godoc
// @Summary Public itinerary price
// @Tags Explore
// @Produce json
// @Param id path string true "Itinerary ID"
// @Success 200 {object} response.Envelope
// @Router /itinerarios/{id}/precio [get]
func (h *ItineraryHandler) Price(c *gin.Context) {
	price, err := h.catalog.ItineraryPrice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, price)
}
