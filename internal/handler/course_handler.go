package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aulora-api/internal/middleware"
	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/response"
)

type courseCatalog interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListCourses(ctx context.Context, principal *models.JWTClaims, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error)
	ExploreCourses(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error)
	GetCourse(ctx context.Context, principal *models.JWTClaims, id string) (*models.CourseDetail, error)
	CreateCourse(ctx context.Context, principal *models.JWTClaims, req models.CreateCourseRequest) (*models.CourseDetail, error)
	ListModules(ctx context.Context, principal *models.JWTClaims, courseID string) ([]models.Module, error)
	CreateModule(ctx context.Context, principal *models.JWTClaims, courseID string, req models.CreateModuleRequest) (*models.Module, error)
	CoursePrice(ctx context.Context, id string) (*models.Price, error)
}

// CourseHandler exposes categories, courses and their modules.
type CourseHandler struct {
	catalog courseCatalog
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(catalog courseCatalog) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

// Categories godoc
// @Summary List categories
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /categorias [get]
func (h *CourseHandler) Categories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, categories)
}

// List godoc
// @Summary List courses visible to the caller
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param search query string false "Text search"
// @Param category_id query string false "Category filter"
// @Param ordering query string false "title, -title, price or -price"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cursos [get]
func (h *CourseHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	courses, page, err := h.catalog.ListCourses(c.Request.Context(), claims, courseFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, page, middleware.ResponseMeta(c))
}

// Explore godoc
// @Summary Public course search
// @Tags Explore
// @Produce json
// @Param search query string false "Text search"
// @Param category_id query string false "Category filter"
// @Param ordering query string false "title, -title, price or -price"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /explorar-cursos [get]
func (h *CourseHandler) Explore(c *gin.Context) {
	courses, page, err := h.catalog.ExploreCourses(c.Request.Context(), courseFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, page, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Course detail
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cursos/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	course, err := h.catalog.GetCourse(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

// Create godoc
// @Summary Create course
// @Description Teachers always create in the category named after their subject
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /cursos [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid course payload"))
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Modules godoc
// @Summary List course modules
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /cursos/{id}/modulos [get]
func (h *CourseHandler) Modules(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	modules, err := h.catalog.ListModules(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, modules)
}

// CreateModule godoc
// @Summary Append a module to a course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body models.CreateModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Router /cursos/{id}/modulos [post]
func (h *CourseHandler) CreateModule(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid module payload"))
		return
	}
	module, err := h.catalog.CreateModule(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// Price godoc
// @Summary Public course price
// @Tags Explore
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cursos/{id}/precio [get]
func (h *CourseHandler) Price(c *gin.Context) {
	price, err := h.catalog.CoursePrice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, price)
}
