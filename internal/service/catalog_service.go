package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aulora-api/internal/models"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type catalogCategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
}

type catalogCourseStore interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Price(ctx context.Context, id string) (int, error)
}

type catalogModuleStore interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Module, error)
	Create(ctx context.Context, module *models.Module) error
}

type catalogItineraryStore interface {
	List(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, int, error)
	FindByID(ctx context.Context, id string) (*models.Itinerary, error)
	ListCourses(ctx context.Context, itineraryID string) ([]models.ItineraryCourse, error)
	Create(ctx context.Context, itinerary *models.Itinerary, courseIDs []string) error
	Price(ctx context.Context, id string) (int, error)
}

// CatalogService serves categories, courses, modules and itineraries under the access policy.
type CatalogService struct {
	tx          txRunner
	categories  catalogCategoryStore
	courses     catalogCourseStore
	modules     catalogModuleStore
	itineraries catalogItineraryStore
	policy      *AccessPolicy
	cache       *CacheService
	priceTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// CatalogDeps groups the collaborators of the catalog service.
type CatalogDeps struct {
	Tx          txRunner
	Categories  catalogCategoryStore
	Courses     catalogCourseStore
	Modules     catalogModuleStore
	Itineraries catalogItineraryStore
	Policy      *AccessPolicy
	Cache       *CacheService
	PriceTTL    time.Duration
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDeps, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{
		tx:          deps.Tx,
		categories:  deps.Categories,
		courses:     deps.Courses,
		modules:     deps.Modules,
		itineraries: deps.Itineraries,
		policy:      deps.Policy,
		cache:       deps.Cache,
		priceTTL:    deps.PriceTTL,
		validator:   validate,
		logger:      logger,
	}
}

func normalizePagination(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list categories")
	}
	return categories, nil
}

// ListCourses returns the courses visible to the principal.
func (s *CatalogService) ListCourses(ctx context.Context, principal *models.JWTClaims, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	scoped, visible, err := s.policy.ScopeCourseFilter(principal, filter)
	if err != nil {
		return nil, nil, err
	}
	if !visible {
		page, size := normalizePagination(filter.Page, filter.PageSize)
		return []models.CourseDetail{}, &models.Pagination{Page: page, PageSize: size}, nil
	}
	return s.listCourses(ctx, scoped)
}

// ExploreCourses is the public course search. It bypasses the access policy.
func (s *CatalogService) ExploreCourses(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	filter.CategoryNameEquals = ""
	filter.ExcludeEnrolledBy = ""
	return s.listCourses(ctx, filter)
}

func (s *CatalogService) listCourses(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePagination(filter.Page, filter.PageSize)
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list courses")
	}
	if courses == nil {
		courses = []models.CourseDetail{}
	}
	return courses, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *CatalogService) loadCourse(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

// GetCourse returns one course if the principal may read it.
func (s *CatalogService) GetCourse(ctx context.Context, principal *models.JWTClaims, id string) (*models.CourseDetail, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeCourseDetail(ctx, principal, course); err != nil {
		return nil, err
	}
	return course, nil
}

// CreateCourse creates a course in the category the policy assigns.
func (s *CatalogService) CreateCourse(ctx context.Context, principal *models.JWTClaims, req models.CreateCourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	category, err := s.policy.ResolveCourseCategory(ctx, principal, req.CategoryID)
	if err != nil {
		return nil, err
	}

	createdBy := principal.UserID
	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  category.ID,
		Price:       req.Price,
		CreatedBy:   &createdBy,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Internal(err, "failed to create course")
	}
	s.logger.Info("course created",
		zap.String("course_id", course.ID),
		zap.String("category", category.Name),
		zap.String("created_by", createdBy),
	)
	return &models.CourseDetail{Course: *course, CategoryName: category.Name}, nil
}

// ListModules returns the course modules if the principal may read the course.
func (s *CatalogService) ListModules(ctx context.Context, principal *models.JWTClaims, courseID string) ([]models.Module, error) {
	if _, err := s.GetCourse(ctx, principal, courseID); err != nil {
		return nil, err
	}
	modules, err := s.modules.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list modules")
	}
	if modules == nil {
		modules = []models.Module{}
	}
	return modules, nil
}

// CreateModule appends a module to a course the principal may edit.
func (s *CatalogService) CreateModule(ctx context.Context, principal *models.JWTClaims, courseID string, req models.CreateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeCourseEdit(principal, course); err != nil {
		return nil, err
	}

	module := &models.Module{
		CourseID:       course.ID,
		Title:          req.Title,
		Content:        req.Content,
		AttachmentURL:  req.AttachmentURL,
		AttachmentType: req.AttachmentType,
	}
	if err := s.modules.Create(ctx, module); err != nil {
		return nil, appErrors.Internal(err, "failed to create module")
	}
	return module, nil
}

// ListItineraries returns the itineraries visible to the principal.
func (s *CatalogService) ListItineraries(ctx context.Context, principal *models.JWTClaims, filter models.ItineraryFilter) ([]models.Itinerary, *models.Pagination, error) {
	scoped, visible, err := s.policy.ScopeItineraryFilter(principal, filter)
	if err != nil {
		return nil, nil, err
	}
	if !visible {
		page, size := normalizePagination(filter.Page, filter.PageSize)
		return []models.Itinerary{}, &models.Pagination{Page: page, PageSize: size}, nil
	}
	return s.listItineraries(ctx, scoped)
}

// ExploreItineraries is the public itinerary search.
func (s *CatalogService) ExploreItineraries(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, *models.Pagination, error) {
	filter.CourseCategoryNameEquals = ""
	return s.listItineraries(ctx, filter)
}

func (s *CatalogService) listItineraries(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePagination(filter.Page, filter.PageSize)
	itineraries, total, err := s.itineraries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list itineraries")
	}
	if itineraries == nil {
		itineraries = []models.Itinerary{}
	}
	return itineraries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetItinerary returns an itinerary with its courses in order.
func (s *CatalogService) GetItinerary(ctx context.Context, id string) (*models.ItineraryDetail, error) {
	itinerary, err := s.itineraries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "itinerary not found")
		}
		return nil, appErrors.Internal(err, "failed to load itinerary")
	}
	courses, err := s.itineraries.ListCourses(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list itinerary courses")
	}
	if courses == nil {
		courses = []models.ItineraryCourse{}
	}
	return &models.ItineraryDetail{Itinerary: *itinerary, Courses: courses}, nil
}

// CreateItinerary creates an itinerary from existing courses, keeping the given order.
func (s *CatalogService) CreateItinerary(ctx context.Context, req models.CreateItineraryRequest) (*models.ItineraryDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid itinerary payload")
	}

	seen := make(map[string]struct{}, len(req.CourseIDs))
	courseIDs := make([]string, 0, len(req.CourseIDs))
	for _, id := range req.CourseIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.loadCourse(ctx, id); err != nil {
			return nil, err
		}
		courseIDs = append(courseIDs, id)
	}

	itinerary := &models.Itinerary{Title: req.Title, Description: req.Description, Price: req.Price}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.itineraries.Create(ctx, itinerary, courseIDs); err != nil {
			return appErrors.Internal(err, "failed to create itinerary")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("itinerary created", zap.String("itinerary_id", itinerary.ID), zap.Int("courses", len(courseIDs)))
	return s.GetItinerary(ctx, itinerary.ID)
}

func coursePriceKey(id string) string    { return fmt.Sprintf("price:course:%s", id) }
func itineraryPriceKey(id string) string { return fmt.Sprintf("price:itinerary:%s", id) }

// CoursePrice returns the public course price, cached when caching is enabled.
func (s *CatalogService) CoursePrice(ctx context.Context, id string) (*models.Price, error) {
	return s.price(ctx, coursePriceKey(id), "course not found", func() (int, error) { return s.courses.Price(ctx, id) })
}

// ItineraryPrice returns the public itinerary price, cached when caching is enabled.
func (s *CatalogService) ItineraryPrice(ctx context.Context, id string) (*models.Price, error) {
	return s.price(ctx, itineraryPriceKey(id), "itinerary not found", func() (int, error) { return s.itineraries.Price(ctx, id) })
}

func (s *CatalogService) price(ctx context.Context, key, notFound string, load func() (int, error)) (*models.Price, error) {
	var cached models.Price
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	amount, err := load()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
		}
		return nil, appErrors.Internal(err, "failed to load price")
	}
	price := &models.Price{Price: amount}
	s.cache.Set(ctx, key, price, s.priceTTL)
	return price, nil
}
