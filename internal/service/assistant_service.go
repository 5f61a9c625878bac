package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/aulora-api/internal/models"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

const (
	optionRecommendedCourses     = "Cursos recomendados"
	optionCoursesByTopic         = "Cursos por temática"
	optionRecommendedItineraries = "Itinerarios recomendados"
	optionCheapestCourse         = "Buscar curso barato"
	optionCheapestItinerary      = "Buscar itinerario barato"
	optionItinerariesByCategory  = "Itinerarios por categoría"
	optionBack                   = "Volver al inicio"

	recommendationCount = 3
)

var mainMenu = []string{
	optionRecommendedCourses,
	optionCoursesByTopic,
	optionRecommendedItineraries,
	optionCheapestCourse,
	optionCheapestItinerary,
	optionItinerariesByCategory,
}

type assistantCourseLister interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
}

type assistantItineraryLister interface {
	List(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, int, error)
}

type assistantCategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
}

type assistantHandler func(ctx context.Context) (*models.AssistantReply, error)

// AssistantService answers the catalog assistant's fixed questions.
type AssistantService struct {
	courses     assistantCourseLister
	itineraries assistantItineraryLister
	categories  assistantCategoryStore
	logger      *zap.Logger
	handlers    map[string]assistantHandler
}

// NewAssistantService constructs the assistant and its dispatch table.
func NewAssistantService(courses assistantCourseLister, itineraries assistantItineraryLister, categories assistantCategoryStore, logger *zap.Logger) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AssistantService{courses: courses, itineraries: itineraries, categories: categories, logger: logger}
	s.handlers = map[string]assistantHandler{
		"hola":                                        s.greet,
		strings.ToLower(optionBack):                   s.menu,
		strings.ToLower(optionRecommendedCourses):     s.recommendedCourses,
		strings.ToLower(optionRecommendedItineraries): s.recommendedItineraries,
		strings.ToLower(optionCheapestCourse):         s.cheapestCourse,
		strings.ToLower(optionCheapestItinerary):      s.cheapestItinerary,
		strings.ToLower(optionCoursesByTopic):         s.categoryMenu("Elige una temática:"),
		strings.ToLower(optionItinerariesByCategory):  s.categoryMenu("Selecciona una categoría:"),
	}
	return s
}

func menuOptions() []string {
	return append([]string(nil), mainMenu...)
}

func backOnly(answer string) *models.AssistantReply {
	return &models.AssistantReply{Answer: answer, Options: []string{optionBack}}
}

// Reply dispatches the question. Unknown questions fall back to the main menu.
func (s *AssistantService) Reply(ctx context.Context, question string) (*models.AssistantReply, error) {
	key := strings.ToLower(strings.TrimSpace(question))
	if handler, ok := s.handlers[key]; ok {
		return handler(ctx)
	}
	if key != "" {
		reply, found, err := s.byCategory(ctx, key)
		if err != nil || found {
			return reply, err
		}
	}
	return &models.AssistantReply{
		Answer:  "No he entendido tu pregunta. ¿Qué deseas hacer?",
		Options: menuOptions(),
	}, nil
}

func (s *AssistantService) greet(context.Context) (*models.AssistantReply, error) {
	return &models.AssistantReply{Answer: "¡Hola! Soy el asistente de Aulora. ¿Qué deseas hacer?", Options: menuOptions()}, nil
}

func (s *AssistantService) menu(context.Context) (*models.AssistantReply, error) {
	return &models.AssistantReply{Answer: "¿Qué deseas hacer?", Options: menuOptions()}, nil
}

func (s *AssistantService) recommendedCourses(ctx context.Context) (*models.AssistantReply, error) {
	courses, _, err := s.courses.List(ctx, models.CourseFilter{PageSize: recommendationCount})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	if len(courses) == 0 {
		return backOnly("No hay cursos disponibles."), nil
	}
	return backOnly("Te recomiendo estos cursos: " + courseTitles(courses)), nil
}

func (s *AssistantService) recommendedItineraries(ctx context.Context) (*models.AssistantReply, error) {
	itineraries, _, err := s.itineraries.List(ctx, models.ItineraryFilter{PageSize: recommendationCount})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list itineraries")
	}
	if len(itineraries) == 0 {
		return backOnly("No hay itinerarios disponibles."), nil
	}
	return backOnly("Te recomiendo estos itinerarios: " + itineraryTitles(itineraries)), nil
}

func (s *AssistantService) cheapestCourse(ctx context.Context) (*models.AssistantReply, error) {
	courses, _, err := s.courses.List(ctx, models.CourseFilter{Ordering: models.OrderPriceAsc, PageSize: 1})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	if len(courses) == 0 {
		return backOnly("No hay cursos disponibles."), nil
	}
	return backOnly(fmt.Sprintf("El curso más barato es '%s' y cuesta %d€.", courses[0].Title, courses[0].Price)), nil
}

func (s *AssistantService) cheapestItinerary(ctx context.Context) (*models.AssistantReply, error) {
	itineraries, _, err := s.itineraries.List(ctx, models.ItineraryFilter{Ordering: models.OrderPriceAsc, PageSize: 1})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list itineraries")
	}
	if len(itineraries) == 0 {
		return backOnly("No hay itinerarios disponibles."), nil
	}
	return backOnly(fmt.Sprintf("El itinerario más barato es '%s' y cuesta %d€.", itineraries[0].Title, itineraries[0].Price)), nil
}

func (s *AssistantService) categoryMenu(prompt string) assistantHandler {
	return func(ctx context.Context) (*models.AssistantReply, error) {
		categories, err := s.categories.List(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to list categories")
		}
		options := make([]string, 0, len(categories)+1)
		for _, category := range categories {
			options = append(options, category.Name)
		}
		return &models.AssistantReply{Answer: prompt, Options: append(options, optionBack)}, nil
	}
}

// byCategory answers a bare category name with its courses, or else the itineraries holding them.
func (s *AssistantService) byCategory(ctx context.Context, name string) (*models.AssistantReply, bool, error) {
	category, err := s.categories.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, appErrors.Internal(err, "failed to look up category")
	}

	courses, _, err := s.courses.List(ctx, models.CourseFilter{CategoryID: category.ID, Ordering: models.OrderTitleAsc, PageSize: maxPageSize})
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list courses")
	}
	if len(courses) > 0 {
		return backOnly(fmt.Sprintf("Cursos en la categoría %s: %s", category.Name, courseTitles(courses))), true, nil
	}

	itineraries, _, err := s.itineraries.List(ctx, models.ItineraryFilter{CourseCategoryNameEquals: category.Name, Ordering: models.OrderTitleAsc, PageSize: maxPageSize})
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list itineraries")
	}
	if len(itineraries) > 0 {
		return backOnly(fmt.Sprintf("Itinerarios con cursos de la categoría %s: %s", category.Name, itineraryTitles(itineraries))), true, nil
	}
	return backOnly(fmt.Sprintf("No hay cursos ni itinerarios en la categoría %s.", category.Name)), true, nil
}

func courseTitles(courses []models.CourseDetail) string {
	titles := make([]string, 0, len(courses))
	for _, course := range courses {
		titles = append(titles, course.Title)
	}
	return strings.Join(titles, ", ")
}

func itineraryTitles(itineraries []models.Itinerary) string {
	titles := make([]string, 0, len(itineraries))
	for _, itinerary := range itineraries {
		titles = append(titles, itinerary.Title)
	}
	return strings.Join(titles, ", ")
}
